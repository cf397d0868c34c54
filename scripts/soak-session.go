//go:build ignore

// Soak test runner with built-in profiling support
// This program drives a long harness session while monitoring memory and
// goroutine counts, to catch leaks in the tracker janitor, the cache
// write-back path, and the load generator restart logic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/woshizys/cachepulse/internal/config"
	"github.com/woshizys/cachepulse/internal/harness"
	"github.com/woshizys/cachepulse/internal/output"
)

func main() {
	duration := flag.Duration("duration", 2*time.Minute, "soak session length")
	frequency := flag.Int("frequency", 20, "requests per tick")
	window := flag.Duration("window", 30*time.Second, "latency sample window")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile to file")
	monitorInterval := flag.Duration("monitor-interval", 10*time.Second, "interval for monitoring stats")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("Cachepulse Soak Session with Profiling")
	fmt.Println("========================================")
	fmt.Println()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		fmt.Printf("CPU profiling enabled: %s\n", *cpuProfile)
	}

	stopMonitor := make(chan struct{})
	monitorDone := make(chan struct{})

	go func() {
		defer close(monitorDone)
		ticker := time.NewTicker(*monitorInterval)
		defer ticker.Stop()

		fmt.Println("\nStarting resource monitoring...")
		fmt.Println("Time\t\tGoroutines\tMemAlloc(MB)\tSys(MB)\t\tNumGC")
		fmt.Println("----\t\t----------\t------------\t-------\t\t-----")

		for {
			select {
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)

				fmt.Printf("%s\t%d\t\t%.2f\t\t%.2f\t\t%d\n",
					time.Now().Format("15:04:05"),
					runtime.NumGoroutine(),
					float64(m.Alloc)/1024/1024,
					float64(m.Sys)/1024/1024,
					m.NumGC,
				)
			case <-stopMonitor:
				return
			}
		}
	}()

	var initialStats runtime.MemStats
	runtime.ReadMemStats(&initialStats)
	initialGoroutines := runtime.NumGoroutine()

	fmt.Printf("Initial state:\n")
	fmt.Printf("  Goroutines: %d\n", initialGoroutines)
	fmt.Printf("  Memory Allocated: %.2f MB\n", float64(initialStats.Alloc)/1024/1024)
	fmt.Println()

	cfg := config.Default()
	cfg.Name = "soak"
	cfg.Tracker.Window = config.Duration(*window)
	cfg.Load.Frequency = *frequency
	cfg.Load.TickPeriod = config.Duration(100 * time.Millisecond)
	cfg.Load.Duration = config.Duration(*duration)
	cfg.Store.MinDelay = config.Duration(5 * time.Millisecond)
	cfg.Store.MaxDelay = config.Duration(20 * time.Millisecond)

	h, err := harness.New(cfg)
	if err != nil {
		log.Fatal("building harness: ", err)
	}

	fmt.Println("Starting soak session...")
	fmt.Println()

	startTime := time.Now()
	runErr := h.Run(context.Background(), func(s output.Stats) {
		if s.AverageMillis != nil {
			fmt.Printf("  [%s] reqs=%d samples=%d avg=%dms hits=%d misses=%d\n",
				s.Elapsed.Round(time.Second), s.Requests, s.Samples,
				*s.AverageMillis, s.CacheHits, s.CacheMisses)
		}
	})
	h.Close()
	elapsed := time.Since(startTime)

	// Give write-back and request goroutines a moment to drain before the
	// leak check.
	time.Sleep(2 * time.Second)

	close(stopMonitor)
	<-monitorDone

	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("Session Completed")
	fmt.Println("========================================")
	fmt.Printf("Duration: %s\n", elapsed)
	fmt.Println()

	var finalStats runtime.MemStats
	runtime.ReadMemStats(&finalStats)
	finalGoroutines := runtime.NumGoroutine()

	fmt.Printf("Final state:\n")
	fmt.Printf("  Goroutines: %d (delta: %+d)\n", finalGoroutines, finalGoroutines-initialGoroutines)
	fmt.Printf("  Memory Allocated: %.2f MB (delta: %+.2f MB)\n",
		float64(finalStats.Alloc)/1024/1024,
		float64(finalStats.Alloc-initialStats.Alloc)/1024/1024)
	fmt.Printf("  Total GC Runs: %d\n", finalStats.NumGC-initialStats.NumGC)
	fmt.Println()

	if finalGoroutines > initialGoroutines+5 {
		fmt.Printf("WARNING: Possible goroutine leak detected! (+%d goroutines)\n", finalGoroutines-initialGoroutines)
	} else {
		fmt.Println("No goroutine leaks detected")
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
		fmt.Printf("Memory profile written to: %s\n", *memProfile)
	}

	if runErr != nil {
		fmt.Printf("Session failed: %v\n", runErr)
		os.Exit(1)
	}
	fmt.Println("Session completed successfully!")
}
