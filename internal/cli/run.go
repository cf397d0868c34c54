package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/woshizys/cachepulse/internal/config"
	"github.com/woshizys/cachepulse/internal/harness"
	"github.com/woshizys/cachepulse/internal/output"
)

var runFlags struct {
	configPath      string
	frequency       int
	window          time.Duration
	cleanupInterval time.Duration
	tickPeriod      time.Duration
	duration        time.Duration
	seedCount       int
	noCache         bool
	outputFormat    string
	quiet           bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load-generation session against the simulated backend",
	Long: `Run starts the simulator: the backing store is seeded, the load
generator fires batches of random cache-aside fetches every tick, and the
latency tracker reports the sliding-window average until the session
duration elapses or the process is interrupted.`,
	Example: `  cachepulse run --frequency 5 --duration 30s
  cachepulse run --config session.yaml --output json
  cachepulse run --no-cache --window 10s`,
	RunE: runSession,
}

func init() {
	flags := runCmd.Flags()
	flags.StringVarP(&runFlags.configPath, "config", "c", "", "path to a YAML or JSON session config")
	flags.IntVarP(&runFlags.frequency, "frequency", "f", 0, "requests per tick (1-100)")
	flags.DurationVar(&runFlags.window, "window", 0, "latency sample retention window")
	flags.DurationVar(&runFlags.cleanupInterval, "cleanup-interval", 0, "stale-sample pruning cadence")
	flags.DurationVar(&runFlags.tickPeriod, "tick", 0, "load generator tick period")
	flags.DurationVarP(&runFlags.duration, "duration", "d", 0, "session length (0 runs until interrupted)")
	flags.IntVar(&runFlags.seedCount, "seed-count", 0, "synthetic backing-store corpus size")
	flags.BoolVar(&runFlags.noCache, "no-cache", false, "disable the cache tier")
	flags.StringVarP(&runFlags.outputFormat, "output", "o", "console", "output format: console or json")
	flags.BoolVarP(&runFlags.quiet, "quiet", "q", false, "suppress live console updates")
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if runFlags.outputFormat != "console" && runFlags.outputFormat != "json" {
		return errors.Errorf("unknown output format %q (want console or json)", runFlags.outputFormat)
	}

	h, err := harness.New(cfg, harness.WithLogger(logrus.WithField("component", "harness")))
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := output.NewConsole(output.ConsoleConfig{
		Writer: cmd.OutOrStdout(),
		Quiet:  runFlags.quiet || runFlags.outputFormat == "json",
	})

	if runFlags.outputFormat == "console" {
		console.Banner(cfg.Name, cfg.Load.Frequency, cfg.Cache.CacheEnabled(), cfg.Tracker.Window.Std())
	}

	if err := h.Run(ctx, console.Update); err != nil {
		return err
	}

	final := h.Stats()
	if runFlags.outputFormat == "json" {
		return output.WriteJSON(cmd.OutOrStdout(), final)
	}
	console.Done(final)
	return nil
}

// buildConfig loads the config file (or defaults) and applies flag
// overrides for any flag the operator actually set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if runFlags.configPath != "" {
		loaded, err := config.LoadFile(runFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("frequency") {
		cfg.Load.Frequency = runFlags.frequency
	}
	if flags.Changed("window") {
		cfg.Tracker.Window = config.Duration(runFlags.window)
	}
	if flags.Changed("cleanup-interval") {
		cfg.Tracker.CleanupInterval = config.Duration(runFlags.cleanupInterval)
	}
	if flags.Changed("tick") {
		cfg.Load.TickPeriod = config.Duration(runFlags.tickPeriod)
	}
	if flags.Changed("duration") {
		cfg.Load.Duration = config.Duration(runFlags.duration)
	}
	if flags.Changed("seed-count") {
		cfg.Store.Seed = nil
		cfg.Store.SeedCount = runFlags.seedCount
	}
	if runFlags.noCache {
		disabled := false
		cfg.Cache.Enabled = &disabled
	}

	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
