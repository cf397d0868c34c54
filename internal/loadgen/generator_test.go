package loadgen_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woshizys/cachepulse/internal/loadgen"
)

func TestGenerator_FiresFrequencyPerTick(t *testing.T) {
	var fired atomic.Int64
	g := loadgen.New(func(context.Context) error {
		fired.Add(1)
		return nil
	}, loadgen.Config{Frequency: 3, TickPeriod: 20 * time.Millisecond})

	g.Start()
	defer g.Stop()

	require.Eventually(t, func() bool {
		return g.Ticks() >= 2
	}, time.Second, 5*time.Millisecond)
	g.Stop()

	ticks := g.Ticks()
	require.Eventually(t, func() bool {
		return fired.Load() == ticks*3
	}, time.Second, 5*time.Millisecond, "each tick must fire exactly frequency requests")
	assert.Equal(t, ticks*3, g.Requests())
}

func TestGenerator_StopCancelsTicksOnly(t *testing.T) {
	release := make(chan struct{})
	var done atomic.Int64
	g := loadgen.New(func(context.Context) error {
		<-release
		done.Add(1)
		return nil
	}, loadgen.Config{Frequency: 2, TickPeriod: 10 * time.Millisecond})

	g.Start()
	require.Eventually(t, func() bool { return g.Ticks() >= 1 }, time.Second, time.Millisecond)
	g.Stop()
	require.False(t, g.Running())

	issued := g.Requests()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, issued, g.Requests(), "no new batches after Stop")

	// In-flight requests are not cancelled; they complete once unblocked.
	close(release)
	require.Eventually(t, func() bool {
		return done.Load() == issued
	}, time.Second, 5*time.Millisecond)
}

func TestGenerator_SetFrequencyTakesEffectNextTick(t *testing.T) {
	var fired atomic.Int64
	g := loadgen.New(func(context.Context) error {
		fired.Add(1)
		return nil
	}, loadgen.Config{Frequency: 2, TickPeriod: 25 * time.Millisecond})

	g.Start()
	defer g.Stop()

	require.Eventually(t, func() bool { return g.Ticks() >= 1 }, time.Second, time.Millisecond)

	before := fired.Load()
	ticksBefore := g.Ticks()
	g.SetFrequency(5)
	require.Equal(t, 5, g.Frequency())

	// The very next tick after the change fires 5 requests, not 2.
	require.Eventually(t, func() bool { return g.Ticks() == ticksBefore+1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return fired.Load() == before+5
	}, time.Second, time.Millisecond)
}

func TestGenerator_RequestFailuresDoNotAbort(t *testing.T) {
	var fired atomic.Int64
	g := loadgen.New(func(context.Context) error {
		fired.Add(1)
		return errors.New("request failed")
	}, loadgen.Config{Frequency: 2, TickPeriod: 10 * time.Millisecond})

	g.Start()
	defer g.Stop()

	require.Eventually(t, func() bool {
		return g.Ticks() >= 3 && fired.Load() >= 6
	}, time.Second, time.Millisecond, "failing requests must not stop the tick loop")
}

func TestGenerator_ClampsFrequency(t *testing.T) {
	g := loadgen.New(func(context.Context) error { return nil },
		loadgen.Config{Frequency: 0, TickPeriod: time.Hour})
	assert.Equal(t, loadgen.MinFrequency, g.Frequency())

	g.SetFrequency(-5)
	assert.Equal(t, loadgen.MinFrequency, g.Frequency())
}

func TestGenerator_StartStopIdempotent(t *testing.T) {
	g := loadgen.New(func(context.Context) error { return nil },
		loadgen.Config{Frequency: 1, TickPeriod: time.Hour})

	g.Start()
	g.Start()
	require.True(t, g.Running())

	g.Stop()
	g.Stop()
	require.False(t, g.Running())
}

func TestGenerator_SetFrequencyWhileStopped(t *testing.T) {
	g := loadgen.New(func(context.Context) error { return nil },
		loadgen.Config{Frequency: 1, TickPeriod: time.Hour})

	g.SetFrequency(7)
	assert.Equal(t, 7, g.Frequency())
	assert.False(t, g.Running())
}
