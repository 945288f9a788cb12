package plsbb

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// watchdogGrace is the initial grace period before the first memory
// probe (spec.md §4.8). A var, not a const, so tests can shrink it
// rather than waiting out a real five-minute grace period.
var watchdogGrace = 300 * time.Second

// watchdogAppliesTo reports whether the resource watchdog (C8) is
// attached for this instance: spec.md §4.8 scopes it to the
// memory-heavy regime of a (non-concave) knapsack with K = 10000.
// Per spec.md §9's open question, this is deliberately not
// generalized to other regimes.
func watchdogAppliesTo(variant Variant, k int) bool {
	return variant == Knapsack && k == 10000
}

// memoryProbe reports current system memory usage as a percentage,
// abstracted so tests can substitute a deterministic fake.
type memoryProbe func() (float64, error)

func systemMemoryPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// watchdog polls memoryProbe on a self-tuning interval (spec.md §4.8)
// and signals abort via a buffered channel. It runs on its own
// goroutine, stopped by ctx cancellation, and exposes no suspension
// point to the sBB loop beyond a non-blocking channel check at the top
// of each iteration (spec.md §5).
type watchdog struct {
	abort chan struct{}
}

func startWatchdog(ctx context.Context, probe memoryProbe) *watchdog {
	w := &watchdog{abort: make(chan struct{}, 1)}
	go w.run(ctx, probe)
	return w
}

func (w *watchdog) run(ctx context.Context, probe memoryProbe) {
	timer := time.NewTimer(watchdogGrace)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			pct, err := probe()
			if err != nil {
				// transient probe failure: back off and retry rather
				// than aborting on uncertain information.
				timer.Reset(120 * time.Second)
				continue
			}

			switch {
			case pct >= 98:
				select {
				case w.abort <- struct{}{}:
				default:
				}
				return
			case pct >= 95:
				timer.Reset(10 * time.Second)
			case pct >= 90:
				timer.Reset(30 * time.Second)
			case pct >= 80:
				timer.Reset(60 * time.Second)
			default:
				timer.Reset(120 * time.Second)
			}
		}
	}
}

// aborted reports, without blocking, whether the watchdog has fired.
func (w *watchdog) aborted() bool {
	select {
	case <-w.abort:
		return true
	default:
		return false
	}
}
