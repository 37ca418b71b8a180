package timectrl

import (
	"context"
	"errors"
	"sync"
)

// YearClock exposes the simulated year to components that should not drive
// the loop themselves.
type YearClock interface {
	// Current returns the year being simulated, or the start year before the
	// first tick.
	Current() int
}

// Listener is invoked once per simulated year. Returning an error stops the
// controller.
type Listener func(ctx context.Context, year int) error

// ErrStopped is returned by Run when the context ends before the last year.
var ErrStopped = errors.New("year controller stopped")

// YearController steps simulated time one calendar year at a time and
// notifies registered listeners in registration order. Years advance as fast
// as the listeners return; there is no wall-clock pacing.
type YearController struct {
	mu        sync.RWMutex
	StartYear int
	EndYear   int

	current   int
	listeners []Listener
}

// NewYearController constructs a controller for the inclusive range
// [start, end]. An end before start is an empty range.
func NewYearController(start, end int) *YearController {
	return &YearController{
		StartYear: start,
		EndYear:   end,
		current:   start,
	}
}

// Current returns the year most recently dispatched. Implements YearClock.
func (yc *YearController) Current() int {
	yc.mu.RLock()
	defer yc.mu.RUnlock()
	return yc.current
}

// Years returns the number of years Run will dispatch.
func (yc *YearController) Years() int {
	if yc.EndYear < yc.StartYear {
		return 0
	}
	return yc.EndYear - yc.StartYear + 1
}

// AddListener registers a callback invoked on every year.
func (yc *YearController) AddListener(fn Listener) {
	yc.mu.Lock()
	defer yc.mu.Unlock()
	yc.listeners = append(yc.listeners, fn)
}

// Run dispatches every year of the range synchronously. It returns the first
// listener error unchanged, or ErrStopped wrapping the context error when ctx
// ends between years. An empty range returns immediately.
func (yc *YearController) Run(ctx context.Context) error {
	yc.mu.RLock()
	listeners := append([]Listener(nil), yc.listeners...)
	yc.mu.RUnlock()

	for year := yc.StartYear; year <= yc.EndYear; year++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(ErrStopped, err)
		}

		yc.mu.Lock()
		yc.current = year
		yc.mu.Unlock()

		for _, fn := range listeners {
			if err := fn(ctx, year); err != nil {
				return err
			}
		}
	}
	return nil
}
