package timectrl

import (
	"context"
	"errors"
	"testing"
)

func TestYearControllerDispatchesEveryYear(t *testing.T) {
	yc := NewYearController(2025, 2028)

	var years []int
	yc.AddListener(func(_ context.Context, year int) error {
		years = append(years, year)
		return nil
	})

	if err := yc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []int{2025, 2026, 2027, 2028}
	if len(years) != len(want) {
		t.Fatalf("dispatched %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("dispatched %v, want %v", years, want)
		}
	}
	if got := yc.Current(); got != 2028 {
		t.Fatalf("Current() = %d, want 2028", got)
	}
	if got := yc.Years(); got != 4 {
		t.Fatalf("Years() = %d, want 4", got)
	}
}

func TestYearControllerListenerOrder(t *testing.T) {
	yc := NewYearController(2030, 2030)

	var calls []string
	yc.AddListener(func(context.Context, int) error { calls = append(calls, "first"); return nil })
	yc.AddListener(func(context.Context, int) error { calls = append(calls, "second"); return nil })

	if err := yc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("calls = %v, want [first second]", calls)
	}
}

func TestYearControllerEmptyRange(t *testing.T) {
	yc := NewYearController(2030, 2029)

	called := false
	yc.AddListener(func(context.Context, int) error { called = true; return nil })

	if err := yc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if called {
		t.Fatalf("listener called for an empty range")
	}
	if got := yc.Years(); got != 0 {
		t.Fatalf("Years() = %d, want 0", got)
	}
}

func TestYearControllerStopsOnListenerError(t *testing.T) {
	yc := NewYearController(2025, 2035)
	boom := errors.New("boom")

	var last int
	yc.AddListener(func(_ context.Context, year int) error {
		last = year
		if year == 2027 {
			return boom
		}
		return nil
	})

	if err := yc.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if last != 2027 {
		t.Fatalf("last year = %d, want 2027", last)
	}
}

func TestYearControllerStopsOnCancel(t *testing.T) {
	yc := NewYearController(2025, 2035)
	ctx, cancel := context.WithCancel(context.Background())

	var count int
	yc.AddListener(func(_ context.Context, year int) error {
		count++
		if year == 2026 {
			cancel()
		}
		return nil
	})

	err := yc.Run(ctx)
	if !errors.Is(err, ErrStopped) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want ErrStopped and context.Canceled", err)
	}
	if count != 2 {
		t.Fatalf("listener calls = %d, want 2", count)
	}
}
