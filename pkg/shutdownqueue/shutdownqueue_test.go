package shutdownqueue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_LIFOOrder(t *testing.T) {
	t.Parallel()

	var q Queue

	var order []int

	for i := 1; i <= 3; i++ {
		i := i
		q.Add(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	err := q.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	want := []int{3, 2, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch: want %v, got %v", want, order)
		}
	}
}

func TestQueue_Idempotent(t *testing.T) {
	t.Parallel()

	var q Queue

	runs := 0

	q.Add(func(context.Context) error {
		runs++
		return nil
	})

	_ = q.Shutdown(context.Background())
	_ = q.Shutdown(context.Background())

	if runs != 1 {
		t.Fatalf("task ran %d times, want 1", runs)
	}
}

func TestQueue_AggregatesErrors(t *testing.T) {
	t.Parallel()

	var q Queue

	errA := errors.New("a failed")

	q.Add(func(context.Context) error { return errA })
	q.Add(func(context.Context) error { panic("boom") })

	err := q.Shutdown(context.Background())
	if err == nil {
		t.Fatal("want aggregated error")
	}
	if !errors.Is(err, errA) {
		t.Errorf("aggregated error missing task error: %v", err)
	}
}

func TestQueue_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	var q Queue

	ran := false

	q.Add(func(context.Context) error {
		ran = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Shutdown(ctx)
	if err == nil {
		t.Fatal("want context error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled in chain, got %v", err)
	}
	if ran {
		t.Error("task ran despite canceled context")
	}
}

func TestQueue_AddAfterShutdownIgnored(t *testing.T) {
	t.Parallel()

	var q Queue

	_ = q.Shutdown(context.Background())

	ran := false

	q.Add(func(context.Context) error {
		ran = true
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_ = q.Shutdown(ctx)

	if ran {
		t.Error("late-registered task ran")
	}
}
