package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// newOp builds an op that fails the first `failures` attempts, then
// records its name in the shared execution log.
func newOp(name string, failures int, runLog *[]string, mu *sync.Mutex) Op {
	return Op{
		Kind: name,
		Run: func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			if failures > 0 {
				failures--
				return fmt.Errorf("%s: scripted failure", name)
			}
			*runLog = append(*runLog, name)
			return nil
		},
	}
}

func TestDrainExecutesInOrder(t *testing.T) {
	q := New(nil)

	var mu sync.Mutex
	var runs []string
	for _, name := range []string{"a", "b", "c"} {
		q.Enqueue(newOp(name, 0, &runs, &mu))
	}

	executed, failed := q.Drain(context.Background())

	if executed != 3 || failed != 0 {
		t.Errorf("Drain = (%d, %d), want (3, 0)", executed, failed)
	}
	if q.Len() != 0 {
		t.Errorf("Len after drain = %d, want 0", q.Len())
	}
	if len(runs) != 3 || runs[0] != "a" || runs[1] != "b" || runs[2] != "c" {
		t.Errorf("execution order = %v, want [a b c]", runs)
	}
}

func TestDrainRequeuesFailuresAtTail(t *testing.T) {
	q := New(nil)

	var mu sync.Mutex
	var runs []string
	q.Enqueue(newOp("flaky", 1, &runs, &mu))
	q.Enqueue(newOp("steady", 0, &runs, &mu))

	executed, failed := q.Drain(context.Background())
	if executed != 1 || failed != 1 {
		t.Errorf("first Drain = (%d, %d), want (1, 1)", executed, failed)
	}
	if q.Len() != 1 {
		t.Fatalf("Len after first drain = %d, want 1", q.Len())
	}

	// Second drain replays the failure, which now succeeds.
	executed, failed = q.Drain(context.Background())
	if executed != 1 || failed != 0 {
		t.Errorf("second Drain = (%d, %d), want (1, 0)", executed, failed)
	}
	if len(runs) != 2 || runs[0] != "steady" || runs[1] != "flaky" {
		t.Errorf("execution order = %v, want [steady flaky]", runs)
	}
}

func TestDrainEmptyQueueIsNoop(t *testing.T) {
	q := New(nil)

	executed, failed := q.Drain(context.Background())
	if executed != 0 || failed != 0 {
		t.Errorf("Drain = (%d, %d), want (0, 0)", executed, failed)
	}
}

func TestEnqueueDuringDrainRunsOnNextPass(t *testing.T) {
	q := New(nil)

	var mu sync.Mutex
	var runs []string

	// The running op enqueues a sibling; it must not run in this pass
	// (the snapshot was taken before it existed) and must not deadlock.
	q.Enqueue(Op{
		Kind: "recursive",
		Run: func(ctx context.Context) error {
			q.Enqueue(newOp("late", 0, &runs, &mu))
			return nil
		},
	})

	executed, _ := q.Drain(context.Background())
	if executed != 1 {
		t.Errorf("executed = %d, want 1", executed)
	}
	if q.Len() != 1 {
		t.Fatalf("Len after drain = %d, want 1", q.Len())
	}
	if len(runs) != 0 {
		t.Errorf("late op ran during the same pass: %v", runs)
	}

	q.Drain(context.Background())
	if len(runs) != 1 || runs[0] != "late" {
		t.Errorf("runs = %v, want [late]", runs)
	}
}

func TestDrainCancelledContextRequeuesRemainder(t *testing.T) {
	q := New(nil)

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var runs []string
	q.Enqueue(Op{
		Kind: "canceller",
		Run: func(ctx context.Context) error {
			cancel()
			mu.Lock()
			defer mu.Unlock()
			runs = append(runs, "canceller")
			return nil
		},
	})
	q.Enqueue(newOp("stranded", 0, &runs, &mu))

	executed, _ := q.Drain(ctx)
	if executed != 1 {
		t.Errorf("executed = %d, want 1", executed)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1 (stranded op back in queue)", q.Len())
	}
}

func TestOrderedDrainStopsAtFirstFailure(t *testing.T) {
	q := NewOrdered(nil)

	var mu sync.Mutex
	var runs []string
	q.Enqueue(newOp("first", 0, &runs, &mu))
	q.Enqueue(newOp("second", 1, &runs, &mu))
	q.Enqueue(newOp("third", 0, &runs, &mu))

	executed, failed := q.Drain(context.Background())
	if executed != 1 || failed != 2 {
		t.Errorf("Drain = (%d, %d), want (1, 2)", executed, failed)
	}

	// second and third are still queued, in order.
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}

	// Next pass: second's failure is exhausted, both run in order.
	executed, failed = q.Drain(context.Background())
	if executed != 2 || failed != 0 {
		t.Errorf("second Drain = (%d, %d), want (2, 0)", executed, failed)
	}
	if len(runs) != 3 || runs[0] != "first" || runs[1] != "second" || runs[2] != "third" {
		t.Errorf("execution order = %v, want [first second third]", runs)
	}
}

func TestOrderedRequeuePrecedesNewEnqueues(t *testing.T) {
	q := NewOrdered(nil)

	var mu sync.Mutex
	var runs []string

	// "old" fails on its first attempt, but not before a newer op lands
	// in the queue. The retry of "old" must still run before "new".
	attempts := 0
	q.Enqueue(Op{
		Kind: "old",
		Run: func(ctx context.Context) error {
			attempts++
			if attempts == 1 {
				q.Enqueue(newOp("new", 0, &runs, &mu))
				return errors.New("first attempt fails")
			}
			mu.Lock()
			defer mu.Unlock()
			runs = append(runs, "old")
			return nil
		},
	})

	q.Drain(context.Background())
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (old re-prepended before new)", q.Len())
	}

	q.Drain(context.Background())
	if len(runs) != 2 || runs[0] != "old" || runs[1] != "new" {
		t.Errorf("execution order = %v, want [old new]", runs)
	}
}
