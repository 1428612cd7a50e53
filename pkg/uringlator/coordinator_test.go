package uringlator

import (
	"testing"

	"github.com/brickingsoft/wincp/pkg/optable"
)

type fakeDriver struct {
	started    []uint64
	canceled   map[uint64]bool
	completed  []uint64
	coord      *Coordinator
	finishOnStart bool
}

func (d *fakeDriver) Start(id uint64) {
	d.started = append(d.started, id)
	if d.finishOnStart {
		d.coord.Finish(d, id, nil, optable.ThreadUnsafe)
	}
}

func (d *fakeDriver) Cancel(id uint64) bool {
	if d.canceled == nil {
		d.canceled = map[uint64]bool{}
	}
	d.canceled[id] = true
	d.coord.Finish(d, id, nil, optable.ThreadUnsafe)
	return true
}

func (d *fakeDriver) Complete(id uint64, err error) {
	d.completed = append(d.completed, id)
}

func TestQueueSubmitFinishDrain(t *testing.T) {
	c := New(4)
	d := &fakeDriver{coord: c, finishOnStart: true}

	ids, err := c.Queue([]Op{{Tag: optable.Recv}, {Tag: optable.Send}})
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}

	if submitted := c.Submit(d); !submitted {
		t.Fatal("Submit should report true when operations were pending")
	}
	if len(d.started) != 2 {
		t.Fatalf("started %d ops, want 2", len(d.started))
	}
	if len(d.completed) != 2 {
		t.Fatalf("completed %d ops, want 2", len(d.completed))
	}

	completions := c.DrainCompletions(0)
	if len(completions) != 2 {
		t.Fatalf("drained %d completions, want 2", len(completions))
	}
	for _, id := range ids {
		if c.table.Lookup(id) {
			t.Fatalf("slot %d should be released after drain", id)
		}
	}
}

func TestFinishDropsRacedCancel(t *testing.T) {
	c := New(2)
	d := &fakeDriver{coord: c}
	ids, _ := c.Queue([]Op{{Tag: optable.Timeout}})
	id := ids[0]

	c.table.Release(id)
	c.Finish(d, id, nil, optable.ThreadSafe)
	if len(d.completed) != 0 {
		t.Fatal("Finish on a gone slot must not call Complete")
	}
}

func TestShutdownCancelsInFlight(t *testing.T) {
	c := New(2)
	d := &fakeDriver{coord: c}
	ids, _ := c.Queue([]Op{{Tag: optable.WaitEventSource}})

	c.Shutdown(d)
	if !d.canceled[ids[0]] {
		t.Fatal("Shutdown should cancel the in-flight operation")
	}
	if _, err := c.Queue([]Op{{Tag: optable.Recv}}); err != ErrShutdown {
		t.Fatalf("Queue after Shutdown = %v, want ErrShutdown", err)
	}
}
