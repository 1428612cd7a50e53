//go:build windows

package winbackend_test

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/brickingsoft/wincp/pkg/optable"
	"github.com/brickingsoft/wincp/pkg/uringlator"
	"github.com/brickingsoft/wincp/pkg/winbackend"
	"golang.org/x/sys/windows"
)

func TestIsSupported(t *testing.T) {
	if !winbackend.IsSupported([]optable.OpTag{optable.Read, optable.Recv}) {
		t.Fatal("expected read/recv batch to be supported")
	}
	if winbackend.IsSupported([]optable.OpTag{optable.Read, optable.Poll}) {
		t.Fatal("expected a batch containing poll to be unsupported")
	}
}

func TestTimeoutCompletes(t *testing.T) {
	e, err := winbackend.Init(winbackend.Settings{Capacity: 8})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer e.Destroy()

	ids, err := e.Queue([]uringlator.Op{{Tag: optable.Timeout, State: winbackend.TimeoutState{Duration: 10 * time.Millisecond}}})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %d", len(ids))
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		completed, errs, completeErr := e.Complete(winbackend.Blocking, nil)
		if completeErr != nil {
			t.Fatalf("complete: %v", completeErr)
		}
		if completed+errs > 0 {
			if errs != 0 {
				t.Fatalf("expected a clean timeout completion, got %d errors", errs)
			}
			return
		}
	}
	t.Fatal("timeout op never completed")
}

func TestWaitEventSourceNotifyWakesWaiter(t *testing.T) {
	e, err := winbackend.Init(winbackend.Settings{Capacity: 8})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer e.Destroy()

	src := winbackend.NewEventSource()

	waitIDs, err := e.Queue([]uringlator.Op{{Tag: optable.WaitEventSource, State: winbackend.WaitEventSourceState{Source: src}}})
	if err != nil {
		t.Fatalf("queue wait: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		if _, err := e.Queue([]uringlator.Op{{Tag: optable.NotifyEventSource, State: winbackend.NotifyEventSourceState{Source: src}}}); err != nil {
			t.Errorf("queue notify: %v", err)
		}
	}()

	seen := make(map[uint64]bool)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(seen) < 2 {
		e.Complete(winbackend.Blocking, func(id uint64, result optable.Result) {
			seen[id] = true
		})
	}
	if !seen[waitIDs[0]] {
		t.Fatal("wait_event_source never completed after notify")
	}
}

func TestChildExitReportsExitCode(t *testing.T) {
	cmd := exec.Command("cmd", "/C", "exit 7")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.SYNCHRONIZE, false, uint32(cmd.Process.Pid))
	if err != nil {
		t.Fatalf("open process: %v", err)
	}
	defer windows.CloseHandle(handle)

	e, err := winbackend.Init(winbackend.Settings{Capacity: 8})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer e.Destroy()

	ids, err := e.Queue([]uringlator.Op{{Tag: optable.ChildExit, State: winbackend.ChildExitState{ProcessHandle: winbackend.RawHandle(handle)}}})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	var gotResult optable.Result
	found := false
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !found {
		e.Complete(winbackend.Blocking, func(id uint64, result optable.Result) {
			if id == ids[0] {
				gotResult = result
				found = true
			}
		})
	}
	if !found {
		t.Fatal("child_exit never completed")
	}
	if gotResult.Err != nil {
		t.Fatalf("unexpected error: %v", gotResult.Err)
	}
	if gotResult.Term.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", gotResult.Term.ExitCode)
	}
	cmd.Wait()
}

func TestPollIsUnsupported(t *testing.T) {
	e, err := winbackend.Init(winbackend.Settings{Capacity: 8})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer e.Destroy()

	ids, err := e.Queue([]uringlator.Op{{Tag: optable.Poll, State: nil}})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	var gotErr error
	found := false
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && !found {
		e.Complete(winbackend.Blocking, func(id uint64, result optable.Result) {
			if id == ids[0] {
				gotErr = result.Err
				found = true
			}
		})
	}
	if !found {
		t.Fatal("poll op never completed")
	}
	if !errors.Is(gotErr, winbackend.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", gotErr)
	}
}
