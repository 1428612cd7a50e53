package winbackend

import "testing"

func TestSettingsResolveDefaults(t *testing.T) {
	got := Settings{}.resolve()
	if got.WorkerPoolMax <= 0 {
		t.Fatalf("expected a positive default WorkerPoolMax, got %d", got.WorkerPoolMax)
	}
	if got.WorkerPoolIdleTimeout <= 0 {
		t.Fatalf("expected a positive default idle timeout, got %v", got.WorkerPoolIdleTimeout)
	}
	if got.Capacity != 256 {
		t.Fatalf("expected default capacity 256, got %d", got.Capacity)
	}
}

func TestSettingsResolveKeepsExplicitValues(t *testing.T) {
	s := Settings{Threads: 4, WorkerPoolMax: 2, Capacity: 64}
	got := s.resolve()
	if got.Threads != 4 {
		t.Fatalf("expected Threads to pass through unchanged, got %d", got.Threads)
	}
	if got.WorkerPoolMax != 2 {
		t.Fatalf("expected explicit WorkerPoolMax to survive resolve, got %d", got.WorkerPoolMax)
	}
	if got.Capacity != 64 {
		t.Fatalf("expected explicit Capacity to survive resolve, got %d", got.Capacity)
	}
}
