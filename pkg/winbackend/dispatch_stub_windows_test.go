//go:build windows && wincp_singlethreaded

package winbackend

import (
	"testing"

	"github.com/brickingsoft/wincp/pkg/workerpool"
)

func TestRunOnPoolRunsInline(t *testing.T) {
	e := &Engine{}

	ran := false
	if err := e.runOnPool(func() { ran = true }); err != nil {
		t.Fatalf("runOnPool: %v", err)
	}
	if !ran {
		t.Fatal("expected runOnPool to execute fn synchronously before returning")
	}
}

func TestStubSpawnerNeverCalledDirectly(t *testing.T) {
	p := workerpool.NewStub()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected the stub pool's Spawn to panic if called directly, confirming runOnPool must be used instead")
		}
	}()
	_ = p.Spawn(func() {})
}
