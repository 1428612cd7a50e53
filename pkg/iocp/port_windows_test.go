//go:build windows

package iocp

import (
	"testing"

	"github.com/brickingsoft/wincp/pkg/key"
)

func TestCreateAndDestroy(t *testing.T) {
	p, err := Create(2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
}

func TestPostAndDequeueNop(t *testing.T) {
	p, err := Create(1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Destroy()

	if err := p.Post(key.Encode(key.Nop, 0), nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	_, k, overlapped, err := p.Dequeue(5000)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if overlapped != nil {
		t.Fatalf("expected nil overlapped for a key-only post")
	}
	if tag := k.Tag(); tag != key.Nop {
		t.Fatalf("Tag() = %v, want Nop", tag)
	}
}

func TestDequeueShutdown(t *testing.T) {
	p, err := Create(1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Post(key.Encode(key.Shutdown, 0), nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	_, k, _, err := p.Dequeue(5000)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if k.Tag() != key.Shutdown {
		t.Fatalf("Tag() = %v, want Shutdown", k.Tag())
	}
	_ = p.Destroy()
}
