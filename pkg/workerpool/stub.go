//go:build wincp_singlethreaded

package workerpool

// StubPool is the single-threaded build's pool: a placeholder whose
// Spawn is a fatal panic, since no blocking operation should ever be
// dispatched to it (spec §4.6). Single-threaded builds run blocking
// operations inline on the caller's thread instead.
type StubPool struct{}

// NewStub returns the single-threaded stand-in for New.
func NewStub() *StubPool {
	return &StubPool{}
}

func (p *StubPool) Spawn(func()) error {
	panic(ErrSingleThreaded)
}

func (p *StubPool) ActiveCount() int { return 0 }

func (p *StubPool) Close() {}
