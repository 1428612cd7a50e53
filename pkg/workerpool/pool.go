// Package workerpool implements the elastic worker pool described in spec
// §4.6: a pool of goroutines bounded at MaxThreads, with idle goroutines
// retired after IdleTimeout, grown and shrunk on demand as work arrives and
// drains.
//
// The pool is a thin adapter over the teacher's own concrete worker-pool
// dependency, github.com/brickingsoft/rxp (see option.go:19-47 in the
// teacher, which builds an rxp.Options/rxp.Option pair from exactly the
// MaxGoroutines/MaxReadyGoroutinesIdleDuration/CloseTimeout knobs this
// package's Options mirrors) — rxp.Executors owns the actual goroutine
// lifecycle; this package only resolves spec §4.6's Settings-facing option
// names onto rxp's and wraps Execute with an in-flight counter and a
// pprof thread-naming label, since rxp has no naming concept of its own.
package workerpool

import (
	"context"
	"runtime/pprof"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/rxp"
)

// Pool is the dynamic thread pool. It is safe for concurrent use.
type Pool struct {
	opts Options
	exec rxp.Executors

	active int64

	mu     sync.Mutex
	closed bool
}

// New builds a pool with the given options, backed by a freshly
// constructed rxp.Executors sized to MaxThreads/IdleTimeout.
func New(opts ...Option) (*Pool, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	exec, err := rxp.New(
		rxp.WithMaxGoroutines(o.MaxThreads),
		rxp.WithMaxReadyGoroutinesIdleDuration(o.IdleTimeout),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{opts: o, exec: exec}, nil
}

// taskFunc adapts a plain func() to rxp.Task.
type taskFunc func()

func (f taskFunc) Handle(context.Context) { f() }

// Spawn hands fn to the underlying executor. Spawn never drops a
// successfully-enqueued closure: a non-nil error here means rxp refused the
// task outright (the pool is closed), not that it was accepted and lost.
func (p *Pool) Spawn(fn func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.mu.Unlock()

	task := fn
	if name := p.opts.ThreadName; name != "" {
		inner := fn
		task = func() {
			pprof.Do(context.Background(), pprof.Labels("pool", name), func(context.Context) {
				inner()
			})
		}
	}

	atomic.AddInt64(&p.active, 1)
	err := p.exec.Execute(context.Background(), taskFunc(func() {
		defer atomic.AddInt64(&p.active, -1)
		task()
	}))
	if err != nil {
		atomic.AddInt64(&p.active, -1)
	}
	return err
}

// ActiveCount reports the number of closures currently spawned but not yet
// returned.
func (p *Pool) ActiveCount() int {
	return int(atomic.LoadInt64(&p.active))
}

// Close flips the pool closed (rejecting further Spawn calls) and waits for
// every in-flight closure to return before releasing rxp's executors.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	_ = p.exec.Close()
}
