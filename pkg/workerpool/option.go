package workerpool

import (
	"time"

	"github.com/brickingsoft/errors"
)

const (
	defaultMaxThreads  = 256
	defaultIdleTimeout = 5 * time.Second
)

// Option configures a Pool at construction, mirroring the functional-option
// shape the teacher uses to build its own rxp.Option slice (option.go's
// AsRxpOptions).
type Option func(*Options) error

// Options holds the resolved configuration for New.
type Options struct {
	MaxThreads  int
	IdleTimeout time.Duration
	ThreadName  string
}

// MaxThreads caps the number of elastic worker threads.
func MaxThreads(max int) Option {
	return func(o *Options) error {
		if max < 1 {
			return errors.New("max threads must be greater than 0", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
		}
		o.MaxThreads = max
		return nil
	}
}

// IdleTimeout sets how long an idle thread waits for work before
// retiring. Default 5s, per spec §4.6.
func IdleTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d < 1 {
			return errors.New("idle timeout must be greater than 0", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
		}
		o.IdleTimeout = d
		return nil
	}
}

// ThreadName, when set, names every OS thread the pool spawns (via
// runtime/pprof labels, since Go exposes no portable OS-thread-rename
// call the way native Windows threads can be named).
func ThreadName(name string) Option {
	return func(o *Options) error {
		o.ThreadName = name
		return nil
	}
}

func resolveOptions(opts []Option) (Options, error) {
	o := Options{MaxThreads: defaultMaxThreads, IdleTimeout: defaultIdleTimeout}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	return o, nil
}
