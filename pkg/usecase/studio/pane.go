package studio

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
)

// ErrBusy is returned when a pane already has a request in flight
var ErrBusy = goerr.New("a request is already in progress", goerr.T(model.TagValidation))

type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is what a pane currently displays
type Snapshot[T any] struct {
	State   State
	Result  T
	Message string
}

// Pane runs at most one request at a time and keeps the outcome of the last
// one for display. Success and Failed stay until the next Run.
type Pane[T any] struct {
	mu      sync.Mutex
	state   State
	result  T
	message string
}

// Run moves the pane to Pending, calls fn and settles in Success or Failed.
// A previous result is cleared as soon as the new request starts.
func (p *Pane[T]) Run(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	p.mu.Lock()
	if p.state == StatePending {
		p.mu.Unlock()
		return zero, ErrBusy
	}
	p.state = StatePending
	p.result = zero
	p.message = ""
	p.mu.Unlock()

	result, err := fn(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.state = StateFailed
		p.message = Message(err)
		return zero, err
	}

	p.state = StateSuccess
	p.result = result
	return result, nil
}

// Snapshot returns the current display state
func (p *Pane[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot[T]{State: p.state, Result: p.result, Message: p.message}
}
