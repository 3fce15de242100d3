package studio

import (
	"context"

	"github.com/m-mizutani/singhoo/pkg/adapter"
	"github.com/m-mizutani/singhoo/pkg/policy"
	"github.com/m-mizutani/singhoo/pkg/usecase/history"
)

// MaxEditImageBytes is the largest image accepted for editing
const MaxEditImageBytes = 4 * 1024 * 1024

// Guard decides whether a request may be sent
type Guard interface {
	Check(ctx context.Context, req policy.Request) error
}

// UseCase dispatches generate, edit and think requests. Each operation has
// its own Pane, so the three can be in flight at the same time while each
// accepts only one request at a time.
type UseCase struct {
	gemini  adapter.Gemini
	history *history.Manager
	guard   Guard

	thinkingBudget int32
	maxEditBytes   int

	generatePane Pane[*GenerateOutput]
	editPane     Pane[*EditOutput]
	thinkPane    Pane[string]
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithThinkingBudget overrides the token budget of think requests
func WithThinkingBudget(budget int32) Option {
	return func(uc *UseCase) {
		uc.thinkingBudget = budget
	}
}

// WithMaxEditImageBytes overrides the upload ceiling of edit requests
func WithMaxEditImageBytes(n int) Option {
	return func(uc *UseCase) {
		uc.maxEditBytes = n
	}
}

// WithGuard checks every request against guard after input validation
func WithGuard(guard Guard) Option {
	return func(uc *UseCase) {
		uc.guard = guard
	}
}

// New creates a new studio UseCase instance
func New(gemini adapter.Gemini, hist *history.Manager, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini:         gemini,
		history:        hist,
		thinkingBudget: defaultThinkingBudget,
		maxEditBytes:   MaxEditImageBytes,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// History returns the manager receiving completed results
func (u *UseCase) History() *history.Manager {
	return u.history
}

func (u *UseCase) check(ctx context.Context, req policy.Request) error {
	if u.guard == nil {
		return nil
	}
	return u.guard.Check(ctx, req)
}

func (u *UseCase) GenerateState() Snapshot[*GenerateOutput] { return u.generatePane.Snapshot() }
func (u *UseCase) EditState() Snapshot[*EditOutput]         { return u.editPane.Snapshot() }
func (u *UseCase) ThinkState() Snapshot[string]             { return u.thinkPane.Snapshot() }
