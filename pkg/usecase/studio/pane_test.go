package studio_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
)

func TestPaneTransitions(t *testing.T) {
	var pane studio.Pane[string]
	ctx := context.Background()

	gt.Equal(t, pane.Snapshot().State, studio.StateIdle)

	result, err := pane.Run(ctx, func(ctx context.Context) (string, error) {
		gt.Equal(t, pane.Snapshot().State, studio.StatePending)
		return "done", nil
	})
	gt.NoError(t, err)
	gt.Equal(t, result, "done")
	gt.Equal(t, pane.Snapshot().State, studio.StateSuccess)

	_, err = pane.Run(ctx, func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	gt.Error(t, err)
	snap := pane.Snapshot()
	gt.Equal(t, snap.State, studio.StateFailed)
	gt.Equal(t, snap.Result, "")
	gt.Equal(t, snap.Message, "boom")
}

func TestPaneRejectsReentry(t *testing.T) {
	var pane studio.Pane[int]
	ctx := context.Background()

	_, err := pane.Run(ctx, func(ctx context.Context) (int, error) {
		_, inner := pane.Run(ctx, func(ctx context.Context) (int, error) { return 2, nil })
		gt.True(t, errors.Is(inner, studio.ErrBusy))
		return 1, nil
	})
	gt.NoError(t, err)
	gt.Equal(t, pane.Snapshot().Result, 1)
}

func TestMessage(t *testing.T) {
	gt.Equal(t, studio.Message(nil), "")
	gt.Equal(t, studio.Message(context.Canceled), "The request was cancelled.")
	gt.Equal(t, studio.Message(errors.New("")), "An unknown error occurred.")
	gt.Equal(t, studio.StateFailed.String(), "failed")
}
