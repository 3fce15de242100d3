package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// withSpinner shows a spinner on w while fn is pending
func withSpinner[T any](w io.Writer, label string, fn func() (T, error)) (T, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + label
	s.Start()
	defer s.Stop()

	return fn()
}
