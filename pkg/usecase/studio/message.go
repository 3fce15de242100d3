package studio

import (
	"context"
	"errors"
)

// Message converts an error into the text shown next to the pane
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case err.Error() == "":
		return "An unknown error occurred."
	default:
		return err.Error()
	}
}
