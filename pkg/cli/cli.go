package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// version is overwritten at build time with -ldflags
var version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:    "singhoo",
		Usage:   "Generate, edit and reason about images with Gemini",
		Version: version,
		Commands: []*cli.Command{
			generateCommand(),
			editCommand(),
			thinkCommand(),
			historyCommand(),
			modelsCommand(),
			shellCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
