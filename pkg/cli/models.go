package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List available image models and their options",
		Action: func(ctx context.Context, c *cli.Command) error {
			renderModels(c.Root().Writer)
			return nil
		},
	}
}
