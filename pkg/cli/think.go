package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func thinkCommand() *cli.Command {
	var (
		cfg    config
		prompt string
		budget int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"i"},
			Usage:       "Question or task for extended reasoning",
			Destination: &prompt,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "thinking-budget",
			Usage:       "Token budget for the reasoning phase",
			Value:       int64(model.ThinkingBudget),
			Destination: &budget,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "think",
		Usage: "Ask a complex question with extended reasoning",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			// think never records history, so no backend is opened
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			guard, err := cfg.newGuard(ctx)
			if err != nil {
				return err
			}
			uc := studio.New(gemini, nil,
				studio.WithThinkingBudget(int32(budget)),
				studio.WithGuard(guard),
			)

			text, err := withSpinner(c.Root().ErrWriter, "Thinking...", func() (string, error) {
				return uc.Think(ctx, prompt)
			})
			if err != nil {
				return displayError(ctx, err)
			}

			fmt.Fprintln(c.Root().Writer, text)
			return nil
		},
	}
}
