package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/usecase/history"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse and manage image history",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
			historyDeleteCommand(),
			historyClearCommand(),
			historyDownloadCommand(),
			historyReuseCommand(),
		},
	}
}

// historyAction opens the configured history and passes it to fn
func historyAction(cfg *config, fn func(ctx context.Context, c *cli.Command, hist *history.Manager) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		ctx, err := cfg.setup(ctx, c)
		if err != nil {
			return err
		}

		hist, closer, err := cfg.newManager(ctx)
		defer closer()
		if err != nil {
			return err
		}

		return fn(ctx, c, hist)
	}
}

func historyFlagsWith(cfg *config, extra ...cli.Flag) []cli.Flag {
	flags := append([]cli.Flag{}, extra...)
	flags = append(flags, globalFlags(cfg)...)
	flags = append(flags, historyFlags(cfg)...)
	return flags
}

func recordID(c *cli.Command) (model.HistoryID, error) {
	id := c.Args().First()
	if id == "" {
		return "", goerr.New("history id is required", goerr.T(model.TagValidation))
	}
	return model.HistoryID(id), nil
}

func historyListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List history, newest first",
		Flags:   historyFlagsWith(&cfg),
		Action: historyAction(&cfg, func(ctx context.Context, c *cli.Command, hist *history.Manager) error {
			renderHistory(c.Root().Writer, hist.List())
			return nil
		}),
	}
}

func historyShowCommand() *cli.Command {
	var (
		cfg    config
		format string
	)

	flags := historyFlagsWith(&cfg, &cli.StringFlag{
		Name:        "format",
		Aliases:     []string{"f"},
		Usage:       "Output format (text, yaml)",
		Value:       "text",
		Destination: &format,
	})

	return &cli.Command{
		Name:      "show",
		Usage:     "Show the details of a history record",
		ArgsUsage: "<id>",
		Flags:     flags,
		Action: historyAction(&cfg, func(ctx context.Context, c *cli.Command, hist *history.Manager) error {
			id, err := recordID(c)
			if err != nil {
				return err
			}
			rec, err := hist.Get(id)
			if err != nil {
				return err
			}
			return renderRecord(c.Root().Writer, rec, format)
		}),
	}
}

func historyDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a history record",
		ArgsUsage: "<id>",
		Flags:     historyFlagsWith(&cfg),
		Action: historyAction(&cfg, func(ctx context.Context, c *cli.Command, hist *history.Manager) error {
			id, err := recordID(c)
			if err != nil {
				return err
			}
			if !hist.Remove(ctx, id) {
				fmt.Fprintf(c.Root().Writer, "History record %s not found\n", id)
				return nil
			}
			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		}),
	}
}

func historyClearCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all history records",
		Flags: historyFlagsWith(&cfg),
		Action: historyAction(&cfg, func(ctx context.Context, c *cli.Command, hist *history.Manager) error {
			n := hist.Len()
			hist.Clear(ctx)
			fmt.Fprintf(c.Root().Writer, "Cleared %d records\n", n)
			return nil
		}),
	}
}

func historyDownloadCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := historyFlagsWith(&cfg, &cli.StringFlag{
		Name:        "output",
		Aliases:     []string{"o"},
		Usage:       "Output file path (default: singhoo-studio-<timestamp>.<ext>)",
		Destination: &output,
	})

	return &cli.Command{
		Name:      "download",
		Usage:     "Save the image of a history record",
		ArgsUsage: "<id>",
		Flags:     flags,
		Action: historyAction(&cfg, func(ctx context.Context, c *cli.Command, hist *history.Manager) error {
			id, err := recordID(c)
			if err != nil {
				return err
			}
			path, err := downloadRecord(hist, id, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Saved %s\n", path)
			return nil
		}),
	}
}

// downloadRecord writes the image of id to output, or to its download file
// name in the current directory
func downloadRecord(hist *history.Manager, id model.HistoryID, output string) (string, error) {
	rec, err := hist.Get(id)
	if err != nil {
		return "", err
	}
	return saveImage(rec, rec.Base().ImageURL, output)
}

func historyReuseCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "reuse",
		Usage:     "Print the generate command that reproduces a history record",
		ArgsUsage: "<id>",
		Flags:     historyFlagsWith(&cfg),
		Action: historyAction(&cfg, func(ctx context.Context, c *cli.Command, hist *history.Manager) error {
			id, err := recordID(c)
			if err != nil {
				return err
			}
			prompt, settings, err := hist.Reuse(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, reuseCommandLine(prompt, settings))
			return nil
		}),
	}
}

func reuseCommandLine(prompt string, s model.GenerateSettings) string {
	line := fmt.Sprintf("singhoo generate --prompt %q --model %s --aspect-ratio %s",
		prompt, s.Model, s.AspectRatio)
	if desc, err := model.LookupModel(s.Model); err == nil && desc.SupportsImageSize {
		line += fmt.Sprintf(" --image-size %s", s.ImageSize)
	}
	return line
}
