package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func editCommand() *cli.Command {
	var (
		cfg       config
		imagePath string
		prompt    string
		output    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "image",
			Aliases:     []string{"f"},
			Usage:       "Image file to edit (PNG, JPEG or WebP, max 4MB)",
			Destination: &imagePath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"i"},
			Usage:       "Description of the edit",
			Destination: &prompt,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file path (default: singhoo-studio-<timestamp>.<ext>)",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, historyFlags(&cfg)...)

	return &cli.Command{
		Name:  "edit",
		Usage: "Edit an image with a text instruction",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			input, err := readEditInput(imagePath, prompt)
			if err != nil {
				return err
			}

			uc, closer, err := cfg.newUseCase(ctx)
			defer closer()
			if err != nil {
				return err
			}

			out, err := withSpinner(c.Root().ErrWriter, "Editing image...", func() (*studio.EditOutput, error) {
				return uc.Edit(ctx, input)
			})
			if err != nil {
				return displayError(ctx, err)
			}

			path, err := saveImage(out.Record, out.ImageURL, output)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Saved %s\n", path)
			renderAdded(c.Root().Writer, out.Record, out.Added)
			return nil
		},
	}
}

// readEditInput loads the source image. Size and type are checked by the
// edit dispatcher.
func readEditInput(path, prompt string) (studio.EditInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return studio.EditInput{}, goerr.Wrap(err, "failed to read image", goerr.V("path", path))
	}
	return studio.EditInput{
		Prompt:   prompt,
		Image:    data,
		FileName: filepath.Base(path),
	}, nil
}
