package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

// settingsFlags holds the raw generate settings given on the command line
type settingsFlags struct {
	model       string
	aspectRatio string
	imageSize   string
}

func (f *settingsFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Image model (imagen-4.0-generate-001, gemini-2.5-flash-image)",
			Destination: &f.model,
		},
		&cli.StringFlag{
			Name:        "aspect-ratio",
			Aliases:     []string{"a"},
			Usage:       "Aspect ratio (1:1, 16:9, 9:16, 4:3, 3:4)",
			Destination: &f.aspectRatio,
		},
		&cli.StringFlag{
			Name:        "image-size",
			Aliases:     []string{"s"},
			Usage:       "Image size for Imagen (1K, 2K)",
			Destination: &f.imageSize,
		},
	}
}

// resolve overlays the given flags on top of defaults
func (f *settingsFlags) resolve(defaults model.GenerateSettings) (model.GenerateSettings, error) {
	settings := defaults
	if f.model != "" {
		m, err := model.ParseImageModel(f.model)
		if err != nil {
			return settings, err
		}
		settings.Model = m
	}
	if f.aspectRatio != "" {
		a, err := model.ParseAspectRatio(f.aspectRatio)
		if err != nil {
			return settings, err
		}
		settings.AspectRatio = a
	}
	if f.imageSize != "" {
		s, err := model.ParseImageSize(f.imageSize)
		if err != nil {
			return settings, err
		}
		settings.ImageSize = s
	}
	return settings, nil
}

func generateCommand() *cli.Command {
	var (
		cfg      config
		settings settingsFlags
		prompt   string
		output   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"i"},
			Usage:       "Description of the image to generate",
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
	flags = append(flags, settings.flags()...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, historyFlags(&cfg)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate an image from a text prompt",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}

			s, err := settings.resolve(cfg.defaults)
			if err != nil {
				return err
			}

			uc, closer, err := cfg.newUseCase(ctx)
			defer closer()
			if err != nil {
				return err
			}

			out, err := withSpinner(c.Root().ErrWriter, "Generating image...", func() (*studio.GenerateOutput, error) {
				return uc.Generate(ctx, studio.GenerateInput{Prompt: prompt, Settings: s})
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
