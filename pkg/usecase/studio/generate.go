package studio

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/policy"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"google.golang.org/genai"
)

type GenerateInput struct {
	Prompt   string
	Settings model.GenerateSettings
}

type GenerateOutput struct {
	ImageURL string
	Record   model.Record
	// Added is false when the history already had the same image in front
	Added bool
}

var errNoGeneratedImage = goerr.New("Image generation failed or returned no images.", goerr.T(model.TagProvider))

// Generate turns a prompt into one image and records it in the history
func (u *UseCase) Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	return u.generatePane.Run(ctx, func(ctx context.Context) (*GenerateOutput, error) {
		if strings.TrimSpace(input.Prompt) == "" {
			return nil, goerr.New("Please enter a prompt to generate an image.", goerr.T(model.TagValidation))
		}
		if err := input.Settings.Validate(); err != nil {
			return nil, err
		}

		desc, err := model.LookupModel(input.Settings.Model)
		if err != nil {
			return nil, err
		}

		settings := input.Settings
		if err := u.check(ctx, policy.Request{Kind: policy.KindGenerate, Prompt: input.Prompt, Settings: &settings}); err != nil {
			return nil, err
		}

		logger := logging.From(ctx)
		logger.Info("generating image",
			"model", desc.ID,
			"aspect_ratio", input.Settings.AspectRatio,
			"image_size", input.Settings.ImageSize,
		)

		var imageURL string
		switch desc.ID {
		case model.ImageModelImagen:
			imageURL, err = u.generateWithImagen(ctx, desc, input)
		case model.ImageModelFlashImage:
			imageURL, err = u.generateWithFlashImage(ctx, desc, input)
		default:
			err = goerr.New("no request builder for image model", goerr.V("model", desc.ID), goerr.T(model.TagValidation))
		}
		if err != nil {
			logger.Warn("image generation failed", "error", err)
			return nil, err
		}

		rec, added, err := u.history.Add(ctx, &model.GenerateCandidate{
			Prompt:   input.Prompt,
			ImageURL: imageURL,
			Settings: input.Settings,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to record generated image")
		}

		return &GenerateOutput{ImageURL: imageURL, Record: rec, Added: added}, nil
	})
}

func (u *UseCase) generateWithImagen(ctx context.Context, desc model.ModelDescriptor, input GenerateInput) (string, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: model.MIMETypePNG,
	}
	if desc.SupportsAspectRatio {
		config.AspectRatio = string(input.Settings.AspectRatio)
	}
	if desc.SupportsImageSize {
		config.ImageSize = string(input.Settings.ImageSize)
	}

	resp, err := u.gemini.GenerateImages(ctx, string(desc.ID), input.Prompt, config)
	if err != nil {
		return "", goerr.Wrap(err, "image generation failed", goerr.T(model.TagProvider))
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return "", errNoGeneratedImage
	}

	img := resp.GeneratedImages[0]
	if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
		if img != nil && img.RAIFilteredReason != "" {
			return "", goerr.Wrap(errNoGeneratedImage, img.RAIFilteredReason, goerr.T(model.TagProvider))
		}
		return "", errNoGeneratedImage
	}

	mimeType := img.Image.MIMEType
	if mimeType == "" {
		mimeType = model.MIMETypePNG
	}
	return model.EncodeDataURL(mimeType, img.Image.ImageBytes), nil
}

func (u *UseCase) generateWithFlashImage(ctx context.Context, desc model.ModelDescriptor, input GenerateInput) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	}
	if desc.SupportsAspectRatio {
		config.ImageConfig = &genai.ImageConfig{
			AspectRatio: string(input.Settings.AspectRatio),
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(input.Prompt)}, genai.RoleUser),
	}

	resp, err := u.gemini.GenerateContent(ctx, string(desc.ID), contents, config)
	if err != nil {
		return "", goerr.Wrap(err, "image generation failed", goerr.T(model.TagProvider))
	}

	imageURL, ok := firstInlineImage(resp)
	if !ok {
		return "", errNoGeneratedImage
	}
	return imageURL, nil
}
