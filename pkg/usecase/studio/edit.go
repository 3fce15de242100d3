package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/policy"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"google.golang.org/genai"
)

type EditInput struct {
	Prompt string
	Image  []byte
	// MIMEType is detected from FileName and content when empty
	MIMEType string
	FileName string
}

type EditOutput struct {
	ImageURL         string
	OriginalImageURL string
	Record           model.Record
	Added            bool
}

var errNoEditedImage = goerr.New("Image editing failed or returned no image data.", goerr.T(model.TagProvider))

// Edit applies a text instruction to an image and records the result
func (u *UseCase) Edit(ctx context.Context, input EditInput) (*EditOutput, error) {
	return u.editPane.Run(ctx, func(ctx context.Context) (*EditOutput, error) {
		mimeType, err := u.validateEdit(input)
		if err != nil {
			return nil, err
		}
		if err := u.check(ctx, policy.Request{
			Kind:   policy.KindEdit,
			Prompt: input.Prompt,
			Image:  &policy.Image{MIMEType: mimeType, Size: len(input.Image)},
		}); err != nil {
			return nil, err
		}

		logger := logging.From(ctx)
		logger.Info("editing image", "mime_type", mimeType, "bytes", len(input.Image))

		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromBytes(input.Image, mimeType),
				genai.NewPartFromText(input.Prompt),
			}, genai.RoleUser),
		}
		config := &genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityImage)},
		}

		resp, err := u.gemini.GenerateContent(ctx, string(model.ImageModelFlashImage), contents, config)
		if err != nil {
			logger.Warn("image editing failed", "error", err)
			return nil, goerr.Wrap(err, "image editing failed", goerr.T(model.TagProvider))
		}

		imageURL, ok := firstInlineImage(resp)
		if !ok {
			return nil, errNoEditedImage
		}

		originalURL := model.EncodeDataURL(mimeType, input.Image)
		rec, added, err := u.history.Add(ctx, &model.EditCandidate{
			Prompt:           input.Prompt,
			ImageURL:         imageURL,
			OriginalImageURL: originalURL,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to record edited image")
		}

		return &EditOutput{
			ImageURL:         imageURL,
			OriginalImageURL: originalURL,
			Record:           rec,
			Added:            added,
		}, nil
	})
}

func (u *UseCase) validateEdit(input EditInput) (string, error) {
	if len(input.Image) == 0 {
		return "", goerr.New("Please upload an image to edit.", goerr.T(model.TagValidation))
	}
	if len(input.Image) > u.maxEditBytes {
		return "", goerr.New(fmt.Sprintf("File size cannot exceed %dMB.", u.maxEditBytes/(1024*1024)),
			goerr.V("bytes", len(input.Image)),
			goerr.V("limit", u.maxEditBytes),
			goerr.T(model.TagValidation))
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return "", goerr.New("Please enter a prompt to describe the edit.", goerr.T(model.TagValidation))
	}

	mimeType := input.MIMEType
	if mimeType == "" {
		mimeType = model.DetectImageMIME(input.FileName, input.Image)
	}
	if !model.IsEditableImage(mimeType) {
		return "", goerr.New("Only PNG, JPEG, WebP, HEIC and HEIF images can be edited.",
			goerr.V("mime_type", mimeType), goerr.T(model.TagValidation))
	}

	return mimeType, nil
}
