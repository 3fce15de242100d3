package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type ImageModel string

const (
	ImageModelImagen     ImageModel = "imagen-4.0-generate-001"
	ImageModelFlashImage ImageModel = "gemini-2.5-flash-image"
)

// ThinkModel is used for long-form reasoning requests.
const ThinkModel = "gemini-2.5-pro"

// ThinkingBudget is the token budget granted to ThinkModel.
const ThinkingBudget int32 = 32768

// Validate checks if the model is one of the supported image models
func (m ImageModel) Validate() error {
	switch m {
	case ImageModelImagen, ImageModelFlashImage:
		return nil
	default:
		return goerr.Wrap(ErrInvalidImageModel, "invalid image model", goerr.V("model", m), goerr.T(TagValidation))
	}
}

type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
)

// AspectRatios returns all supported aspect ratios in display order
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectRatio1x1, AspectRatio16x9, AspectRatio9x16, AspectRatio4x3, AspectRatio3x4}
}

// Validate checks if the aspect ratio is supported
func (a AspectRatio) Validate() error {
	for _, v := range AspectRatios() {
		if a == v {
			return nil
		}
	}
	return goerr.Wrap(ErrInvalidAspectRatio, "invalid aspect ratio", goerr.V("aspect_ratio", a), goerr.T(TagValidation))
}

type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
)

// ImageSizes returns all supported image sizes
func ImageSizes() []ImageSize {
	return []ImageSize{ImageSize1K, ImageSize2K}
}

// Validate checks if the image size is supported
func (s ImageSize) Validate() error {
	switch s {
	case ImageSize1K, ImageSize2K:
		return nil
	default:
		return goerr.Wrap(ErrInvalidImageSize, "invalid image size", goerr.V("image_size", s), goerr.T(TagValidation))
	}
}

const (
	DefaultImageModel  = ImageModelImagen
	DefaultAspectRatio = AspectRatio16x9
	DefaultImageSize   = ImageSize1K
)

// GenerateSettings holds the options used for a text-to-image request.
type GenerateSettings struct {
	Model       ImageModel  `json:"model" yaml:"model"`
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspect_ratio"`
	ImageSize   ImageSize   `json:"imageSize" yaml:"image_size"`
}

// DefaultGenerateSettings returns the settings preselected for a new session
func DefaultGenerateSettings() GenerateSettings {
	return GenerateSettings{
		Model:       DefaultImageModel,
		AspectRatio: DefaultAspectRatio,
		ImageSize:   DefaultImageSize,
	}
}

// Validate checks the settings the model actually uses. Controls a model
// does not support are ignored.
func (s GenerateSettings) Validate() error {
	if err := s.Model.Validate(); err != nil {
		return err
	}
	desc, err := LookupModel(s.Model)
	if err != nil {
		return err
	}
	if desc.SupportsAspectRatio {
		if err := s.AspectRatio.Validate(); err != nil {
			return err
		}
	}
	if desc.SupportsImageSize {
		if err := s.ImageSize.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ModelDescriptor describes which generation controls apply to an image model.
type ModelDescriptor struct {
	ID                  ImageModel
	DisplayName         string
	SupportsAspectRatio bool
	SupportsImageSize   bool
}

var modelCatalog = []ModelDescriptor{
	{
		ID:                  ImageModelImagen,
		DisplayName:         "Imagen 4",
		SupportsAspectRatio: true,
		SupportsImageSize:   true,
	},
	{
		ID:                  ImageModelFlashImage,
		DisplayName:         "Gemini 2.5 Flash Image",
		SupportsAspectRatio: true,
		SupportsImageSize:   false,
	},
}

// Models returns the static image model catalog
func Models() []ModelDescriptor {
	out := make([]ModelDescriptor, len(modelCatalog))
	copy(out, modelCatalog)
	return out
}

// LookupModel returns the descriptor of the given model
func LookupModel(id ImageModel) (ModelDescriptor, error) {
	for _, d := range modelCatalog {
		if d.ID == id {
			return d, nil
		}
	}
	return ModelDescriptor{}, goerr.Wrap(ErrInvalidImageModel, "unknown image model", goerr.V("model", id), goerr.T(TagValidation))
}

// ParseImageModel accepts either a model ID or a case-insensitive display name
func ParseImageModel(s string) (ImageModel, error) {
	s = strings.TrimSpace(s)
	for _, d := range modelCatalog {
		if string(d.ID) == s || strings.EqualFold(d.DisplayName, s) {
			return d.ID, nil
		}
	}
	return "", goerr.Wrap(ErrInvalidImageModel, "unknown image model", goerr.V("model", s), goerr.T(TagValidation))
}

// ParseAspectRatio parses and validates an aspect ratio
func ParseAspectRatio(s string) (AspectRatio, error) {
	a := AspectRatio(strings.TrimSpace(s))
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

// ParseImageSize parses an image size, accepting lower case input
func ParseImageSize(s string) (ImageSize, error) {
	size := ImageSize(strings.ToUpper(strings.TrimSpace(s)))
	if err := size.Validate(); err != nil {
		return "", err
	}
	return size, nil
}
