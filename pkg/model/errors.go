package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so that presentation layers can decide how to
// surface them without inspecting messages.
var (
	// TagValidation marks input rejected before any request is sent.
	TagValidation = goerr.NewTag("validation")
	// TagProvider marks failures or empty results from the AI service.
	TagProvider = goerr.NewTag("provider")
	// TagConfig marks missing or invalid configuration such as credentials.
	TagConfig = goerr.NewTag("config")
	// TagNotFound marks lookups of unknown history records.
	TagNotFound = goerr.NewTag("not_found")
)

var (
	ErrInvalidImageModel  = goerr.New("unsupported image model", goerr.T(TagValidation))
	ErrInvalidAspectRatio = goerr.New("unsupported aspect ratio", goerr.T(TagValidation))
	ErrInvalidImageSize   = goerr.New("unsupported image size", goerr.T(TagValidation))
	ErrInvalidDataURL     = goerr.New("invalid data URL")
)
