package model

import (
	"encoding/base64"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	MIMETypePNG  = "image/png"
	MIMETypeJPEG = "image/jpeg"
	MIMETypeWebP = "image/webp"
	MIMETypeHEIC = "image/heic"
	MIMETypeHEIF = "image/heif"
)

// EditableMIMETypes lists the image types Gemini accepts as edit input
func EditableMIMETypes() []string {
	return []string{MIMETypePNG, MIMETypeJPEG, MIMETypeWebP, MIMETypeHEIC, MIMETypeHEIF}
}

// EncodeDataURL embeds data as a base64 data URL
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = MIMETypePNG
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL extracts the MIME type and raw bytes of a base64 data URL
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, goerr.Wrap(ErrInvalidDataURL, "missing data: scheme")
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, goerr.Wrap(ErrInvalidDataURL, "missing payload separator")
	}

	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, goerr.Wrap(ErrInvalidDataURL, "only base64 payload is supported", goerr.V("header", header))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to decode base64 payload")
	}
	return mimeType, data, nil
}

// DetectImageMIME guesses the MIME type of an image from its file name and
// falls back to sniffing the content.
func DetectImageMIME(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return MIMETypePNG
	case ".jpg", ".jpeg":
		return MIMETypeJPEG
	case ".webp":
		return MIMETypeWebP
	case ".heic":
		return MIMETypeHEIC
	case ".heif":
		return MIMETypeHEIF
	}
	return http.DetectContentType(data)
}

// IsEditableImage reports whether the MIME type can be sent for editing
func IsEditableImage(mimeType string) bool {
	for _, t := range EditableMIMETypes() {
		if mimeType == t {
			return true
		}
	}
	return false
}

// ImageExtension returns a file extension including the leading dot
func ImageExtension(mimeType string) string {
	switch mimeType {
	case MIMETypeJPEG:
		return ".jpg"
	case MIMETypeWebP:
		return ".webp"
	case MIMETypeHEIC:
		return ".heic"
	case MIMETypeHEIF:
		return ".heif"
	default:
		return ".png"
	}
}
