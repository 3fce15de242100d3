package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/singhoo/pkg/model"
)

func TestDataURL(t *testing.T) {
	url := model.EncodeDataURL(model.MIMETypeJPEG, []byte("hello"))
	gt.Equal(t, url, "data:image/jpeg;base64,aGVsbG8=")

	mimeType, data, err := model.DecodeDataURL(url)
	gt.NoError(t, err)
	gt.Equal(t, mimeType, model.MIMETypeJPEG)
	gt.Equal(t, string(data), "hello")

	gt.Equal(t, model.EncodeDataURL("", nil), "data:image/png;base64,")
}

func TestDecodeDataURLInvalid(t *testing.T) {
	for _, s := range []string{
		"https://example.com/cat.png",
		"data:image/png;base64",
		"data:text/plain,hello",
		"data:image/png;base64,***",
	} {
		t.Run(s, func(t *testing.T) {
			_, _, err := model.DecodeDataURL(s)
			gt.Error(t, err)
		})
	}
}

func TestDetectImageMIME(t *testing.T) {
	gt.Equal(t, model.DetectImageMIME("photo.JPG", nil), model.MIMETypeJPEG)
	gt.Equal(t, model.DetectImageMIME("a.webp", nil), model.MIMETypeWebP)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	gt.Equal(t, model.DetectImageMIME("upload", png), model.MIMETypePNG)

	gt.True(t, model.IsEditableImage(model.MIMETypePNG))
	gt.True(t, model.IsEditableImage(model.MIMETypeHEIC))
	gt.True(t, model.IsEditableImage(model.MIMETypeHEIF))
	gt.False(t, model.IsEditableImage("image/gif"))
	gt.Equal(t, model.DetectImageMIME("IMG_0001.HEIC", nil), model.MIMETypeHEIC)
	gt.Equal(t, model.ImageExtension(model.MIMETypeHEIF), ".heif")
	gt.Equal(t, model.ImageExtension(model.MIMETypeJPEG), ".jpg")
	gt.Equal(t, model.ImageExtension("application/octet-stream"), ".png")
}
