package model_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/singhoo/pkg/model"
)

func TestGenerateSettingsValidate(t *testing.T) {
	testCases := []struct {
		name     string
		settings model.GenerateSettings
		valid    bool
	}{
		{"default", model.DefaultGenerateSettings(), true},
		{"flash image", model.GenerateSettings{Model: model.ImageModelFlashImage, AspectRatio: model.AspectRatio9x16, ImageSize: model.ImageSize2K}, true},
		{"unknown model", model.GenerateSettings{Model: "dall-e", AspectRatio: model.AspectRatio1x1, ImageSize: model.ImageSize1K}, false},
		{"unknown ratio", model.GenerateSettings{Model: model.ImageModelImagen, AspectRatio: "21:9", ImageSize: model.ImageSize1K}, false},
		{"unknown size", model.GenerateSettings{Model: model.ImageModelImagen, AspectRatio: model.AspectRatio1x1, ImageSize: "4K"}, false},
		{"flash image without size", model.GenerateSettings{Model: model.ImageModelFlashImage, AspectRatio: model.AspectRatio1x1}, true},
		{"flash image ignores size", model.GenerateSettings{Model: model.ImageModelFlashImage, AspectRatio: model.AspectRatio1x1, ImageSize: "4K"}, true},
		{"flash image bad ratio", model.GenerateSettings{Model: model.ImageModelFlashImage, AspectRatio: "2:1"}, false},
		{"imagen without size", model.GenerateSettings{Model: model.ImageModelImagen, AspectRatio: model.AspectRatio1x1}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.settings.Validate()
			if tc.valid {
				gt.NoError(t, err)
			} else {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, model.TagValidation))
			}
		})
	}
}

func TestModelCatalog(t *testing.T) {
	models := model.Models()
	gt.A(t, models).Length(2)

	imagen, err := model.LookupModel(model.ImageModelImagen)
	gt.NoError(t, err)
	gt.True(t, imagen.SupportsAspectRatio)
	gt.True(t, imagen.SupportsImageSize)

	flash, err := model.LookupModel(model.ImageModelFlashImage)
	gt.NoError(t, err)
	gt.True(t, flash.SupportsAspectRatio)
	gt.False(t, flash.SupportsImageSize)

	_, err = model.LookupModel("unknown")
	gt.Error(t, err)
}

func TestParse(t *testing.T) {
	m, err := model.ParseImageModel("imagen 4")
	gt.NoError(t, err)
	gt.Equal(t, m, model.ImageModelImagen)

	m, err = model.ParseImageModel("gemini-2.5-flash-image")
	gt.NoError(t, err)
	gt.Equal(t, m, model.ImageModelFlashImage)

	size, err := model.ParseImageSize("2k")
	gt.NoError(t, err)
	gt.Equal(t, size, model.ImageSize2K)

	ratio, err := model.ParseAspectRatio(" 3:4 ")
	gt.NoError(t, err)
	gt.Equal(t, ratio, model.AspectRatio3x4)

	_, err = model.ParseAspectRatio("2:1")
	gt.Error(t, err)
}
