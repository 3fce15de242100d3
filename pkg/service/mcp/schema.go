package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
)

// inputSchema infers the schema of T and restricts the named string
// properties to the given values.
func inputSchema[T any](enums map[string][]string) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer tool input schema")
	}

	for name, values := range enums {
		prop, ok := schema.Properties[name]
		if !ok {
			return nil, goerr.New("schema property not found", goerr.V("property", name))
		}
		prop.Enum = make([]any, len(values))
		for i, v := range values {
			prop.Enum[i] = v
		}
	}

	return schema, nil
}

func generateEnums() map[string][]string {
	models := make([]string, 0, len(model.Models()))
	for _, d := range model.Models() {
		models = append(models, string(d.ID))
	}

	ratios := make([]string, 0, len(model.AspectRatios()))
	for _, a := range model.AspectRatios() {
		ratios = append(ratios, string(a))
	}

	sizes := make([]string, 0, len(model.ImageSizes()))
	for _, s := range model.ImageSizes() {
		sizes = append(sizes, string(s))
	}

	return map[string][]string{
		"model":        models,
		"aspect_ratio": ratios,
		"image_size":   sizes,
	}
}

func editEnums() map[string][]string {
	return map[string][]string{
		"mime_type": model.EditableMIMETypes(),
	}
}
