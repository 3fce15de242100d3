package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"google.golang.org/genai"
)

// Gemini is the external AI collaborator. Model names are passed per call
// because generation, editing and reasoning each use a different model.
type Gemini interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// GeminiConfig selects the backend. APIKey uses the Gemini Developer API;
// Project and Location use Vertex AI.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
}

type GeminiClient struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	var clientConfig *genai.ClientConfig
	switch {
	case cfg.APIKey != "":
		clientConfig = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	case cfg.Project != "" && cfg.Location != "":
		clientConfig = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	default:
		return nil, goerr.New("API key or Vertex AI project/location is required", goerr.T(model.TagConfig))
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.T(model.TagConfig))
	}

	return &GeminiClient{client: client}, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", model))
	}
	return resp, nil
}

func (g *GeminiClient) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	resp, err := g.client.Models.GenerateImages(ctx, model, prompt, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate images", goerr.V("model", model))
	}
	return resp, nil
}
