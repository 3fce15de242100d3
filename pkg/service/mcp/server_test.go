package mcp_test

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/repository"
	"github.com/m-mizutani/singhoo/pkg/service/mcp"
	"github.com/m-mizutani/singhoo/pkg/usecase/history"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genai"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

// mockGemini answers think calls with text and image calls with pngBytes
type mockGemini struct{}

func (m *mockGemini) GenerateContent(ctx context.Context, modelID string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	part := &genai.Part{InlineData: &genai.Blob{MIMEType: model.MIMETypePNG, Data: pngBytes}}
	if modelID == model.ThinkModel {
		part = &genai.Part{Text: "forty-two"}
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{part}}},
		},
	}, nil
}

func (m *mockGemini) GenerateImages(ctx context.Context, modelID, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{Image: &genai.Image{ImageBytes: pngBytes, MIMEType: model.MIMETypePNG}},
		},
	}, nil
}

func setupSession(t *testing.T) (*mcpsdk.ClientSession, *history.Manager) {
	t.Helper()
	ctx := context.Background()

	hist := history.New(ctx, repository.New(repository.NewMemorySlot()))
	srv, err := mcp.NewServer(studio.New(&mockGemini{}, hist), "test")
	gt.NoError(t, err)

	testServer := httptest.NewServer(srv.HTTPHandler())
	t.Cleanup(testServer.Close)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: testServer.URL}, nil)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session, hist
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	gt.NoError(t, err)
	gt.V(t, result).NotNil()
	return result
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if text, ok := c.(*mcpsdk.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

func TestServerListTools(t *testing.T) {
	session, _ := setupSession(t)

	tools, err := session.ListTools(context.Background(), nil)
	gt.NoError(t, err)

	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	gt.Equal(t, len(names), 7)
	for _, name := range []string{
		"generate_image", "edit_image", "think",
		"list_history", "get_history", "delete_history", "clear_history",
	} {
		gt.True(t, names[name])
	}
}

func TestServerGenerateImage(t *testing.T) {
	session, hist := setupSession(t)

	result := callTool(t, session, "generate_image", map[string]any{
		"prompt":       "a red fox",
		"aspect_ratio": "1:1",
	})
	gt.False(t, result.IsError)
	gt.A(t, result.Content).Length(2)

	img, ok := result.Content[0].(*mcpsdk.ImageContent)
	gt.True(t, ok)
	gt.Equal(t, img.MIMEType, model.MIMETypePNG)
	gt.Equal(t, img.Data, pngBytes)

	records := hist.List()
	gt.A(t, records).Length(1)
	gt.S(t, resultText(t, result)).Contains(string(records[0].Base().ID))

	rec, ok := records[0].(*model.GenerateRecord)
	gt.True(t, ok)
	gt.Equal(t, rec.Settings.AspectRatio, model.AspectRatio1x1)
	gt.Equal(t, rec.Settings.Model, model.DefaultImageModel)
}

func TestServerGenerateImageEmptyPrompt(t *testing.T) {
	session, hist := setupSession(t)

	result := callTool(t, session, "generate_image", map[string]any{"prompt": "  "})
	gt.True(t, result.IsError)
	gt.Equal(t, resultText(t, result), "Please enter a prompt to generate an image.")
	gt.Equal(t, hist.Len(), 0)
}

func TestServerEditImage(t *testing.T) {
	session, hist := setupSession(t)

	t.Run("data URL", func(t *testing.T) {
		result := callTool(t, session, "edit_image", map[string]any{
			"prompt": "make it blue",
			"image":  model.EncodeDataURL(model.MIMETypePNG, pngBytes),
		})
		gt.False(t, result.IsError)
		gt.Equal(t, hist.Len(), 1)
		_, ok := hist.List()[0].(*model.EditRecord)
		gt.True(t, ok)
	})

	t.Run("plain base64 with mime type", func(t *testing.T) {
		result := callTool(t, session, "edit_image", map[string]any{
			"prompt":    "make it green",
			"image":     base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xffjpeg")),
			"mime_type": model.MIMETypeJPEG,
		})
		gt.False(t, result.IsError)
	})

	t.Run("missing image", func(t *testing.T) {
		result := callTool(t, session, "edit_image", map[string]any{"prompt": "x", "image": ""})
		gt.True(t, result.IsError)
		gt.Equal(t, resultText(t, result), "Please upload an image to edit.")
	})

	t.Run("broken base64", func(t *testing.T) {
		result := callTool(t, session, "edit_image", map[string]any{"prompt": "x", "image": "!!!not base64"})
		gt.True(t, result.IsError)
	})
}

func TestServerThink(t *testing.T) {
	session, hist := setupSession(t)

	result := callTool(t, session, "think", map[string]any{"prompt": "meaning of life"})
	gt.False(t, result.IsError)
	gt.Equal(t, resultText(t, result), "forty-two")
	gt.Equal(t, hist.Len(), 0)
}

func TestServerHistoryTools(t *testing.T) {
	session, hist := setupSession(t)

	empty := callTool(t, session, "list_history", map[string]any{})
	gt.Equal(t, resultText(t, empty), "No history records")

	callTool(t, session, "generate_image", map[string]any{"prompt": "first"})
	gt.Equal(t, hist.Len(), 1)
	id := string(hist.List()[0].Base().ID)

	listed := callTool(t, session, "list_history", map[string]any{})
	gt.S(t, resultText(t, listed)).Contains(id)
	gt.S(t, resultText(t, listed)).Contains("first")

	got := callTool(t, session, "get_history", map[string]any{"id": id})
	gt.False(t, got.IsError)
	_, ok := got.Content[0].(*mcpsdk.ImageContent)
	gt.True(t, ok)

	missing := callTool(t, session, "get_history", map[string]any{"id": "nope"})
	gt.True(t, missing.IsError)

	notDeleted := callTool(t, session, "delete_history", map[string]any{"id": "nope"})
	gt.True(t, strings.Contains(resultText(t, notDeleted), "not found"))
	gt.Equal(t, hist.Len(), 1)

	deleted := callTool(t, session, "delete_history", map[string]any{"id": id})
	gt.S(t, resultText(t, deleted)).Contains("deleted")
	gt.Equal(t, hist.Len(), 0)

	callTool(t, session, "generate_image", map[string]any{"prompt": "second"})
	cleared := callTool(t, session, "clear_history", map[string]any{})
	gt.Equal(t, resultText(t, cleared), "history cleared")
	gt.Equal(t, hist.Len(), 0)
}

func TestSummary(t *testing.T) {
	rec := &model.EditRecord{
		RecordBase: model.RecordBase{ID: "abc", Prompt: "tweak"},
	}
	line := mcp.Summary(rec)
	gt.S(t, line).Contains("abc")
	gt.S(t, line).Contains("edit")
	gt.S(t, line).Contains("tweak")
}
