package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type generateParams struct {
	Prompt      string `json:"prompt" jsonschema:"Text description of the image to generate"`
	Model       string `json:"model,omitempty" jsonschema:"Image model to use"`
	AspectRatio string `json:"aspect_ratio,omitempty" jsonschema:"Aspect ratio of the image"`
	ImageSize   string `json:"image_size,omitempty" jsonschema:"Size of the image (Imagen only)"`
}

type editParams struct {
	Prompt   string `json:"prompt" jsonschema:"Instruction describing the edit"`
	Image    string `json:"image" jsonschema:"Source image as base64 or a data URL (max 4MB)"`
	MIMEType string `json:"mime_type,omitempty" jsonschema:"MIME type of the source image when image is plain base64"`
}

type thinkParams struct {
	Prompt string `json:"prompt" jsonschema:"Question or task that needs extended reasoning"`
}

type historyIDParams struct {
	ID string `json:"id" jsonschema:"History record ID"`
}

type emptyParams struct{}

// Server exposes the studio operations as MCP tools
type Server struct {
	studio   *studio.UseCase
	defaults model.GenerateSettings
	server   *mcp.Server
}

// Option is a functional option for Server
type Option func(*Server)

// WithDefaults sets the settings used when a generate call omits them
func WithDefaults(settings model.GenerateSettings) Option {
	return func(s *Server) {
		s.defaults = settings
	}
}

// NewServer creates a new MCP server with all tools registered
func NewServer(uc *studio.UseCase, version string, opts ...Option) (*Server, error) {
	s := &Server{
		studio:   uc,
		defaults: model.DefaultGenerateSettings(),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "singhoo",
			Version: version,
		}, nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	genSchema, err := inputSchema[generateParams](generateEnums())
	if err != nil {
		return nil, err
	}
	editSchema, err := inputSchema[editParams](editEnums())
	if err != nil {
		return nil, err
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate one image from a text prompt and store it in the history",
		InputSchema: genSchema,
	}, s.generateImage)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "edit_image",
		Description: "Edit an image with a text instruction and store the result in the history",
		InputSchema: editSchema,
	}, s.editImage)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "think",
		Description: "Answer a complex question with extended reasoning",
	}, s.think)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_history",
		Description: "List stored image history, newest first",
	}, s.listHistory)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_history",
		Description: "Return the image and details of a history record",
	}, s.getHistory)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_history",
		Description: "Delete a history record",
	}, s.deleteHistory)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_history",
		Description: "Delete all history records",
	}, s.clearHistory)

	return s, nil
}

// Run serves MCP over the given transport until the client disconnects
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	if err := s.server.Run(ctx, transport); err != nil {
		return goerr.Wrap(err, "mcp server stopped")
	}
	return nil
}

// HTTPHandler serves MCP over streamable HTTP
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// failure turns a dispatcher error into a tool error result
func failure(ctx context.Context, tool string, err error) (*mcp.CallToolResult, any, error) {
	logging.From(ctx).Warn("tool call failed", "tool", tool, "error", err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: studio.Message(err)}},
	}, nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func imageContent(dataURL string) (*mcp.ImageContent, error) {
	mimeType, data, err := model.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return &mcp.ImageContent{Data: data, MIMEType: mimeType}, nil
}

func (s *Server) generateImage(ctx context.Context, req *mcp.CallToolRequest, params *generateParams) (*mcp.CallToolResult, any, error) {
	settings := s.defaults
	if params.Model != "" {
		settings.Model = model.ImageModel(params.Model)
	}
	if params.AspectRatio != "" {
		settings.AspectRatio = model.AspectRatio(params.AspectRatio)
	}
	if params.ImageSize != "" {
		settings.ImageSize = model.ImageSize(params.ImageSize)
	}

	out, err := s.studio.Generate(ctx, studio.GenerateInput{Prompt: params.Prompt, Settings: settings})
	if err != nil {
		return failure(ctx, "generate_image", err)
	}

	img, err := imageContent(out.ImageURL)
	if err != nil {
		return failure(ctx, "generate_image", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			img,
			&mcp.TextContent{Text: fmt.Sprintf("history id: %s", out.Record.Base().ID)},
		},
	}, nil, nil
}

func (s *Server) editImage(ctx context.Context, req *mcp.CallToolRequest, params *editParams) (*mcp.CallToolResult, any, error) {
	input := studio.EditInput{Prompt: params.Prompt, MIMEType: params.MIMEType}

	if strings.HasPrefix(params.Image, "data:") {
		mimeType, data, err := model.DecodeDataURL(params.Image)
		if err != nil {
			return failure(ctx, "edit_image", goerr.Wrap(err, "image is not a valid data URL", goerr.T(model.TagValidation)))
		}
		input.Image = data
		input.MIMEType = mimeType
	} else if params.Image != "" {
		data, err := base64.StdEncoding.DecodeString(params.Image)
		if err != nil {
			return failure(ctx, "edit_image", goerr.Wrap(err, "image is not valid base64", goerr.T(model.TagValidation)))
		}
		input.Image = data
	}

	out, err := s.studio.Edit(ctx, input)
	if err != nil {
		return failure(ctx, "edit_image", err)
	}

	img, err := imageContent(out.ImageURL)
	if err != nil {
		return failure(ctx, "edit_image", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			img,
			&mcp.TextContent{Text: fmt.Sprintf("history id: %s", out.Record.Base().ID)},
		},
	}, nil, nil
}

func (s *Server) think(ctx context.Context, req *mcp.CallToolRequest, params *thinkParams) (*mcp.CallToolResult, any, error) {
	text, err := s.studio.Think(ctx, params.Prompt)
	if err != nil {
		return failure(ctx, "think", err)
	}
	return textResult(text), nil, nil
}

func (s *Server) listHistory(ctx context.Context, req *mcp.CallToolRequest, params *emptyParams) (*mcp.CallToolResult, any, error) {
	records := s.studio.History().List()
	if len(records) == 0 {
		return textResult("No history records"), nil, nil
	}

	var b strings.Builder
	for _, r := range records {
		b.WriteString(Summary(r))
		b.WriteString("\n")
	}
	return textResult(b.String()), nil, nil
}

func (s *Server) getHistory(ctx context.Context, req *mcp.CallToolRequest, params *historyIDParams) (*mcp.CallToolResult, any, error) {
	rec, err := s.studio.History().Get(model.HistoryID(params.ID))
	if err != nil {
		return failure(ctx, "get_history", err)
	}

	img, err := imageContent(rec.Base().ImageURL)
	if err != nil {
		return failure(ctx, "get_history", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{img, &mcp.TextContent{Text: Summary(rec)}},
	}, nil, nil
}

func (s *Server) deleteHistory(ctx context.Context, req *mcp.CallToolRequest, params *historyIDParams) (*mcp.CallToolResult, any, error) {
	if !s.studio.History().Remove(ctx, model.HistoryID(params.ID)) {
		return textResult(fmt.Sprintf("history record %s not found", params.ID)), nil, nil
	}
	return textResult(fmt.Sprintf("deleted %s", params.ID)), nil, nil
}

func (s *Server) clearHistory(ctx context.Context, req *mcp.CallToolRequest, params *emptyParams) (*mcp.CallToolResult, any, error) {
	s.studio.History().Clear(ctx)
	return textResult("history cleared"), nil, nil
}

// Summary renders one line describing a record
func Summary(r model.Record) string {
	base := r.Base()
	ts := base.Timestamp.Format("2006-01-02 15:04:05")

	switch rec := r.(type) {
	case *model.GenerateRecord:
		return fmt.Sprintf("%s\t%s\tgenerate\t%s %s %s\t%s",
			base.ID, ts, rec.Settings.Model, rec.Settings.AspectRatio, rec.Settings.ImageSize, base.Prompt)
	case *model.EditRecord:
		return fmt.Sprintf("%s\t%s\tedit\t-\t%s", base.ID, ts, base.Prompt)
	default:
		return fmt.Sprintf("%s\t%s\tunknown\t-\t%s", base.ID, ts, base.Prompt)
	}
}
