package policy

import (
	"context"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// query selects the request package. Policies write denial messages into
// its deny set:
//
//	package request
//
//	deny contains "portraits are not allowed" if {
//		input.kind == "generate"
//		contains(lower(input.prompt), "portrait")
//	}
const query = "data.request"

type Kind string

const (
	KindGenerate Kind = "generate"
	KindEdit     Kind = "edit"
	KindThink    Kind = "think"
)

// Request is the policy input describing one dispatch
type Request struct {
	Kind     Kind                    `json:"kind"`
	Prompt   string                  `json:"prompt"`
	Settings *model.GenerateSettings `json:"settings,omitempty"`
	Image    *Image                  `json:"image,omitempty"`
}

type Image struct {
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// printHook forwards Rego print() output to the logger
type printHook struct {
	ctx context.Context
}

func (h *printHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Guard evaluates request policies before a request leaves the process
type Guard struct {
	prepared *rego.PreparedEvalQuery
}

// New loads the policies in policyDir. An empty policyDir or a directory
// without .rego files yields a guard that allows everything.
func New(ctx context.Context, policyDir string) (*Guard, error) {
	if policyDir == "" {
		return &Guard{}, nil
	}

	prepared, err := loadPolicy(ctx, policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load request policy", goerr.V("dir", policyDir), goerr.T(model.TagConfig))
	}
	return &Guard{prepared: prepared}, nil
}

// Check returns a validation error carrying the denial messages when a
// policy denies req
func (g *Guard) Check(ctx context.Context, req Request) error {
	if g == nil || g.prepared == nil {
		return nil
	}

	rs, err := g.prepared.Eval(ctx, rego.EvalInput(toInput(req)), rego.EvalPrintHook(&printHook{ctx: ctx}))
	if err != nil {
		return goerr.Wrap(err, "failed to evaluate request policy", goerr.V("kind", req.Kind))
	}

	reasons := denials(rs)
	if len(reasons) == 0 {
		return nil
	}

	logging.From(ctx).Info("request denied by policy", "kind", req.Kind, "reasons", reasons)
	return goerr.New(strings.Join(reasons, " "),
		goerr.V("kind", req.Kind), goerr.T(model.TagValidation))
}

func toInput(req Request) map[string]any {
	input := map[string]any{
		"kind":   string(req.Kind),
		"prompt": req.Prompt,
	}
	if req.Settings != nil {
		input["settings"] = map[string]any{
			"model":        string(req.Settings.Model),
			"aspect_ratio": string(req.Settings.AspectRatio),
			"image_size":   string(req.Settings.ImageSize),
		}
	}
	if req.Image != nil {
		input["image"] = map[string]any{
			"mime_type": req.Image.MIMEType,
			"size":      req.Image.Size,
		}
	}
	return input
}

func denials(rs rego.ResultSet) []string {
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil
	}
	deny, ok := data["deny"].([]any)
	if !ok {
		return nil
	}

	reasons := make([]string, 0, len(deny))
	for _, d := range deny {
		if s, ok := d.(string); ok && s != "" {
			reasons = append(reasons, s)
		}
	}
	sort.Strings(reasons)
	return reasons
}
