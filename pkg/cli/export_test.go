package cli

import (
	"context"
	"io"

	"github.com/m-mizutani/singhoo/pkg/adapter"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/repository"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
)

var (
	RenderHistory    = renderHistory
	RenderRecord     = renderRecord
	RenderModels     = renderModels
	ReuseCommandLine = reuseCommandLine
)

// FlagSet marks flags as explicitly set
type FlagSet map[string]bool

func (f FlagSet) IsSet(name string) bool { return f[name] }

// ApplyConfig applies a YAML config file on top of the given history backend
func ApplyConfig(data []byte, set FlagSet, backend string) (model.GenerateSettings, string, error) {
	cfg := &config{historyBackend: backend, defaults: model.DefaultGenerateSettings()}
	err := cfg.apply(set, data)
	return cfg.defaults, cfg.historyBackend, err
}

func NewStore(ctx context.Context, backend, file string) (*repository.Store, func(), error) {
	cfg := &config{historyBackend: backend, historyFile: file}
	return cfg.newStore(ctx)
}

func NewGemini(ctx context.Context, apiKey string) (adapter.Gemini, error) {
	cfg := &config{geminiAPIKey: apiKey}
	return cfg.newGemini(ctx)
}

type Shell = shell

func NewShell(uc *studio.UseCase, w io.Writer) *Shell {
	return newShell(uc, model.DefaultGenerateSettings(), w, io.Discard)
}

func (s *shell) Handle(ctx context.Context, line string) bool { return s.handle(ctx, line) }
func (s *shell) Mode() string                                 { return string(s.mode) }
func (s *shell) Settings() model.GenerateSettings             { return s.settings }
func (s *shell) Prefill() string                              { return s.prefill }
