package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/singhoo/pkg/adapter"
	"github.com/m-mizutani/singhoo/pkg/model"
	"github.com/m-mizutani/singhoo/pkg/policy"
	"github.com/m-mizutani/singhoo/pkg/repository"
	"github.com/m-mizutani/singhoo/pkg/usecase/history"
	"github.com/m-mizutani/singhoo/pkg/usecase/studio"
	"github.com/m-mizutani/singhoo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

const (
	backendFile      = "file"
	backendGCS       = "gcs"
	backendFirestore = "firestore"
	backendMemory    = "memory"
)

// config holds configuration values
type config struct {
	logLevel   string
	configFile string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	policyDir      string

	// History
	historyBackend    string
	historyFile       string
	historyBucket     string
	historyPrefix     string
	project           string
	database          string
	historyCollection string
	credentials       string

	// Generate defaults, possibly overridden by the config file
	defaults model.GenerateSettings
}

// fileConfig is the layout of the optional YAML config file
type fileConfig struct {
	Defaults struct {
		Model       string `yaml:"model"`
		AspectRatio string `yaml:"aspect_ratio"`
		ImageSize   string `yaml:"image_size"`
	} `yaml:"defaults"`
	History struct {
		Backend    string `yaml:"backend"`
		File       string `yaml:"file"`
		Bucket     string `yaml:"bucket"`
		Prefix     string `yaml:"prefix"`
		Project    string `yaml:"project"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"history"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("SINGHOO_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file with defaults",
			Sources:     cli.EnvVars("SINGHOO_CONFIG"),
			Destination: &cfg.configFile,
		},
	}
}

// geminiFlags returns flags for the Gemini client and request policy with
// destination config
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY", "API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego policies that may deny requests",
			Sources:     cli.EnvVars("SINGHOO_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// historyFlags returns flags selecting where history is persisted
func historyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-backend",
			Usage:       "History backend (file, gcs, firestore, memory)",
			Value:       backendFile,
			Sources:     cli.EnvVars("SINGHOO_HISTORY_BACKEND"),
			Destination: &cfg.historyBackend,
		},
		&cli.StringFlag{
			Name:        "history-file",
			Usage:       "History file path for the file backend",
			Sources:     cli.EnvVars("SINGHOO_HISTORY_FILE"),
			Destination: &cfg.historyFile,
		},
		&cli.StringFlag{
			Name:        "history-bucket",
			Usage:       "Cloud Storage bucket for the gcs backend",
			Sources:     cli.EnvVars("SINGHOO_HISTORY_BUCKET"),
			Destination: &cfg.historyBucket,
		},
		&cli.StringFlag{
			Name:        "history-prefix",
			Usage:       "Object name prefix for the gcs backend",
			Sources:     cli.EnvVars("SINGHOO_HISTORY_PREFIX"),
			Destination: &cfg.historyPrefix,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for the firestore backend",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "history-collection",
			Usage:       "Firestore collection holding the history document",
			Value:       repository.DefaultCollection,
			Sources:     cli.EnvVars("SINGHOO_HISTORY_COLLECTION"),
			Destination: &cfg.historyCollection,
		},
		&cli.StringFlag{
			Name:        "google-credentials",
			Usage:       "Service account key file for Cloud Storage and Firestore",
			Sources:     cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Destination: &cfg.credentials,
		},
	}
}

// setup installs the logger and applies the config file. Explicitly set
// flags take priority over file values.
func (cfg *config) setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	ctx = logging.With(ctx, logger)

	cfg.defaults = model.DefaultGenerateSettings()
	if cfg.configFile == "" {
		return ctx, nil
	}

	data, err := os.ReadFile(cfg.configFile)
	if err != nil {
		return ctx, goerr.Wrap(err, "failed to read config file",
			goerr.V("path", cfg.configFile), goerr.T(model.TagConfig))
	}
	if err := cfg.apply(c, data); err != nil {
		return ctx, err
	}

	logger.Debug("config file loaded", "path", cfg.configFile)
	return ctx, nil
}

// flagChecker reports whether a flag was given on the command line or
// through its environment variable
type flagChecker interface {
	IsSet(name string) bool
}

func (cfg *config) apply(c flagChecker, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file",
			goerr.V("path", cfg.configFile), goerr.T(model.TagConfig))
	}

	if fc.Defaults.Model != "" {
		m, err := model.ParseImageModel(fc.Defaults.Model)
		if err != nil {
			return goerr.Wrap(err, "invalid default model in config file", goerr.T(model.TagConfig))
		}
		cfg.defaults.Model = m
	}
	if fc.Defaults.AspectRatio != "" {
		a, err := model.ParseAspectRatio(fc.Defaults.AspectRatio)
		if err != nil {
			return goerr.Wrap(err, "invalid default aspect ratio in config file", goerr.T(model.TagConfig))
		}
		cfg.defaults.AspectRatio = a
	}
	if fc.Defaults.ImageSize != "" {
		s, err := model.ParseImageSize(fc.Defaults.ImageSize)
		if err != nil {
			return goerr.Wrap(err, "invalid default image size in config file", goerr.T(model.TagConfig))
		}
		cfg.defaults.ImageSize = s
	}

	fill := func(flag string, dst *string, value string) {
		if value != "" && !c.IsSet(flag) {
			*dst = value
		}
	}
	fill("history-backend", &cfg.historyBackend, fc.History.Backend)
	fill("history-file", &cfg.historyFile, fc.History.File)
	fill("history-bucket", &cfg.historyBucket, fc.History.Bucket)
	fill("history-prefix", &cfg.historyPrefix, fc.History.Prefix)
	fill("project", &cfg.project, fc.History.Project)
	fill("database", &cfg.database, fc.History.Database)
	fill("history-collection", &cfg.historyCollection, fc.History.Collection)

	return nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	gemini, err := adapter.NewGemini(ctx, adapter.GeminiConfig{
		APIKey:   cfg.geminiAPIKey,
		Project:  cfg.geminiProject,
		Location: cfg.geminiLocation,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "set --gemini-api-key (GEMINI_API_KEY) or --gemini-project")
	}
	return gemini, nil
}

// newGuard loads the request policies, if any
func (cfg *config) newGuard(ctx context.Context) (*policy.Guard, error) {
	return policy.New(ctx, cfg.policyDir)
}

func (cfg *config) clientOptions() []option.ClientOption {
	if cfg.credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.credentials)}
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.historyBucket == "" {
		return nil, goerr.New("history-bucket is required for the gcs backend", goerr.T(model.TagConfig))
	}

	storage, err := adapter.NewStorage(ctx, cfg.historyBucket, cfg.clientOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.T(model.TagConfig))
	}
	return storage, nil
}

// newFirestore creates the Firestore history slot
func (cfg *config) newFirestore(ctx context.Context) (*repository.FirestoreSlot, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required for the firestore backend", goerr.T(model.TagConfig))
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required for the firestore backend", goerr.T(model.TagConfig))
	}

	slot, err := repository.NewFirestore(ctx, cfg.project, cfg.database, cfg.historyCollection, cfg.clientOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore slot", goerr.T(model.TagConfig))
	}
	return slot, nil
}

// newStore creates the history store for the selected backend. The returned
// function releases backend resources.
func (cfg *config) newStore(ctx context.Context) (*repository.Store, func(), error) {
	noop := func() {}

	switch cfg.historyBackend {
	case backendFile, "":
		path := cfg.historyFile
		if path == "" {
			p, err := repository.DefaultFilePath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		logging.From(ctx).Debug("using file history", "path", path)
		return repository.New(repository.NewFileSlot(path)), noop, nil

	case backendGCS:
		storage, err := cfg.newStorage(ctx)
		if err != nil {
			return nil, noop, err
		}
		return repository.New(repository.NewBucketSlot(storage, cfg.historyPrefix)), noop, nil

	case backendFirestore:
		slot, err := cfg.newFirestore(ctx)
		if err != nil {
			return nil, noop, err
		}
		closer := func() {
			if err := slot.Close(); err != nil {
				logging.From(ctx).Warn("failed to close firestore client", "error", err)
			}
		}
		return repository.New(slot), closer, nil

	case backendMemory:
		return repository.New(repository.NewMemorySlot()), noop, nil

	default:
		return nil, noop, goerr.New("unknown history backend",
			goerr.V("backend", cfg.historyBackend), goerr.T(model.TagConfig))
	}
}

// newManager loads the history once from the configured backend
func (cfg *config) newManager(ctx context.Context) (*history.Manager, func(), error) {
	store, closer, err := cfg.newStore(ctx)
	if err != nil {
		return nil, closer, err
	}
	return history.New(ctx, store), closer, nil
}

// newUseCase wires the Gemini client and the history manager
func (cfg *config) newUseCase(ctx context.Context) (*studio.UseCase, func(), error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	guard, err := cfg.newGuard(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	hist, closer, err := cfg.newManager(ctx)
	if err != nil {
		return nil, closer, err
	}

	return studio.New(gemini, hist, studio.WithGuard(guard)), closer, nil
}
