package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kinship/internal/app"
	"kinship/internal/assistant"
	"kinship/internal/config"
	"kinship/internal/fixtures"
	"kinship/internal/logging"
	"kinship/internal/store"
	"kinship/internal/usage"
	"kinship/internal/ux"
)

// runtime is the wired application. Components are created in dependency
// order: config, logging, fixtures, preferences, usage, gateway, state and
// the optional transcript store.
type runtime struct {
	cfg       *config.Config
	sessionID string

	fixtures fixtures.Set
	watcher  *fixtures.Watcher

	prefs      *ux.PreferencesManager
	usage      *usage.Tracker
	gateway    *assistant.Gateway
	state      *app.State
	transcript *store.TranscriptStore
}

// bootOptions selects the optional parts of the runtime.
type bootOptions struct {
	watch      bool // Start the fixture watcher when configured
	transcript bool // Open the transcript store when enabled
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if timeout > 0 {
		cfg.LLM.Timeout = timeout.String()
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func bootstrap(ctx context.Context, opts bootOptions) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := logging.Initialize(cfg.DataDir, logging.Options{
		Enabled:    cfg.Logging.Enabled,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("kinship %s starting (data_dir=%s)", cfg.Version, cfg.DataDir)

	rt := &runtime{cfg: cfg, sessionID: uuid.NewString()}

	// Fixtures
	now := time.Now()
	rt.fixtures = fixtures.Default(now)
	if cfg.Fixtures.Path != "" {
		set, err := fixtures.Load(cfg.Fixtures.Path, now)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}
		rt.fixtures = set
		logging.Boot("fixtures loaded from %s: %d contacts, %d updates", cfg.Fixtures.Path, len(set.Contacts), len(set.Updates))
	}
	if opts.watch && cfg.Fixtures.Watch {
		w, err := fixtures.NewWatcher(cfg.Fixtures.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create fixture watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			w.Stop()
			return nil, fmt.Errorf("failed to watch fixtures: %w", err)
		}
		rt.watcher = w
	}

	// Preferences
	rt.prefs = ux.NewPreferencesManager(cfg.PreferencesPath())
	if err := rt.prefs.Load(); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	// Usage
	rt.usage, err = usage.NewTracker(cfg.DataDir)
	if err != nil {
		rt.Close()
		return nil, err
	}

	// Gateway
	gen, err := assistant.NewGenAIGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	switch {
	case errors.Is(err, assistant.ErrNoCredential):
		logging.BootWarn("no API key configured; replies will use fallbacks")
		rt.gateway = assistant.NewGateway(nil)
	case err != nil:
		logging.BootWarn("assistant unavailable: %v", err)
		rt.gateway = assistant.NewGateway(nil)
	default:
		rt.gateway = assistant.NewGateway(gen,
			assistant.WithUsage(rt.usage),
			assistant.WithTimeout(cfg.GetLLMTimeout()),
		)
		logging.Boot("assistant ready: model=%s", gen.Model())
	}

	// State
	rt.state = app.New(rt.fixtures.Contacts, rt.fixtures.Updates, rt.prefs)

	// Transcript
	if opts.transcript && cfg.Store.Enabled {
		ts, err := store.NewTranscriptStore(cfg.TranscriptPath())
		if err != nil {
			// Transcripts are a convenience; run without them.
			logging.BootWarn("transcript store unavailable: %v", err)
		} else {
			rt.transcript = ts
		}
	}

	return rt, nil
}

// callContext tags ctx for usage accounting from surface.
func (rt *runtime) callContext(ctx context.Context, surface string) context.Context {
	return usage.WithCallContext(usage.NewContext(ctx, rt.usage), surface, rt.sessionID)
}

// Close releases everything bootstrap opened.
func (rt *runtime) Close() {
	if rt.watcher != nil {
		rt.watcher.Stop()
	}
	if rt.usage != nil {
		if err := rt.usage.Close(); err != nil {
			logging.BootWarn("failed to flush usage: %v", err)
		}
	}
	if rt.transcript != nil {
		if err := rt.transcript.Close(); err != nil {
			logging.BootWarn("failed to close transcript store: %v", err)
		}
	}
	logging.Sync()
}
