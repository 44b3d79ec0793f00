// Package extension provides the Forge extension adapter for the book ledger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.bookledger" or
// "bookledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bookledger"
	"github.com/xraph/bookledger/store"
	"github.com/xraph/bookledger/store/memory"
	"github.com/xraph/bookledger/store/pebble"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bookledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Deterministic book entry ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the book ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *bookledger.Ledger
	store      store.Store
	ledgerOpts []bookledger.Option
}

// New creates a new book ledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *bookledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(); err != nil {
		return err
	}

	e.engine = bookledger.New(e.store, e.buildLedgerOpts()...)

	return vessel.Provide(fapp.Container(), func() (*bookledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bookledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("bookledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the programmatic store, then a configured Pebble
// directory, then the in-memory store.
func (e *Extension) resolveStore() error {
	if e.store != nil {
		return nil
	}

	if e.config.PebblePath != "" {
		s, err := pebble.Open(e.config.PebblePath)
		if err != nil {
			return fmt.Errorf("bookledger: open pebble store: %w", err)
		}
		e.store = s
		return nil
	}

	e.store = memory.New()
	return nil
}

// buildLedgerOpts constructs bookledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []bookledger.Option {
	opts := make([]bookledger.Option, 0, len(e.ledgerOpts)+3)

	opts = append(opts,
		bookledger.WithPageLimits(e.config.DefaultPageLimit, e.config.MaxPageLimit),
		bookledger.WithMigrateOnStart(!e.config.DisableMigrate),
	)

	if e.config.MaxEntryID > 0 {
		opts = append(opts, bookledger.WithMaxEntryID(e.config.MaxEntryID))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bookledger: configuration is required but not found in config files; " +
				"ensure 'extensions.bookledger' or 'bookledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("bookledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("default_page_limit", e.config.DefaultPageLimit),
		forge.F("max_page_limit", e.config.MaxPageLimit),
		forge.F("max_entry_id", e.config.MaxEntryID),
		forge.F("pebble_path", e.config.PebblePath),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.bookledger" first (namespaced pattern).
	if cm.IsSet("extensions.bookledger") {
		if err := cm.Bind("extensions.bookledger", &cfg); err == nil {
			e.Logger().Debug("bookledger: loaded config from file",
				forge.F("key", "extensions.bookledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("bookledger: failed to bind extensions.bookledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "bookledger" key.
	if cm.IsSet("bookledger") {
		if err := cm.Bind("bookledger", &cfg); err == nil {
			e.Logger().Debug("bookledger: loaded config from file",
				forge.F("key", "bookledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("bookledger: failed to bind bookledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.DefaultPageLimit == 0 {
		cfg.DefaultPageLimit = defaults.DefaultPageLimit
	}
	if cfg.MaxPageLimit == 0 {
		cfg.MaxPageLimit = defaults.MaxPageLimit
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.PebblePath == "" && programmaticConfig.PebblePath != "" {
		yamlConfig.PebblePath = programmaticConfig.PebblePath
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.DefaultPageLimit == 0 && programmaticConfig.DefaultPageLimit != 0 {
		yamlConfig.DefaultPageLimit = programmaticConfig.DefaultPageLimit
	}
	if yamlConfig.MaxPageLimit == 0 && programmaticConfig.MaxPageLimit != 0 {
		yamlConfig.MaxPageLimit = programmaticConfig.MaxPageLimit
	}
	if yamlConfig.MaxEntryID == 0 && programmaticConfig.MaxEntryID != 0 {
		yamlConfig.MaxEntryID = programmaticConfig.MaxEntryID
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
