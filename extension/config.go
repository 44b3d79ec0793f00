package extension

// Config holds the book ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bookledger" or "bookledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DefaultPageLimit is the List page size used when the caller gives
	// none (default: 10).
	DefaultPageLimit uint32 `json:"default_page_limit" mapstructure:"default_page_limit" yaml:"default_page_limit"`

	// MaxPageLimit is the largest page a caller may request (default: 30).
	MaxPageLimit uint32 `json:"max_page_limit" mapstructure:"max_page_limit" yaml:"max_page_limit"`

	// MaxEntryID caps issued identities. Zero leaves only the store's own cap.
	MaxEntryID uint64 `json:"max_entry_id" mapstructure:"max_entry_id" yaml:"max_entry_id"`

	// PebblePath, when set and no store was given programmatically, opens a
	// Pebble store at this directory instead of the in-memory store.
	PebblePath string `json:"pebble_path" mapstructure:"pebble_path" yaml:"pebble_path"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPageLimit: 10,
		MaxPageLimit:     30,
	}
}
