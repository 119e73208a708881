package driven

// ConfigStore provides typed access to application settings: embedding
// provider, vector backend, chunker sizes, classifier rules.
//
// Keys use dot notation (e.g. "embedding.ollama.model"). The typed
// accessors return the zero value when a key is absent or holds a
// different type; callers treat the zero value as "use the default".
type ConfigStore interface {
	// Get retrieves a raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value.
	GetString(key string) string

	// GetInt retrieves an integer value.
	GetInt(key string) int

	// GetFloat retrieves a floating-point value. Integer-typed values
	// are converted.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value.
	GetBool(key string) bool

	// GetStringSlice retrieves a list of strings.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the backing file path.
	Path() string
}
