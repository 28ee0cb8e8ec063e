package stopsearch

// defaultLimit is the default number of suggestions to return.
const defaultLimit = 10

// defaultMaxLimit is the maximum number of suggestions a caller may request.
const defaultMaxLimit = 30

// defaultMinQueryLength is the shortest trimmed query that is searched.
const defaultMinQueryLength = 2

// maxPrefixLength is the longest normalized prefix stored in the index.
const maxPrefixLength = 3

// Config holds configuration for the stop searcher.
type Config struct {
	// SourceConfig contains source-specific configuration.
	// Each source defines its own config struct type.
	SourceConfig interface{}

	// Options contains common search behavior settings.
	Options Options

	// Observer, if set, is told about every catalog load attempt.
	Observer Observer
}

// Options contains common search behavior settings.
// Use DefaultOptions() for default values.
type Options struct {
	// DefaultLimit is the number of suggestions when the caller gives no limit.
	DefaultLimit int

	// MaxLimit caps the number of suggestions. Larger limits are clamped,
	// not rejected.
	MaxLimit int

	// MinQueryLength is the minimum trimmed query length, in characters.
	// Shorter queries return an empty response without touching the catalog.
	// Default: 2.
	MinQueryLength int
}

// DefaultOptions returns the default search options.
func DefaultOptions() Options {
	return Options{
		DefaultLimit:   defaultLimit,
		MaxLimit:       defaultMaxLimit,
		MinQueryLength: defaultMinQueryLength,
	}
}

// NewConfig creates a new configuration with default options.
func NewConfig(sourceConfig interface{}) Config {
	return Config{
		SourceConfig: sourceConfig,
		Options:      DefaultOptions(),
	}
}

// NewConfigWithOptions creates a new configuration with custom options.
func NewConfigWithOptions(sourceConfig interface{}, options Options) Config {
	return Config{
		SourceConfig: sourceConfig,
		Options:      options,
	}
}

// withDefaults fills zero-valued fields so a partially populated Options
// still behaves sanely.
func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = defaultMaxLimit
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = defaultMinQueryLength
	}
	return o
}

// clampLimit maps a requested limit into [1, MaxLimit]. Zero means the caller
// gave no limit and yields DefaultLimit.
func (o Options) clampLimit(limit int) int {
	switch {
	case limit == 0:
		return o.DefaultLimit
	case limit < 1:
		return 1
	case limit > o.MaxLimit:
		return o.MaxLimit
	default:
		return limit
	}
}
