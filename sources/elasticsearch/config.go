// Package elasticsearch implements the stop Source interface using Elasticsearch.
package elasticsearch

// Config holds Elasticsearch connection parameters and source-specific options.
type Config struct {
	// URLs is the list of Elasticsearch node URLs.
	URLs []string

	// Index is the name of the Elasticsearch index holding the stops.
	// Default: "stops".
	Index string

	// Username for basic authentication.
	Username string

	// Password for basic authentication.
	Password string

	// CloudID for connecting to Elastic Cloud.
	CloudID string

	// APIKey for API key authentication (alternative to username/password).
	APIKey string

	// RefreshPolicy controls when stored stops are visible to Load.
	// Options: "true" (immediate), "false" (default), "wait_for" (wait for next refresh).
	RefreshPolicy string

	// NumberOfShards configures the number of primary shards for the index.
	// This setting is ONLY used when the index is automatically created by the source.
	// If the index already exists, this setting is ignored.
	// Default: 1
	NumberOfShards int

	// NumberOfReplicas configures the number of replica shards.
	// This setting is ONLY used when the index is automatically created by the source.
	// Default: 0
	NumberOfReplicas int

	// BatchSize is the number of stops fetched per scroll page during Load.
	// Default: 1000
	BatchSize int
}

// setDefaults applies default values to config fields.
func (c *Config) setDefaults() {
	if c.Index == "" {
		c.Index = "stops"
	}
	if c.RefreshPolicy == "" {
		c.RefreshPolicy = "false"
	}
	if c.NumberOfShards == 0 {
		c.NumberOfShards = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
}
