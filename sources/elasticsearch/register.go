package elasticsearch

import (
	"fmt"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/sources"
)

// init registers the Elasticsearch source. Import this package with a blank identifier
// to read stops from Elasticsearch:
//
//	import _ "github.com/remiges-tech/stopsearch/sources/elasticsearch"
//
//nolint:gochecknoinits // init() is the idiomatic pattern for source registration
func init() {
	stopsearch.RegisterSource("elasticsearch", NewProvider)
}

// NewProvider creates a new Elasticsearch source from the given configuration.
// It implements SourceFactory and expects config to be of type elasticsearch.Config.
func NewProvider(config interface{}) (sources.Source, error) {
	esConfig, ok := config.(Config)
	if !ok {
		return nil, fmt.Errorf("%w: expected elasticsearch.Config, got %T", stopsearch.ErrInvalidSourceConfig, config)
	}

	return New(&esConfig)
}
