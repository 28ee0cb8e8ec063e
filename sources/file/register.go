package file

import (
	"fmt"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/sources"
)

// init registers the file source. Import this package with a blank identifier
// to read stops from a local dataset:
//
//	import _ "github.com/remiges-tech/stopsearch/sources/file"
//
//nolint:gochecknoinits // init() is the idiomatic pattern for source registration
func init() {
	stopsearch.RegisterSource("file", NewSource)
}

// NewSource creates a new file source from the given configuration.
// It implements SourceFactory and expects config to be of type file.Config.
func NewSource(config interface{}) (sources.Source, error) {
	fileConfig, ok := config.(Config)
	if !ok {
		return nil, fmt.Errorf("%w: expected file.Config, got %T", stopsearch.ErrInvalidSourceConfig, config)
	}

	return New(fileConfig)
}
