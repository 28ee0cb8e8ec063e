package redis

import (
	"fmt"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/sources"
)

// init registers the Redis source. Import this package with a blank identifier
// to read stops from Redis:
//
//	import _ "github.com/remiges-tech/stopsearch/sources/redis"
//
//nolint:gochecknoinits // init() is the idiomatic pattern for source registration
func init() {
	stopsearch.RegisterSource("redis", NewProvider)
}

// NewProvider creates a new Redis source from the given configuration.
// It implements SourceFactory and expects config to be of type redis.Config.
func NewProvider(config interface{}) (sources.Source, error) {
	redisConfig, ok := config.(Config)
	if !ok {
		return nil, fmt.Errorf("%w: expected redis.Config, got %T", stopsearch.ErrInvalidSourceConfig, config)
	}

	return New(redisConfig)
}
