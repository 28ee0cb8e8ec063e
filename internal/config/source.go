package config

import (
	"github.com/remiges-tech/stopsearch/sources/elasticsearch"
	"github.com/remiges-tech/stopsearch/sources/file"
	"github.com/remiges-tech/stopsearch/sources/redis"
)

// Settings returns the source-specific config for the selected type, ready
// for stopsearch.New or stopsearch.OpenSource. Importing this package
// registers every source.
func (s SourceConfig) Settings() interface{} {
	switch s.Type {
	case "redis":
		return redis.Config{
			Addr:      s.Redis.Addr,
			Password:  s.Redis.Password,
			DB:        s.Redis.DB,
			Namespace: s.Redis.Namespace,
		}
	case "elasticsearch":
		return elasticsearch.Config{
			URLs:          s.Elasticsearch.URLs,
			Index:         s.Elasticsearch.Index,
			Username:      s.Elasticsearch.Username,
			Password:      s.Elasticsearch.Password,
			APIKey:        s.Elasticsearch.APIKey,
			RefreshPolicy: s.Elasticsearch.RefreshPolicy,
			BatchSize:     s.Elasticsearch.BatchSize,
		}
	default:
		return file.Config{
			Path:   s.File.Path,
			Format: s.File.Format,
		}
	}
}
