// Package stopsearch provides autocomplete over public-transit stop names,
// served from an in-memory prefix index.
//
// The package separates search logic from where the stop dataset lives
// through a source interface, so a local file, Redis or Elasticsearch can
// supply the stops interchangeably. Sources self-register during package
// initialization.
//
// Basic usage:
//
//	import (
//		"github.com/remiges-tech/stopsearch"
//		"github.com/remiges-tech/stopsearch/sources/file"
//	)
//
//	config := stopsearch.NewConfig(file.Config{Path: "stops.json"})
//	s, err := stopsearch.New("file", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//
//	// The dataset is read on the first query and kept for the process lifetime.
//	resp, err := s.Suggest(ctx, "nám", 10)
//
// A query shorter than two characters returns no suggestions and no total.
// Matching ignores case, diacritics and repeated whitespace. Results rank
// exact name matches first, then names starting with the query, then shorter
// names.
package stopsearch

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/remiges-tech/stopsearch/sources"
)

// Suggestion is a single stop returned from a query.
type Suggestion struct {
	StopID string  `json:"stopId"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// Response is the outcome of a successful query.
type Response struct {
	// Suggestions holds at most the clamped limit of ranked stops. Never nil.
	Suggestions []Suggestion `json:"suggestions"`

	// TotalFound is the number of matching stops before truncation.
	// It is nil when the query was too short to be searched.
	TotalFound *int `json:"totalFound,omitempty"`
}

// Stats describes the loaded catalog.
type Stats struct {
	Loaded        bool `json:"loaded"`
	Stops         int  `json:"stops"`
	PrefixBuckets int  `json:"prefixBuckets"`
}

// Searcher defines the interface for stop autocomplete.
// All methods are safe for concurrent use.
type Searcher interface {
	// Suggest returns the stops whose normalized name contains the normalized
	// query. limit is clamped to [1, MaxLimit]; 0 selects DefaultLimit.
	// A too-short query or a query with no matches is a successful, empty
	// Response. An error wrapping ErrDataUnavailable means the stop dataset
	// could not be loaded.
	Suggest(ctx context.Context, query string, limit int) (*Response, error)

	// Warm loads the catalog now instead of on the first Suggest.
	Warm(ctx context.Context) error

	// Stats reports catalog size. It never triggers a load.
	Stats() Stats

	// Close closes the stop source and releases resources.
	// It is safe to call multiple times.
	Close() error
}

// searcherImpl is the default implementation of Searcher.
type searcherImpl struct {
	source  sources.Source
	cache   *Cache
	options Options
}

// Suggest searches the catalog for stops matching query.
// See Searcher.Suggest for details.
func (s *searcherImpl) Suggest(ctx context.Context, query string, limit int) (*Response, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.options.MinQueryLength {
		return &Response{Suggestions: []Suggestion{}}, nil
	}

	catalog, index, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	suggestions, total := search(catalog, index, Normalize(query), s.options.clampLimit(limit))
	return &Response{
		Suggestions: suggestions,
		TotalFound:  &total,
	}, nil
}

// Warm loads the catalog eagerly.
// See Searcher.Warm for details.
func (s *searcherImpl) Warm(ctx context.Context) error {
	_, _, err := s.cache.Load(ctx)
	return err
}

// Stats reports catalog size.
// See Searcher.Stats for details.
func (s *searcherImpl) Stats() Stats {
	snap := s.cache.snapshot.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{
		Loaded:        true,
		Stops:         snap.catalog.Len(),
		PrefixBuckets: len(snap.index),
	}
}

// Close closes the stop source.
// See Searcher.Close for details.
func (s *searcherImpl) Close() error {
	return s.source.Close()
}

// New creates a new Searcher backed by the named source.
// The sourceType must be registered (case-insensitive). Config contains
// both source-specific settings and common options.
// Returns ErrSourceNotFound if the source is not registered.
//
// Example:
//
//	import _ "github.com/remiges-tech/stopsearch/sources/redis"
//
//	config := stopsearch.NewConfig(redis.Config{Addr: "localhost:6379"})
//	s, err := stopsearch.New("redis", config)
//
//nolint:gocritic // hugeParam: Config is only copied once at startup
func New(sourceType string, config Config) (Searcher, error) {
	source, err := OpenSource(sourceType, config.SourceConfig)
	if err != nil {
		return nil, err
	}

	return NewWithSource(source, config.Options, config.Observer), nil
}

// NewWithSource creates a Searcher over an already constructed source.
// observer may be nil.
func NewWithSource(source sources.Source, options Options, observer Observer) Searcher {
	return &searcherImpl{
		source:  source,
		cache:   NewCache(source, observer),
		options: options.withDefaults(),
	}
}

// SourceFactory creates a Source from a configuration.
// The factory must type-assert the config parameter to its expected type.
type SourceFactory func(config interface{}) (sources.Source, error)

// sourceFactories holds the registered source factories.
var sourceFactories = make(map[string]SourceFactory)

// RegisterSource registers a stop source factory.
// Typically called from a source package's init() function. The name is
// case-insensitive. Registering with an existing name overwrites it.
//
// Example:
//
//	package mysource
//
//	func init() {
//	    stopsearch.RegisterSource("mysource", NewSource)
//	}
//
// Not safe to call concurrently with New; register during init().
func RegisterSource(name string, factory SourceFactory) {
	sourceFactories[strings.ToLower(name)] = factory
}

// OpenSource builds the named source without wrapping it in a Searcher,
// e.g. to write a dataset into it when it also implements sources.Store.
func OpenSource(sourceType string, sourceConfig interface{}) (sources.Source, error) {
	factory, exists := sourceFactories[strings.ToLower(sourceType)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceType)
	}
	return factory(sourceConfig)
}
