package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/remiges-tech/stopsearch/sources"
)

const (
	// scrollKeepAlive is how long a scroll context lives between pages.
	scrollKeepAlive = time.Minute

	// indexMappingTemplate is the Elasticsearch index mapping for stops.
	indexMappingTemplate = `{
		"settings": {
			"number_of_shards": %d,
			"number_of_replicas": %d
		},
		"mappings": {
			"properties": {
				"id": {"type": "keyword"},
				"name": {
					"type": "text",
					"fields": {
						"keyword": {"type": "keyword"}
					}
				},
				"lat": {"type": "double"},
				"lon": {"type": "double"},
				"seq": {"type": "long"}
			}
		}
	}`
)

var errClosed = errors.New("elasticsearch source is closed")

// Provider implements the stop Source interface using Elasticsearch.
type Provider struct {
	client        *elasticsearch.Client
	index         string
	refreshPolicy string
	batchSize     int
	shards        int
	replicas      int
	closed        atomic.Bool

	// mu guards ready. The index is checked and created on first use, and
	// again after a failed attempt.
	mu    sync.Mutex
	ready bool
}

// document represents the structure stored in Elasticsearch. Seq records
// insertion order so Load returns stops in the order they were stored.
type document struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Seq  int64   `json:"seq"`
}

// searchResponse represents a search or scroll page.
type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// New creates a new Elasticsearch source with the given configuration.
// The cluster is not contacted until the first Load, Store or DeleteAll, so
// an unreachable cluster surfaces as a failed load that a later call retries.
func New(config *Config) (*Provider, error) {
	config.setDefaults()

	// Build Elasticsearch configuration
	esConfig := elasticsearch.Config{
		Addresses: config.URLs,
		Username:  config.Username,
		Password:  config.Password,
		CloudID:   config.CloudID,
		APIKey:    config.APIKey,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Provider{
		client:        client,
		index:         config.Index,
		refreshPolicy: config.RefreshPolicy,
		batchSize:     config.BatchSize,
		shards:        config.NumberOfShards,
		replicas:      config.NumberOfReplicas,
	}, nil
}

// ensureIndex verifies the connection and creates the index with its mapping
// if it does not exist yet. Success is remembered; failure is not.
func (p *Provider) ensureIndex(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return nil
	}

	res, err := p.client.Info(p.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("Elasticsearch connection error: %s", res.String())
	}

	if err := p.createIndexIfNotExists(ctx); err != nil {
		return err
	}
	p.ready = true
	return nil
}

// createIndexIfNotExists creates the index with appropriate mappings if it doesn't exist.
func (p *Provider) createIndexIfNotExists(ctx context.Context) error {
	exists, err := p.indexExists(ctx)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	mapping := fmt.Sprintf(indexMappingTemplate, p.shards, p.replicas)

	req := esapi.IndicesCreateRequest{
		Index: p.index,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("failed to create index: %s", res.String())
	}

	return nil
}

// indexExists checks if the index exists.
func (p *Provider) indexExists(ctx context.Context) (bool, error) {
	req := esapi.IndicesExistsRequest{
		Index: []string{p.index},
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return false, err
	}
	defer func() { _ = res.Body.Close() }()

	const httpOK = 200
	return res.StatusCode == httpOK, nil
}

// Load scrolls through the whole index and returns the stops in the order
// they were stored.
func (p *Provider) Load(ctx context.Context) ([]sources.Record, error) {
	if p.closed.Load() {
		return nil, errClosed
	}
	if err := p.ensureIndex(ctx); err != nil {
		return nil, err
	}
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"sort": []interface{}{
			map[string]interface{}{"seq": "asc"},
			map[string]interface{}{"id": "asc"},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	size := p.batchSize
	req := esapi.SearchRequest{
		Index:  []string{p.index},
		Body:   &buf,
		Size:   &size,
		Scroll: scrollKeepAlive,
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	page, err := parseSearchResponse(res)
	if err != nil {
		return nil, err
	}

	var records []sources.Record
	scrollID := page.ScrollID
	defer func() { p.clearScroll(scrollID) }()

	for {
		for _, hit := range page.Hits.Hits {
			doc := hit.Source
			records = append(records, sources.Record{StopID: doc.ID, Name: doc.Name, Lat: doc.Lat, Lon: doc.Lon})
		}
		if len(page.Hits.Hits) < p.batchSize || scrollID == "" {
			break
		}

		page, err = p.scroll(ctx, scrollID)
		if err != nil {
			return nil, err
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
	}

	if records == nil {
		records = []sources.Record{}
	}
	return records, nil
}

// scroll fetches the next page of an open scroll context.
func (p *Provider) scroll(ctx context.Context, scrollID string) (*searchResponse, error) {
	body, err := json.Marshal(map[string]string{
		"scroll":    scrollKeepAlive.String(),
		"scroll_id": scrollID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scroll: %w", err)
	}

	req := esapi.ScrollRequest{
		Body: bytes.NewReader(body),
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("failed to scroll: %w", err)
	}
	return parseSearchResponse(res)
}

// clearScroll releases a scroll context. Failures only leave the context to
// expire on its own.
func (p *Provider) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	req := esapi.ClearScrollRequest{
		ScrollID: []string{scrollID},
	}
	res, err := req.Do(context.Background(), p.client)
	if err != nil {
		return
	}
	_ = res.Body.Close()
}

// parseSearchResponse decodes and closes a search or scroll response.
func parseSearchResponse(res *esapi.Response) (*searchResponse, error) {
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var page searchResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &page, nil
}

// Store upserts records. A stop that already exists is updated in place and
// keeps its position; new stops are appended after the existing ones.
func (p *Provider) Store(ctx context.Context, records []sources.Record) error {
	if p.closed.Load() {
		return errClosed
	}
	if len(records) == 0 {
		return nil
	}
	if err := p.ensureIndex(ctx); err != nil {
		return err
	}

	// _count only sees refreshed documents. Without a refresh, a second batch
	// would reuse the sequence numbers of the first.
	if err := p.refresh(ctx); err != nil {
		return err
	}
	next, err := p.count(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		body, err := json.Marshal(map[string]interface{}{
			"doc": map[string]interface{}{
				"name": rec.Name,
				"lat":  rec.Lat,
				"lon":  rec.Lon,
			},
			"upsert": document{
				ID:   rec.StopID,
				Name: rec.Name,
				Lat:  rec.Lat,
				Lon:  rec.Lon,
				Seq:  next,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		next++

		req := esapi.UpdateRequest{
			Index:      p.index,
			DocumentID: rec.StopID,
			Body:       bytes.NewReader(body),
			Refresh:    p.refreshPolicy,
		}

		res, err := req.Do(ctx, p.client)
		if err != nil {
			return fmt.Errorf("failed to index stop %q: %w", rec.StopID, err)
		}
		if res.IsError() {
			msg := res.String()
			_ = res.Body.Close()
			return fmt.Errorf("failed to index stop %q: %s", rec.StopID, msg)
		}
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}

	return nil
}

// refresh makes every write so far visible to search and count.
func (p *Provider) refresh(ctx context.Context) error {
	req := esapi.IndicesRefreshRequest{
		Index: []string{p.index},
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("failed to refresh index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("failed to refresh index: %s", res.String())
	}
	return nil
}

// count returns the number of stored stops.
func (p *Provider) count(ctx context.Context) (int64, error) {
	req := esapi.CountRequest{
		Index: []string{p.index},
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return 0, fmt.Errorf("failed to count stops: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, fmt.Errorf("failed to count stops: %s", res.String())
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode count: %w", err)
	}
	return out.Count, nil
}

// DeleteAll removes all stops from the index.
func (p *Provider) DeleteAll(ctx context.Context) error {
	if err := p.ensureIndex(ctx); err != nil {
		return err
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req := esapi.DeleteByQueryRequest{
		Index:   []string{p.index},
		Body:    &buf,
		Refresh: &[]bool{p.refreshPolicy == "true"}[0],
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("failed to delete by query: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("failed to delete by query: %s", res.String())
	}

	return nil
}

// Close marks the source closed.
func (p *Provider) Close() error {
	// The Elasticsearch Go client doesn't have a Close method
	// as it uses standard HTTP connections that are managed by Go's http package
	p.closed.Store(true)
	return nil
}
