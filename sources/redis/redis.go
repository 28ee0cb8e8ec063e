// Package redis implements the stop Source interface using Redis as the
// shared dataset store. Stops live in one hash per namespace, keyed by stop
// id, with a companion list that preserves insertion order.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/go-redis/redis/v8"

	"github.com/remiges-tech/stopsearch/sources"
)

const (
	// defaultNamespace prefixes all keys when Config.Namespace is empty.
	defaultNamespace = "stopsearch"

	// suffixStops is the hash of stop id → JSON-encoded stop.
	suffixStops = ":stops"

	// suffixOrder is the list of stop ids in insertion order.
	suffixOrder = ":order"
)

// Provider implements the stop Source interface using Redis.
// All methods are safe for concurrent use.
type Provider struct {
	client   *redis.Client
	stopsKey string
	orderKey string
	closed   atomic.Bool
}

// Config holds Redis connection parameters.
type Config struct {
	// Addr is the Redis server address in the format "host:port".
	Addr string

	// Password is the Redis password (empty string for no password).
	Password string

	// DB is the Redis database number (0-15, default is 0).
	// Redis Cluster only supports DB 0.
	DB int

	// Namespace prefixes all keys so several datasets can share a server.
	// Default: "stopsearch".
	Namespace string
}

// storedStop is the hash value for one stop.
type storedStop struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// New creates a new Redis provider with the given configuration.
// Connections are opened on first use, so an unreachable server surfaces as
// a Load error that a later Load retries. Use Ping to check connectivity
// up front.
func New(config Config) (*Provider, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password, // pragma: allowlist secret
		DB:       config.DB,
	})

	ns := config.Namespace
	if ns == "" {
		ns = defaultNamespace
	}

	return &Provider{
		client:   client,
		stopsKey: ns + suffixStops,
		orderKey: ns + suffixOrder,
	}, nil
}

// Ping verifies connectivity with a PING command.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// Load reads every stop of the namespace. Rows follow the stored order list;
// stops missing from that list come after it, sorted by id.
func (p *Provider) Load(ctx context.Context) ([]sources.Record, error) {
	pipe := p.client.Pipeline()
	hashCmd := pipe.HGetAll(ctx, p.stopsKey)
	orderCmd := pipe.LRange(ctx, p.orderKey, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read stops: %w", err)
	}

	hash := hashCmd.Val()
	records := make([]sources.Record, 0, len(hash))
	placed := make(map[string]bool, len(hash))

	appendStop := func(id string) error {
		raw, ok := hash[id]
		if !ok || placed[id] {
			return nil
		}
		var stop storedStop
		if err := json.Unmarshal([]byte(raw), &stop); err != nil {
			return fmt.Errorf("failed to decode stop %q: %w", id, err)
		}
		placed[id] = true
		records = append(records, sources.Record{StopID: id, Name: stop.Name, Lat: stop.Lat, Lon: stop.Lon})
		return nil
	}

	for _, id := range orderCmd.Val() {
		if err := appendStop(id); err != nil {
			return nil, err
		}
	}

	rest := make([]string, 0, len(hash)-len(placed))
	for id := range hash {
		if !placed[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		if err := appendStop(id); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// Store writes records into the namespace. Existing stops with the same id
// are overwritten in place and keep their position.
func (p *Provider) Store(ctx context.Context, records []sources.Record) error {
	if len(records) == 0 {
		return nil
	}

	known, err := p.client.LRange(ctx, p.orderKey, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read stop order: %w", err)
	}
	seen := make(map[string]bool, len(known)+len(records))
	for _, id := range known {
		seen[id] = true
	}

	fields := make([]interface{}, 0, 2*len(records))
	var newIDs []interface{}
	for _, rec := range records {
		data, err := json.Marshal(storedStop{Name: rec.Name, Lat: rec.Lat, Lon: rec.Lon})
		if err != nil {
			return fmt.Errorf("failed to encode stop %q: %w", rec.StopID, err)
		}
		fields = append(fields, rec.StopID, string(data))
		if !seen[rec.StopID] {
			seen[rec.StopID] = true
			newIDs = append(newIDs, rec.StopID)
		}
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, p.stopsKey, fields...)
		if len(newIDs) > 0 {
			pipe.RPush(ctx, p.orderKey, newIDs...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store stops: %w", err)
	}
	return nil
}

// DeleteAll removes all stops of the namespace.
func (p *Provider) DeleteAll(ctx context.Context) error {
	return p.client.Del(ctx, p.stopsKey, p.orderKey).Err()
}

// Close closes the Redis connection. Later calls are no-ops.
func (p *Provider) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.client.Close()
}
