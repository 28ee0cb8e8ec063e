package stopsearch

import (
	"log/slog"
	"unicode/utf8"

	"github.com/remiges-tech/stopsearch/sources"
)

// Stop is one public-transit stop held in the catalog.
type Stop struct {
	StopID string
	Name   string

	// NameNormalized is Normalize(Name), computed once when the catalog is built.
	NameNormalized string

	Lat float64
	Lon float64

	// nameLen is the display name length in characters, used for ranking.
	nameLen int
}

// Catalog is the immutable, ordered table of stops for one process lifetime.
// Row order is the order of the source records.
type Catalog struct {
	stops []Stop
}

// NewCatalog builds a catalog from raw records. Records without an id or a
// name are skipped; for duplicate ids the first record wins.
func NewCatalog(records []sources.Record, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	stops := make([]Stop, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	skipped := 0

	for _, rec := range records {
		if rec.StopID == "" || rec.Name == "" {
			skipped++
			continue
		}
		if _, dup := seen[rec.StopID]; dup {
			skipped++
			continue
		}
		seen[rec.StopID] = struct{}{}

		stops = append(stops, Stop{
			StopID:         rec.StopID,
			Name:           rec.Name,
			NameNormalized: Normalize(rec.Name),
			Lat:            rec.Lat,
			Lon:            rec.Lon,
			nameLen:        utf8.RuneCountInString(rec.Name),
		})
	}

	if skipped > 0 {
		logger.Warn("skipped invalid stop records", "skipped", skipped, "kept", len(stops))
	}

	return &Catalog{stops: stops}
}

// Len returns the number of stops.
func (c *Catalog) Len() int {
	return len(c.stops)
}

// At returns the stop at row i. It panics if i is out of range.
func (c *Catalog) At(i int) Stop {
	return c.stops[i]
}
