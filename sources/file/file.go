// Package file implements the stop Source interface over a local dataset
// file. JSON (an array of records or an object keyed by stop id), CSV with a
// header row, and GTFS static zip archives (stops.txt) are supported.
package file

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/remiges-tech/stopsearch"
	"github.com/remiges-tech/stopsearch/sources"
)

const (
	// FormatJSON reads a JSON array of records or an object keyed by stop id.
	FormatJSON = "json"

	// FormatCSV reads a CSV file with a header row.
	FormatCSV = "csv"

	// FormatGTFS reads stops.txt from a GTFS static zip archive.
	FormatGTFS = "gtfs"

	// gtfsStopsFile is the stops table inside a GTFS archive.
	gtfsStopsFile = "stops.txt"
)

// errClosed is returned by Load after Close.
var errClosed = errors.New("file source closed")

// Column aliases, matched case-insensitively against the CSV header.
var (
	idColumns   = []string{"stop_id", "stopId", "id"}
	nameColumns = []string{"stop_name", "name"}
	latColumns  = []string{"stop_lat", "lat", "latitude"}
	lonColumns  = []string{"stop_lon", "lon", "lng", "longitude"}
)

// Config holds the dataset location.
type Config struct {
	// Path is the dataset file.
	Path string

	// Format is one of FormatJSON, FormatCSV or FormatGTFS. When empty it is
	// inferred from the file extension (.json, .csv, .zip).
	Format string
}

// Source reads stops from a local file on every Load.
// All methods are safe for concurrent use.
type Source struct {
	path   string
	format string
	closed atomic.Bool
}

// keyedStop is the value of one entry in the keyed JSON form.
type keyedStop struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// New creates a file source. The file is not opened until Load.
func New(config Config) (*Source, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("%w: file source needs a path", stopsearch.ErrInvalidSourceConfig)
	}

	format := strings.ToLower(config.Format)
	if format == "" {
		format = inferFormat(config.Path)
	}
	switch format {
	case FormatJSON, FormatCSV, FormatGTFS:
	default:
		return nil, fmt.Errorf("%w: unsupported file format %q for %s", stopsearch.ErrInvalidSourceConfig, format, config.Path)
	}

	return &Source{path: config.Path, format: format}, nil
}

// Load reads and parses the dataset file.
func (s *Source) Load(ctx context.Context) ([]sources.Record, error) {
	if s.closed.Load() {
		return nil, errClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch s.format {
	case FormatGTFS:
		return s.loadGTFS()
	case FormatCSV:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
		}
		defer func() { _ = f.Close() }()
		return parseCSV(f)
	default:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
		}
		defer func() { _ = f.Close() }()
		return parseJSON(f)
	}
}

// Close marks the source closed.
func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Source) loadGTFS() ([]sources.Record, error) {
	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GTFS archive %s: %w", s.path, err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Base(f.Name), gtfsStopsFile) {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in %s: %w", f.Name, s.path, err)
		}
		records, err := parseCSV(r)
		_ = r.Close()
		return records, err
	}

	return nil, fmt.Errorf("GTFS archive %s has no %s", s.path, gtfsStopsFile)
}

// parseJSON accepts either [{"stopId":..,"name":..,"lat":..,"lon":..}, ...]
// or {"<stopId>": {"name":..,"lat":..,"lon":..}, ...}. Object keys are read in
// document order so row order follows the file.
func parseJSON(r io.Reader) ([]sources.Record, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops JSON: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("failed to parse stops JSON: unexpected %v", tok)
	}

	var records []sources.Record
	switch delim {
	case '[':
		for dec.More() {
			var rec sources.Record
			if err := dec.Decode(&rec); err != nil {
				return nil, fmt.Errorf("failed to parse stop record %d: %w", len(records), err)
			}
			records = append(records, rec)
		}
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("failed to parse stops JSON: %w", err)
			}
			id, _ := keyTok.(string)
			var stop keyedStop
			if err := dec.Decode(&stop); err != nil {
				return nil, fmt.Errorf("failed to parse stop %q: %w", id, err)
			}
			records = append(records, sources.Record{StopID: id, Name: stop.Name, Lat: stop.Lat, Lon: stop.Lon})
		}
	default:
		return nil, fmt.Errorf("failed to parse stops JSON: unexpected %v", delim)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse stops JSON: %w", err)
	}

	return records, nil
}

// parseCSV reads a header row and one stop per line. GTFS rows describing
// entrances, generic nodes and boarding areas (location_type 2-4) are
// skipped.
func parseCSV(r io.Reader) ([]sources.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}

	idx := func(cols []string) int {
		for _, col := range cols {
			for i, h := range head {
				if strings.EqualFold(strings.TrimSpace(h), col) {
					return i
				}
			}
		}
		return -1
	}

	iID, iName, iLat, iLon := idx(idColumns), idx(nameColumns), idx(latColumns), idx(lonColumns)
	iType := idx([]string{"location_type"})
	if iID < 0 || iName < 0 || iLat < 0 || iLon < 0 {
		return nil, fmt.Errorf("CSV header %v lacks id, name, lat or lon column", head)
	}

	var records []sources.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		if iType >= 0 && iType < len(row) {
			switch strings.TrimSpace(row[iType]) {
			case "2", "3", "4":
				continue
			}
		}

		field := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		lat, err := parseCoord(field(iLat))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: bad latitude: %w", line, err)
		}
		lon, err := parseCoord(field(iLon))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: bad longitude: %w", line, err)
		}

		records = append(records, sources.Record{
			StopID: field(iID),
			Name:   field(iName),
			Lat:    lat,
			Lon:    lon,
		})
	}

	return records, nil
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func inferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".zip":
		return FormatGTFS
	default:
		return FormatJSON
	}
}
