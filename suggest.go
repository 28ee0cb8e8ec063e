package stopsearch

import (
	"cmp"
	"slices"
	"strings"
)

// match is a candidate that passed the substring filter, with its rank keys.
type match struct {
	row     int
	exact   bool
	prefix  bool
	nameLen int
}

// rankMatches orders matches by exact match first, then prefix match, then
// shorter display name. Remaining ties keep catalog row order.
func rankMatches(matches []match) {
	slices.SortStableFunc(matches, func(a, b match) int {
		if a.exact != b.exact {
			if a.exact {
				return -1
			}
			return 1
		}
		if a.prefix != b.prefix {
			if a.prefix {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.nameLen, b.nameLen); c != 0 {
			return c
		}
		return cmp.Compare(a.row, b.row)
	})
}

// search narrows the catalog to the query's prefix bucket, keeps the stops
// whose normalized name contains the query, ranks them and returns at most
// limit suggestions together with the number of matches before truncation.
//
// A query whose leading characters open no bucket has no matches, even if its
// text occurs later inside some name. That trade keeps every query bounded to
// one bucket.
func search(catalog *Catalog, index PrefixIndex, query string, limit int) ([]Suggestion, int) {
	rows := index.Lookup(prefixKey(query))
	if len(rows) == 0 {
		return []Suggestion{}, 0
	}

	matches := make([]match, 0, len(rows))
	for _, row := range rows {
		stop := &catalog.stops[row]
		if !strings.Contains(stop.NameNormalized, query) {
			continue
		}
		matches = append(matches, match{
			row:     row,
			exact:   stop.NameNormalized == query,
			prefix:  strings.HasPrefix(stop.NameNormalized, query),
			nameLen: stop.nameLen,
		})
	}

	total := len(matches)
	rankMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	suggestions := make([]Suggestion, len(matches))
	for i, m := range matches {
		stop := catalog.stops[m.row]
		suggestions[i] = Suggestion{
			StopID: stop.StopID,
			Name:   stop.Name,
			Lat:    stop.Lat,
			Lon:    stop.Lon,
		}
	}

	return suggestions, total
}
