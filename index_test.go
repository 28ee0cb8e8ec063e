package stopsearch

import (
	"sort"
	"testing"
	"unicode/utf8"

	"github.com/remiges-tech/stopsearch/sources"
)

func TestBuildIndex(t *testing.T) {
	catalog := NewCatalog([]sources.Record{
		{StopID: "1", Name: "Anděl"},
		{StopID: "2", Name: "Ab"},
		{StopID: "3", Name: "Ž"},
		{StopID: "4", Name: "Andělská hora"},
		{StopID: "5", Name: "Øst"},
	}, nil)
	index := BuildIndex(catalog)

	tests := []struct {
		key  string
		want []int
	}{
		{"a", []int{0, 1, 3}},
		{"an", []int{0, 3}},
		{"and", []int{0, 3}},
		{"ab", []int{1}},
		{"z", []int{2}},
		{"ø", []int{4}},
		{"øs", []int{4}},
		{"øst", []int{4}},
		{"ande", nil},
		{"zz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := index.Lookup(tt.key)
			if len(got) != len(tt.want) {
				t.Fatalf("Lookup(%q) = %v, want %v", tt.key, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Lookup(%q) = %v, want %v", tt.key, got, tt.want)
				}
			}
		})
	}

	if n := len(index); n != 8 {
		keys := make([]string, 0, n)
		for k := range index {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.Errorf("index has %d keys %v, want 8", n, keys)
	}
}

func TestBuildIndexProperties(t *testing.T) {
	catalog := NewCatalog(pragueStops(), nil)
	index := BuildIndex(catalog)

	for i := 0; i < catalog.Len(); i++ {
		name := catalog.At(i).NameNormalized
		runes := utf8.RuneCountInString(name)
		for n := 1; n <= maxPrefixLength && n <= runes; n++ {
			key := name[:prefixEnd(name, n)]
			if !containsRow(index[key], i) {
				t.Errorf("row %d (%q) missing under prefix %q", i, name, key)
			}
		}
	}

	entries := 0
	for key, rows := range index {
		if l := utf8.RuneCountInString(key); l < 1 || l > maxPrefixLength {
			t.Errorf("index key %q has %d characters", key, l)
		}
		for _, row := range rows {
			name := catalog.At(row).NameNormalized
			if utf8.RuneCountInString(key) > utf8.RuneCountInString(name) || name[:len(key)] != key {
				t.Errorf("row %d (%q) filed under foreign prefix %q", row, name, key)
			}
		}
		if !sort.IntsAreSorted(rows) {
			t.Errorf("rows under %q not ascending: %v", key, rows)
		}
		entries += len(rows)
	}
	if entries > maxPrefixLength*catalog.Len() {
		t.Errorf("index has %d entries, want at most %d", entries, maxPrefixLength*catalog.Len())
	}
}

func TestPrefixKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"ab", "ab"},
		{"abc", "abc"},
		{"abcdef", "abc"},
		{"øster", "øst"},
	}
	for _, tt := range tests {
		if got := prefixKey(tt.in); got != tt.want {
			t.Errorf("prefixKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewCatalog(t *testing.T) {
	catalog := NewCatalog([]sources.Record{
		{StopID: "1", Name: "Anděl", Lat: 1, Lon: 2},
		{StopID: "", Name: "No id"},
		{StopID: "2", Name: ""},
		{StopID: "1", Name: "Duplicate"},
		{StopID: "3", Name: "Florenc"},
	}, nil)

	if catalog.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", catalog.Len())
	}
	first := catalog.At(0)
	if first.StopID != "1" || first.Name != "Anděl" || first.NameNormalized != "andel" || first.Lat != 1 || first.Lon != 2 {
		t.Errorf("At(0) = %+v", first)
	}
	if catalog.At(1).StopID != "3" {
		t.Errorf("At(1).StopID = %q, want 3", catalog.At(1).StopID)
	}
	for i := 0; i < catalog.Len(); i++ {
		stop := catalog.At(i)
		if stop.NameNormalized != Normalize(stop.Name) {
			t.Errorf("At(%d).NameNormalized = %q, want %q", i, stop.NameNormalized, Normalize(stop.Name))
		}
	}
}

func containsRow(rows []int, row int) bool {
	for _, r := range rows {
		if r == row {
			return true
		}
	}
	return false
}
