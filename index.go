package stopsearch

// PrefixIndex maps a normalized name prefix of one to three characters to the
// catalog rows whose normalized name starts with it. Rows are stored in
// ascending order.
type PrefixIndex map[string][]int

// BuildIndex derives the prefix index of a catalog. A name shorter than three
// characters only contributes prefixes up to its own length.
func BuildIndex(c *Catalog) PrefixIndex {
	index := make(PrefixIndex)

	for i, stop := range c.stops {
		name := stop.NameNormalized
		prev := 0
		for n := 1; n <= maxPrefixLength; n++ {
			end := prefixEnd(name, n)
			if end == prev {
				// name has fewer than n characters
				break
			}
			index[name[:end]] = append(index[name[:end]], i)
			prev = end
		}
	}

	return index
}

// Lookup returns the rows filed under key, or nil.
func (p PrefixIndex) Lookup(key string) []int {
	return p[key]
}

// prefixKey returns the first min(maxPrefixLength, len) characters of a
// normalized string.
func prefixKey(normalized string) string {
	return normalized[:prefixEnd(normalized, maxPrefixLength)]
}

// prefixEnd returns the byte offset just past the first n runes of s, or
// len(s) if s is shorter.
func prefixEnd(s string, n int) int {
	count := 0
	for pos := range s {
		if count == n {
			return pos
		}
		count++
	}
	return len(s)
}
