package resolution

import (
	"sort"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheKey quantizes a scale to two decimals.
func CacheKey(scale float64) string {
	return strconv.FormatFloat(scale, 'f', 2, 64)
}

type Stats struct {
	Size     int      `json:"size"`
	Keys     []string `json:"keys"`
	Capacity int      `json:"capacity"`
}

type store interface {
	get(key string) (Level, bool)
	add(key string, l Level)
	purge()
	keys() []string
	len() int
}

// mapStore grows with every distinct key and is only ever cleared in full.
type mapStore map[string]Level

func (m mapStore) get(key string) (Level, bool) {
	l, ok := m[key]
	return l, ok
}

func (m mapStore) add(key string, l Level) { m[key] = l }

func (m mapStore) purge() { clear(m) }

func (m mapStore) len() int { return len(m) }

func (m mapStore) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type lruStore struct {
	c *lru.Cache[string, Level]
}

func (s lruStore) get(key string) (Level, bool) { return s.c.Get(key) }

func (s lruStore) add(key string, l Level) { s.c.Add(key, l) }

func (s lruStore) purge() { s.c.Purge() }

func (s lruStore) len() int { return s.c.Len() }

func (s lruStore) keys() []string { return s.c.Keys() }

func newStore(capacity int) store {
	if capacity <= 0 {
		return mapStore{}
	}
	c, err := lru.New[string, Level](capacity)
	if err != nil {
		// Only returned for a non-positive size, handled above.
		return mapStore{}
	}
	return lruStore{c: c}
}

func sortedKeys(s store) []string {
	keys := s.keys()
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}
