package fixture

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/hailam/attackmap/internal/board"
)

// Cache keeps computed attack maps keyed by Zobrist hash so repeated
// positions in a batch are extracted once. It is safe for concurrent use.
type Cache struct {
	maps *ristretto.Cache[uint64, board.AttackMaps]
}

// NewCache creates a cache holding up to maxEntries attack maps.
func NewCache(maxEntries int64) (*Cache, error) {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, board.AttackMaps]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		Metrics:     true,

		// Every entry has cost 1, so MaxCost counts entries.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{maps: c}, nil
}

// AttackMaps returns the maps for pos, computing and storing them on a miss.
// A cached entry whose occupancy differs from pos is treated as a hash
// collision and recomputed.
func (c *Cache) AttackMaps(pos *board.Position) board.AttackMaps {
	if m, ok := c.maps.Get(pos.Hash); ok && m.Occupancy == pos.AllOccupied {
		return m
	}
	m := pos.AttackMaps()
	c.maps.Set(pos.Hash, m, 1)
	return m
}

// Wait blocks until pending writes are visible to readers.
func (c *Cache) Wait() {
	c.maps.Wait()
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	return c.maps.Metrics.Ratio() * 100
}

// Hits returns the number of lookups served from the cache.
func (c *Cache) Hits() uint64 {
	return c.maps.Metrics.Hits()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.maps.Clear()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.maps.Close()
}
