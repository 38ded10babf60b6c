package site

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingTable struct {
	calls int
	sites StaticTable
}

func (m *countingTable) Lookup(ctx context.Context, station string) (Site, error) {
	m.calls++
	return m.sites.Lookup(ctx, station)
}

// --- CachedTable tests ---

func TestCachedTable_CacheHit(t *testing.T) {
	inner := &countingTable{sites: StaticTable{"Z9250": {Station: "Z9250", Latitude: 32.19, Longitude: 118.7}}}
	cached := NewCachedTable(inner, 10)

	s1, err := cached.Lookup(context.Background(), "Z9250")
	require.NoError(t, err)
	assert.InDelta(t, 32.19, s1.Latitude, 1e-9)

	s2, err := cached.Lookup(context.Background(), "Z9250")
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedTable_MissNotCached(t *testing.T) {
	inner := &countingTable{sites: StaticTable{}}
	cached := NewCachedTable(inner, 10)

	_, err := cached.Lookup(context.Background(), "Z9999")
	require.ErrorIs(t, err, ErrNotFound)

	inner.sites["Z9999"] = Site{Station: "Z9999"}
	s, err := cached.Lookup(context.Background(), "Z9999")
	require.NoError(t, err)
	assert.Equal(t, "Z9999", s.Station)
	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", Site{Station: "A"})
	c.put("b", Site{Station: "B"})

	s, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", s.Station)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", Site{Station: "A"})
	c.put("b", Site{Station: "B"})
	c.put("c", Site{Station: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")
	assert.Equal(t, 2, c.size())

	s, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", s.Station)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", Site{Station: "A"})
	c.put("b", Site{Station: "B"})

	c.get("a")

	// "b" is now least recently used.
	c.put("c", Site{Station: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_ZeroCapacityHoldsOne(t *testing.T) {
	c := newLRUCache(0)

	c.put("a", Site{Station: "A"})
	_, ok := c.get("a")
	assert.True(t, ok)
}
