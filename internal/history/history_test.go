package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/pmsinspect-mcp/pkg/platform"
)

func TestRecord_NewestFirst(t *testing.T) {
	l := New(DefaultLimit)
	l.Record("GET /a", platform.Guesty, "/a")
	l.Record("GET /b", platform.Guesty, "/b")

	entries := l.List(Filter{})
	require.Len(t, entries, 2)
	assert.Equal(t, "GET /b", entries[0].Query)
	assert.Equal(t, "GET /a", entries[1].Query)
}

func TestRecord_FieldsAndID(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	l := New(DefaultLimit, WithClock(func() time.Time { return now }))

	e := l.Record("GET /guests?email=x", platform.Hostaway, "/guests")
	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T08:30:00.000Z", e.Timestamp)
	assert.Equal(t, platform.Hostaway, e.Platform)
	assert.Equal(t, "/guests", e.Endpoint)
}

func TestRecord_EvictsOldestAfterLimit(t *testing.T) {
	l := New(DefaultLimit)
	for i := 0; i < 51; i++ {
		l.Record(fmt.Sprintf("GET /q%d", i), platform.Guesty, "/reservations")
	}

	entries := l.List(Filter{})
	require.Len(t, entries, 50)
	assert.Equal(t, "GET /q50", entries[0].Query)
	for _, e := range entries {
		assert.NotEqual(t, "GET /q0", e.Query)
	}
}

func TestRecord_NeverExceedsLimit(t *testing.T) {
	l := New(3)
	for i := 0; i < 10; i++ {
		l.Record("q", platform.Guesty, "")
		assert.LessOrEqual(t, l.Len(), 3)
	}
	assert.Equal(t, 3, l.Limit())
}

func TestNew_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, New(0).Limit())
}

func TestList_Filters(t *testing.T) {
	l := New(DefaultLimit)
	l.Record("g1", platform.Guesty, "/reservations")
	l.Record("h1", platform.Hostaway, "/reservations")
	l.Record("g2", platform.Guesty, "/guests")
	l.Record("g3", platform.Guesty, "/reservations")

	queries := func(f Filter) []string {
		var out []string
		for _, e := range l.List(f) {
			out = append(out, e.Query)
		}
		return out
	}

	assert.Equal(t, []string{"g3", "g2", "g1"}, queries(Filter{Platform: platform.Guesty}))
	assert.Equal(t, []string{"g3", "h1", "g1"}, queries(Filter{Endpoint: "/reservations"}))
	assert.Equal(t, []string{"g3", "g1"}, queries(Filter{Platform: platform.Guesty, Endpoint: "/reservations"}))
	assert.Equal(t, []string{"g3"}, queries(Filter{Platform: platform.Guesty, Limit: 1}))
	assert.Empty(t, queries(Filter{Platform: platform.OwnerRez}))
	assert.Empty(t, queries(Filter{Endpoint: "/calendar"}))
}

func TestList_FiltersSkipEvicted(t *testing.T) {
	l := New(2)
	l.Record("old", platform.OwnerRez, "/pricing")
	l.Record("a", platform.Guesty, "/x")
	l.Record("b", platform.Guesty, "/x")

	assert.Empty(t, l.List(Filter{Platform: platform.OwnerRez}))
	assert.Empty(t, l.List(Filter{Endpoint: "/pricing"}))
	assert.NotContains(t, l.byPlatform, platform.OwnerRez)
}

func TestClear(t *testing.T) {
	l := New(DefaultLimit)
	l.Record("q", platform.Guesty, "/x")
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.List(Filter{Platform: platform.Guesty}))
}
