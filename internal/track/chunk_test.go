package track

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Continy/ShipTrackViz/internal/observability"
	"github.com/Continy/ShipTrackViz/internal/schema"
)

// stubInferrer satisfies schema.RoleInferrer with a fixed role map.
type stubInferrer struct {
	roles map[string]int
}

func (s *stubInferrer) InferRoles(_ context.Context, _ []string) (map[string]int, error) {
	return s.roles, nil
}

const chunkCSV = `id,time,lat,lon,speed
0,2024-06-01 00:00:00,30.0,120.0,10.0
1,2024-06-01 00:10:00,30.1,120.1,11.5
2,2024-06-01 00:20:00,30.2,120.2,bad
3,2024-06-01 00:30:00,30.3,120.3,13.0
4,2024-06-01 00:40:00,30.4,120.4,99.0
`

func chunkRoles() map[string]int {
	return map[string]int{
		"id":                 0,
		schema.RoleTimestamp: 1,
		schema.RoleLatitude:  2,
		schema.RoleLongitude: 3,
		"speed":              4,
	}
}

func newChunkFixture(t *testing.T, opts ...ChunkOption) *DataChunk {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voyage.csv")
	require.NoError(t, os.WriteFile(path, []byte(chunkCSV), 0o644))

	cache := schema.NewCache(&stubInferrer{roles: chunkRoles()},
		slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())

	c, err := NewChunk(t.Context(), path, cache, opts...)
	require.NoError(t, err)
	return c
}

func TestChunkData(t *testing.T) {
	c := newChunkFixture(t)
	assert.Equal(t, 5, c.Len())

	ids, err := c.Data("id")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, ids)

	// The unparseable speed cell nulls out instead of failing the column.
	speeds, err := c.Data("speed")
	require.NoError(t, err)
	require.Len(t, speeds, 5)
	assert.Equal(t, 10.0, speeds[0])
	assert.True(t, math.IsNaN(speeds[2]))
	assert.Equal(t, 99.0, speeds[4])
}

func TestChunkDataRejectsTimestampRole(t *testing.T) {
	c := newChunkFixture(t)
	_, err := c.Data(schema.RoleTimestamp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use Timestamps")
}

func TestChunkDataUnknownRole(t *testing.T) {
	c := newChunkFixture(t)
	_, err := c.Data("fuel")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestChunkTimestamps(t *testing.T) {
	c := newChunkFixture(t)
	ts, err := c.Timestamps()
	require.NoError(t, err)
	require.Len(t, ts, 5)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), ts[0])
	assert.Equal(t, time.Date(2024, 6, 1, 0, 40, 0, 0, time.UTC), ts[4])
}

func TestChunkRowRange(t *testing.T) {
	c := newChunkFixture(t, WithRowRange(1, 4))
	assert.Equal(t, 3, c.Len())

	// Every keyed read stays aligned to the same restriction.
	ids, err := c.Data("id")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, ids)

	ts, err := c.Timestamps()
	require.NoError(t, err)
	require.Len(t, ts, 3)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 10, 0, 0, time.UTC), ts[0])
}

func TestChunkRowRangeClampsEnd(t *testing.T) {
	c := newChunkFixture(t, WithRowRange(3, 100))
	assert.Equal(t, 2, c.Len())

	ids, err := c.Data("id")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, ids)
}

func TestChunkInvalidRowRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voyage.csv")
	require.NoError(t, os.WriteFile(path, []byte(chunkCSV), 0o644))
	cache := schema.NewCache(&stubInferrer{roles: chunkRoles()},
		slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())

	_, err := NewChunk(t.Context(), path, cache, WithRowRange(4, 2))
	assert.Error(t, err)

	_, err = NewChunk(t.Context(), path, cache, WithRowRange(-1, 3))
	assert.Error(t, err)
}

func TestChunkClip(t *testing.T) {
	c := newChunkFixture(t, WithClip("speed", ClipRange(0, 50)))

	speeds, err := c.Data("speed")
	require.NoError(t, err)
	assert.Equal(t, 13.0, speeds[3])
	assert.True(t, math.IsNaN(speeds[4]), "99.0 exceeds the clip range")
}

func TestClipRange(t *testing.T) {
	clip := ClipRange(-10, 10)
	assert.Equal(t, 5.0, clip(5))
	assert.Equal(t, -10.0, clip(-10))
	assert.Equal(t, 10.0, clip(10))
	assert.True(t, math.IsNaN(clip(10.1)))
	assert.True(t, math.IsNaN(clip(-11)))
}
