package track

import (
	"fmt"
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

// writeChunkCSV generates a source with the standard roles and rows sampled
// ten minutes apart, starting at startRow offsets so values stay distinct
// across chunks.
func writeChunkCSV(t *testing.T, dir, name string, startRow, rows int) string {
	t.Helper()
	content := "time,lat,lon,speed\n"
	for i := 0; i < rows; i++ {
		n := startRow + i
		ts := t0.Add(time.Duration(n) * 10 * time.Minute)
		content += fmt.Sprintf("%s,%.1f,%.1f,%.1f\n",
			ts.Format("2006-01-02 15:04:05"), 30+float64(n)*0.1, 120+float64(n)*0.1, 10+float64(n))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testChunk(t *testing.T, dir, name string, startRow, rows int, opts ...ChunkOption) *DataChunk {
	t.Helper()
	path := writeChunkCSV(t, dir, name, startRow, rows)
	cache := schema.NewCache(&stubInferrer{roles: map[string]int{
		schema.RoleTimestamp: 0,
		schema.RoleLatitude:  1,
		schema.RoleLongitude: 2,
		"speed":              3,
	}}, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())

	c, err := NewChunk(t.Context(), path, cache, opts...)
	require.NoError(t, err)
	return c
}

func TestNewConflictingInit(t *testing.T) {
	dir := t.TempDir()
	c := testChunk(t, dir, "a.csv", 0, 2)

	_, err := New(WithPoints([]*TrajPoint{NewPoint(0, 0, t0, nil)}), WithChunk(c))
	assert.ErrorIs(t, err, ErrConflictingInit)
}

func TestNewEmpty(t *testing.T) {
	traj, err := New(WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	assert.Equal(t, 0, traj.Len())
	assert.Empty(t, traj.ChunkSpans())
}

func TestAppendChunkSpans(t *testing.T) {
	dir := t.TempDir()
	traj, err := New(WithChunk(testChunk(t, dir, "a.csv", 0, 3)), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	require.NoError(t, traj.AppendChunk(testChunk(t, dir, "b.csv", 3, 5)))
	require.NoError(t, traj.AppendChunk(testChunk(t, dir, "c.csv", 8, 2)))

	assert.Equal(t, 10, traj.Len())
	assert.Equal(t, []Span{{0, 3}, {3, 8}, {8, 10}}, traj.ChunkSpans())

	// Points materialize row-aligned across the chunk boundary.
	p, err := traj.At(3)
	require.NoError(t, err)
	assert.InDelta(t, 30.3, p.Latitude(), 1e-9)
	assert.True(t, t0.Add(30*time.Minute).Equal(p.Timestamp()))

	speed, ok := p.Field("speed")
	require.True(t, ok)
	f, _ := speed.Float()
	assert.InDelta(t, 13, f, 1e-9)
}

func TestAppendZeroLengthChunk(t *testing.T) {
	dir := t.TempDir()
	c := testChunk(t, dir, "a.csv", 0, 3, WithRowRange(2, 2))
	require.Equal(t, 0, c.Len())

	traj, err := New(WithChunk(c), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	assert.Equal(t, 0, traj.Len())
	assert.Equal(t, []Span{{0, 0}}, traj.ChunkSpans())

	// The empty span contributes no values; keyed lookup reports the role
	// unknown rather than returning an empty sequence.
	_, err = traj.Key("speed")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestAtOutOfRange(t *testing.T) {
	traj, err := New(WithPoints([]*TrajPoint{NewPoint(0, 0, t0, nil)}))
	require.NoError(t, err)

	_, err = traj.At(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = traj.At(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestKeyFromChunks(t *testing.T) {
	dir := t.TempDir()
	traj, err := New(WithChunk(testChunk(t, dir, "a.csv", 0, 3)), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	require.NoError(t, traj.AppendChunk(testChunk(t, dir, "b.csv", 3, 2)))

	speeds, err := traj.Key("speed")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12, 13, 14}, speeds)

	_, err = traj.Key("fuel")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = traj.Key(schema.RoleTimestamp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use Timestamps")
}

func TestKeyPrefersBag(t *testing.T) {
	dir := t.TempDir()
	traj, err := New(WithChunk(testChunk(t, dir, "a.csv", 0, 3)), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	require.NoError(t, traj.ImportSeries("speed", []float64{1, 2, 3}))

	speeds, err := traj.Key("speed")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, speeds)
}

func TestKeyFromPoints(t *testing.T) {
	pts := []*TrajPoint{
		NewPoint(30, 120, t0, map[string]FieldValue{"speed": Float(9)}),
		NewPoint(30.1, 120.1, t0.Add(time.Minute), map[string]FieldValue{"speed": Float(10)}),
	}
	traj, err := New(WithPoints(pts))
	require.NoError(t, err)

	speeds, err := traj.Key("speed")
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 10}, speeds)

	_, err = traj.Key("fuel")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestKeyOnEmptyTrajectory(t *testing.T) {
	traj, err := New(WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	// Even a role planted in the bag by a zero-length import never comes
	// back as an empty sequence.
	require.NoError(t, traj.ImportSeries("w10", nil))
	_, err = traj.Key("w10")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestScalar(t *testing.T) {
	traj, err := New(WithPoints([]*TrajPoint{
		NewPoint(30, 120, t0, map[string]FieldValue{"draft": Float(8.5)}),
	}))
	require.NoError(t, err)

	v, err := traj.Scalar("draft")
	require.NoError(t, err)
	assert.Equal(t, 8.5, v)

	// A multi-element sequence never collapses implicitly.
	multi, err := New(WithPoints([]*TrajPoint{
		NewPoint(30, 120, t0, map[string]FieldValue{"draft": Float(8.5)}),
		NewPoint(30, 120, t0, map[string]FieldValue{"draft": Float(8.6)}),
	}))
	require.NoError(t, err)
	_, err = multi.Scalar("draft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a scalar")
}

func TestSubset(t *testing.T) {
	dir := t.TempDir()
	traj, err := New(WithChunk(testChunk(t, dir, "a.csv", 0, 5)), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	sub, err := traj.Subset([]int{4, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Len())
	assert.Empty(t, sub.ChunkSpans(), "subsets detach from chunks")

	p, err := sub.At(0)
	require.NoError(t, err)
	assert.InDelta(t, 30.4, p.Latitude(), 1e-9)

	// Field maps survive through the subset.
	speeds, err := sub.Key("speed")
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 10, 12}, speeds)
}

func TestSubsetInvalidIndices(t *testing.T) {
	traj, err := New(WithPoints([]*TrajPoint{
		NewPoint(0, 0, t0, nil),
		NewPoint(0, 0, t0, nil),
	}))
	require.NoError(t, err)

	_, err = traj.Subset([]int{0, 2})
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = traj.Subset([]int{1, 1})
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestExtend(t *testing.T) {
	traj, err := New(WithPoints([]*TrajPoint{NewPoint(30, 120, t0, nil)}))
	require.NoError(t, err)

	p, err := traj.Extend(1000, 0, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, traj.Len())
	assert.True(t, t0.Add(10*time.Minute).Equal(p.Timestamp()))

	last, err := traj.At(1)
	require.NoError(t, err)
	assert.Same(t, p, last)

	empty, err := New(WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	_, err = empty.Extend(1, 1, time.Minute)
	assert.Error(t, err)
}

func TestImportSeries(t *testing.T) {
	traj, err := New(WithPoints([]*TrajPoint{
		NewPoint(30, 120, t0, nil),
		NewPoint(30.1, 120.1, t0.Add(time.Minute), nil),
	}))
	require.NoError(t, err)

	require.NoError(t, traj.ImportSeries("w10", []float64{5, math.NaN()}))
	assert.Equal(t, []string{"w10"}, traj.SeriesNames())

	// Bag and per-point views agree index for index.
	vals, err := traj.Key("w10")
	require.NoError(t, err)
	assert.Equal(t, 5.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))

	p, err := traj.At(1)
	require.NoError(t, err)
	fv, ok := p.Field("w10")
	require.True(t, ok)
	assert.True(t, fv.IsNull())

	// Length mismatches are rejected outright.
	assert.Error(t, traj.ImportSeries("w100", []float64{1}))
}

func TestTimestamps(t *testing.T) {
	traj, err := New(WithPoints([]*TrajPoint{
		NewPoint(30, 120, t0, nil),
		NewPoint(30.1, 120.1, t0.Add(10*time.Minute), nil),
	}))
	require.NoError(t, err)

	ts := traj.Timestamps()
	require.Len(t, ts, 2)
	assert.True(t, t0.Equal(ts[0]))
	assert.True(t, t0.Add(10*time.Minute).Equal(ts[1]))
}
