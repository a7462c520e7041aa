package wind

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gridT0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// newTestDataset builds a 2x2x2 grid with u10 = 10*t + lat + 0.1*lon style
// values so every interpolation result is easy to derive by hand.
func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		[]float64{30, 31},
		[]float64{120, 121},
		[]time.Time{gridT0, gridT0.Add(time.Hour)},
	)
	require.NoError(t, err)

	// Order: [time][lat][lon].
	u10 := []float64{
		0, 1, // t0, lat 30, lon 120/121
		2, 3, // t0, lat 31
		10, 11, // t1, lat 30
		12, 13, // t1, lat 31
	}
	require.NoError(t, ds.AddVar("u10", u10))
	v10 := make([]float64, 8)
	for i := range v10 {
		v10[i] = -u10[i]
	}
	require.NoError(t, ds.AddVar("v10", v10))
	return ds
}

func TestNewDatasetValidation(t *testing.T) {
	times := []time.Time{gridT0}

	_, err := NewDataset(nil, []float64{1}, times)
	assert.Error(t, err)

	_, err = NewDataset([]float64{31, 30}, []float64{1}, times)
	assert.Error(t, err, "descending latitude axis")

	_, err = NewDataset([]float64{30, 30}, []float64{1}, times)
	assert.Error(t, err, "duplicate latitude nodes")

	_, err = NewDataset([]float64{30}, []float64{120}, []time.Time{gridT0, gridT0})
	assert.Error(t, err, "duplicate time nodes")
}

func TestAddVarSizeCheck(t *testing.T) {
	ds, err := NewDataset([]float64{30}, []float64{120}, []time.Time{gridT0})
	require.NoError(t, err)

	assert.Error(t, ds.AddVar("u10", []float64{1, 2}))
	assert.NoError(t, ds.AddVar("u10", []float64{1}))
	assert.True(t, ds.HasVar("u10"))
	assert.False(t, ds.HasVar("v10"))
	assert.Equal(t, []string{"u10"}, ds.Vars())
}

func TestInterpAtGridNodes(t *testing.T) {
	ds := newTestDataset(t)

	// Every grid node reproduces its stored value exactly, including the
	// upper corners of each axis.
	tests := []struct {
		lat, lon float64
		at       time.Time
		want     float64
	}{
		{30, 120, gridT0, 0},
		{30, 121, gridT0, 1},
		{31, 120, gridT0, 2},
		{31, 121, gridT0, 3},
		{30, 120, gridT0.Add(time.Hour), 10},
		{31, 121, gridT0.Add(time.Hour), 13},
	}
	for _, tt := range tests {
		got := ds.Interp("u10", tt.lat, tt.lon, tt.at)
		assert.Equal(t, tt.want, got, "lat=%g lon=%g t=%s", tt.lat, tt.lon, tt.at)
	}
}

func TestInterpBetweenNodes(t *testing.T) {
	ds := newTestDataset(t)

	// Midpoint along lon at t0, lat 30: (0+1)/2.
	assert.InDelta(t, 0.5, ds.Interp("u10", 30, 120.5, gridT0), 1e-12)

	// Center of the spatial cell at t0: (0+1+2+3)/4.
	assert.InDelta(t, 1.5, ds.Interp("u10", 30.5, 120.5, gridT0), 1e-12)

	// Center of the full cube: (1.5 + 11.5) / 2.
	assert.InDelta(t, 6.5, ds.Interp("u10", 30.5, 120.5, gridT0.Add(30*time.Minute)), 1e-12)
}

func TestInterpOutsideDomain(t *testing.T) {
	ds := newTestDataset(t)

	assert.True(t, math.IsNaN(ds.Interp("u10", 29.9, 120.5, gridT0)), "below lat range")
	assert.True(t, math.IsNaN(ds.Interp("u10", 30.5, 121.1, gridT0)), "beyond lon range")
	assert.True(t, math.IsNaN(ds.Interp("u10", 30.5, 120.5, gridT0.Add(-time.Second))), "before time range")
	assert.True(t, math.IsNaN(ds.Interp("u10", 30.5, 120.5, gridT0.Add(2*time.Hour))), "after time range")
	assert.True(t, math.IsNaN(ds.Interp("w10", 30.5, 120.5, gridT0)), "unknown variable")
}

func TestInterpOneElementAxis(t *testing.T) {
	ds, err := NewDataset([]float64{30}, []float64{120, 121}, []time.Time{gridT0})
	require.NoError(t, err)
	require.NoError(t, ds.AddVar("u10", []float64{4, 8}))

	// A one-element axis only matches its node exactly.
	assert.Equal(t, 6.0, ds.Interp("u10", 30, 120.5, gridT0))
	assert.True(t, math.IsNaN(ds.Interp("u10", 30.1, 120.5, gridT0)))
}

func TestSampleUV(t *testing.T) {
	ds := newTestDataset(t)

	u, v := ds.SampleUV(31, 121, gridT0)
	assert.Equal(t, 3.0, u)
	assert.Equal(t, -3.0, v)
}
