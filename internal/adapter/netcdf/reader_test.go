package netcdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		units     string
		wantStep  time.Duration
		wantEpoch time.Time
	}{
		{
			units:     "hours since 1900-01-01 00:00:00.0",
			wantStep:  time.Hour,
			wantEpoch: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			units:     "seconds since 1970-01-01",
			wantStep:  time.Second,
			wantEpoch: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			units:     "Days since 2000-01-01 12:00:00",
			wantStep:  24 * time.Hour,
			wantEpoch: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			step, epoch, err := parseTimeUnits(tt.units)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStep, step)
			assert.True(t, tt.wantEpoch.Equal(epoch))
		})
	}

	_, _, err := parseTimeUnits("fortnights since 1900-01-01")
	assert.Error(t, err)
	_, _, err = parseTimeUnits("hours")
	assert.Error(t, err)
	_, _, err = parseTimeUnits("hours since whenever")
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, flatten([]float32{1, 2, 3}))
	assert.Equal(t, []float64{1, 2, 3, 4}, flatten([][]float64{{1, 2}, {3, 4}}))
	assert.Equal(t, []float64{5}, flatten(float64(5)))
	assert.Equal(t, []float64{7, 8}, flatten([]int16{7, 8}))
	assert.Empty(t, flatten(nil))
	assert.Empty(t, flatten("not numeric"))

	// The usual [time][lat][lon] nesting.
	nested := [][][]float32{
		{{1, 2}, {3, 4}},
		{{5, 6}, {7, 8}},
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, flatten(nested))
}

func TestReverse(t *testing.T) {
	vals := []float64{3, 2, 1}
	reverse(vals)
	assert.Equal(t, []float64{1, 2, 3}, vals)

	even := []float64{4, 3, 2, 1}
	reverse(even)
	assert.Equal(t, []float64{1, 2, 3, 4}, even)
}

func TestFlipLat(t *testing.T) {
	// 2 times, 3 lats, 2 lons.
	vals := []float64{
		0, 1, 2, 3, 4, 5, // t0: lat rows [0,1] [2,3] [4,5]
		6, 7, 8, 9, 10, 11, // t1
	}
	flipLat(vals, 2, 3, 2)
	assert.Equal(t, []float64{
		4, 5, 2, 3, 0, 1,
		10, 11, 8, 9, 6, 7,
	}, vals)
}
