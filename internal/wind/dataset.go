// Package wind interpolates gridded, time-varying wind fields onto trajectory
// samples and derives secondary quantities (speed, bearing, apparent wind).
package wind

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Dataset is a multi-dimensional labeled array keyed by latitude, longitude
// and time. Variables are stored row-major as [time][lat][lon]. Axes must be
// strictly ascending; loaders reorder descending source axes before
// construction. Read-only once populated.
type Dataset struct {
	lats  []float64
	lons  []float64
	times []time.Time

	// timeSec caches the time axis as seconds since times[0].
	timeSec []float64

	vars map[string][]float64
}

// NewDataset creates a grid over the given axes. Each axis must be strictly
// ascending and non-empty.
func NewDataset(lats, lons []float64, times []time.Time) (*Dataset, error) {
	if len(lats) == 0 || len(lons) == 0 || len(times) == 0 {
		return nil, fmt.Errorf("empty grid axis: %d lats, %d lons, %d times", len(lats), len(lons), len(times))
	}
	if !sort.Float64sAreSorted(lats) || !strictlyAscending(lats) {
		return nil, fmt.Errorf("latitude axis not strictly ascending")
	}
	if !sort.Float64sAreSorted(lons) || !strictlyAscending(lons) {
		return nil, fmt.Errorf("longitude axis not strictly ascending")
	}
	timeSec := make([]float64, len(times))
	for i, t := range times {
		timeSec[i] = t.Sub(times[0]).Seconds()
	}
	if !strictlyAscending(timeSec) {
		return nil, fmt.Errorf("time axis not strictly ascending")
	}
	return &Dataset{
		lats:    lats,
		lons:    lons,
		times:   times,
		timeSec: timeSec,
		vars:    make(map[string][]float64),
	}, nil
}

// AddVar attaches a variable's values, which must cover the full grid.
func (d *Dataset) AddVar(name string, vals []float64) error {
	want := len(d.times) * len(d.lats) * len(d.lons)
	if len(vals) != want {
		return fmt.Errorf("variable %q has %d values, grid needs %d", name, len(vals), want)
	}
	d.vars[name] = vals
	return nil
}

// HasVar reports whether the dataset carries the named variable.
func (d *Dataset) HasVar(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Vars returns the variable names in sorted order.
func (d *Dataset) Vars() []string {
	out := make([]string, 0, len(d.vars))
	for name := range d.vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Interp returns the trilinear (lat x lon x time) interpolation of a variable
// at the given coordinates. Coordinates outside the grid's spatial or
// temporal extent yield NaN, never an error: large batches routinely straddle
// grid edges, and misses must propagate as nulls through downstream
// arithmetic.
func (d *Dataset) Interp(name string, lat, lon float64, t time.Time) float64 {
	vals, ok := d.vars[name]
	if !ok {
		return math.NaN()
	}

	ila, fla, ok := bracket(d.lats, lat)
	if !ok {
		return math.NaN()
	}
	ilo, flo, ok := bracket(d.lons, lon)
	if !ok {
		return math.NaN()
	}
	it, ft, ok := bracket(d.timeSec, t.Sub(d.times[0]).Seconds())
	if !ok {
		return math.NaN()
	}

	// Upper corner indexes are clamped so one-element axes (frac always 0,
	// upper corner unused by lerp) stay in bounds.
	nLat, nLon, nTime := len(d.lats), len(d.lons), len(d.times)
	at := func(it, ila, ilo int) float64 {
		it = min(it, nTime-1)
		ila = min(ila, nLat-1)
		ilo = min(ilo, nLon-1)
		return vals[(it*nLat+ila)*nLon+ilo]
	}

	// Interpolate along lon, then lat, then time.
	c00 := lerp(at(it, ila, ilo), at(it, ila, ilo+1), flo)
	c01 := lerp(at(it, ila+1, ilo), at(it, ila+1, ilo+1), flo)
	c10 := lerp(at(it+1, ila, ilo), at(it+1, ila, ilo+1), flo)
	c11 := lerp(at(it+1, ila+1, ilo), at(it+1, ila+1, ilo+1), flo)

	c0 := lerp(c00, c01, fla)
	c1 := lerp(c10, c11, fla)
	return lerp(c0, c1, ft)
}

// SampleUV returns the interpolated 10m wind components. It implements the
// track package's WindSampler.
func (d *Dataset) SampleUV(lat, lon float64, t time.Time) (u, v float64) {
	return d.Interp("u10", lat, lon, t), d.Interp("v10", lat, lon, t)
}

// bracket locates x on an ascending axis: the lower cell index and the
// fractional offset within the cell. Values outside [axis[0], axis[n-1]]
// miss. A one-element axis only matches exactly.
func bracket(axis []float64, x float64) (int, float64, bool) {
	n := len(axis)
	if x < axis[0] || x > axis[n-1] {
		return 0, 0, false
	}
	if n == 1 {
		return 0, 0, true
	}
	i := sort.SearchFloat64s(axis, x)
	if i < n && axis[i] == x {
		// Exact node: anchor on it so grid points reproduce node values.
		if i == n-1 {
			return i - 1, 1, true
		}
		return i, 0, true
	}
	i--
	frac := (x - axis[i]) / (axis[i+1] - axis[i])
	return i, frac, true
}

func lerp(a, b, f float64) float64 {
	if f == 0 {
		return a
	}
	if f == 1 {
		return b
	}
	return a + (b-a)*f
}

func strictlyAscending(s []float64) bool {
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			return false
		}
	}
	return true
}
