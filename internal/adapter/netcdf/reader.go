// Package netcdf loads gridded wind fields from NetCDF files (ERA5-style
// reanalysis exports) into the wind package's in-memory dataset. The file
// handle is scoped to the load: nothing is retained once LoadDataset returns.
package netcdf

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/Continy/ShipTrackViz/internal/wind"
)

// windVars are the grid variables imported when present. u10/v10 are
// required; the 100m pair is optional.
var windVars = []string{"u10", "v10", "u100", "v100"}

// LoadDataset reads the coordinate axes and wind variables from a NetCDF
// file. Descending latitude axes (the reanalysis default) are reversed, with
// variable values reordered to match.
func LoadDataset(path string, logger *slog.Logger) (*wind.Dataset, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open netcdf %s: %w", path, err)
	}
	defer nc.Close()

	lats, err := coordAxis(nc, "latitude", "lat")
	if err != nil {
		return nil, err
	}
	lons, err := coordAxis(nc, "longitude", "lon")
	if err != nil {
		return nil, err
	}
	times, err := timeAxis(nc)
	if err != nil {
		return nil, err
	}

	latDescending := len(lats) > 1 && lats[0] > lats[1]
	if latDescending {
		reverse(lats)
	}

	ds, err := wind.NewDataset(lats, lons, times)
	if err != nil {
		return nil, fmt.Errorf("grid axes in %s: %w", path, err)
	}

	loaded := 0
	for _, name := range windVars {
		vals, err := dataVar(nc, name, len(times), len(lats), len(lons), latDescending)
		if err != nil {
			logger.Warn("grid variable unavailable", "path", path, "var", name, "error", err)
			continue
		}
		if err := ds.AddVar(name, vals); err != nil {
			return nil, err
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("netcdf %s provides none of %v", path, windVars)
	}
	return ds, nil
}

func reverse(vals []float64) {
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
}

// coordAxis reads a 1-D coordinate variable, trying each candidate name.
func coordAxis(nc api.Group, names ...string) ([]float64, error) {
	for _, name := range names {
		vr, err := nc.GetVariable(name)
		if err != nil || vr == nil {
			continue
		}
		vals := flatten(vr.Values)
		if len(vals) == 0 {
			continue
		}
		return vals, nil
	}
	return nil, fmt.Errorf("no coordinate variable named any of %v", names)
}

// timeAxis reads the time coordinate and decodes its CF-style units
// attribute ("<unit> since <epoch>") into instants.
func timeAxis(nc api.Group) ([]time.Time, error) {
	var vr *api.Variable
	var err error
	for _, name := range []string{"time", "valid_time"} {
		vr, err = nc.GetVariable(name)
		if err == nil && vr != nil {
			break
		}
	}
	if vr == nil {
		return nil, fmt.Errorf("no time coordinate variable")
	}

	unitsAttr, ok := vr.Attributes.Get("units")
	if !ok {
		return nil, fmt.Errorf("time variable lacks units attribute")
	}
	units, ok := unitsAttr.(string)
	if !ok {
		return nil, fmt.Errorf("time units attribute is not a string")
	}

	step, epoch, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}

	raw := flatten(vr.Values)
	out := make([]time.Time, len(raw))
	for i, v := range raw {
		out[i] = epoch.Add(time.Duration(v * float64(step)))
	}
	return out, nil
}

// parseTimeUnits decodes CF time units like "hours since 1900-01-01 00:00:00.0".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("unrecognized time units %q", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds":
		step = time.Second
	case "minutes":
		step = time.Minute
	case "hours":
		step = time.Hour
	case "days":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unrecognized time unit %q", parts[0])
	}

	epochStr := strings.TrimSpace(parts[1])
	for _, layout := range []string{
		"2006-01-02 15:04:05.0",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC3339,
	} {
		if epoch, err := time.Parse(layout, epochStr); err == nil {
			return step, epoch, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unparseable time epoch %q", epochStr)
}

// dataVar reads one [time][lat][lon] variable, applying CF packing
// (scale_factor/add_offset) and missing-value substitution, and reordering
// the latitude dimension when the source axis was descending.
func dataVar(nc api.Group, name string, nTime, nLat, nLon int, latDescending bool) ([]float64, error) {
	vr, err := nc.GetVariable(name)
	if err != nil {
		return nil, err
	}
	if vr == nil {
		return nil, fmt.Errorf("variable missing")
	}

	vals := flatten(vr.Values)
	want := nTime * nLat * nLon
	if len(vals) != want {
		return nil, fmt.Errorf("variable has %d values, grid needs %d", len(vals), want)
	}

	scale, hasScale := attrFloat(vr.Attributes, "scale_factor")
	offset, hasOffset := attrFloat(vr.Attributes, "add_offset")
	missing, hasMissing := attrFloat(vr.Attributes, "missing_value")
	fill, hasFill := attrFloat(vr.Attributes, "_FillValue")

	for i, v := range vals {
		if (hasMissing && v == missing) || (hasFill && v == fill) {
			vals[i] = math.NaN()
			continue
		}
		if hasScale {
			v *= scale
		}
		if hasOffset {
			v += offset
		}
		vals[i] = v
	}

	if latDescending {
		flipLat(vals, nTime, nLat, nLon)
	}
	return vals, nil
}

// flipLat reverses the latitude dimension of a [time][lat][lon] block in place.
func flipLat(vals []float64, nTime, nLat, nLon int) {
	for it := 0; it < nTime; it++ {
		base := it * nLat * nLon
		for ila := 0; ila < nLat/2; ila++ {
			a := base + ila*nLon
			b := base + (nLat-1-ila)*nLon
			for ilo := 0; ilo < nLon; ilo++ {
				vals[a+ilo], vals[b+ilo] = vals[b+ilo], vals[a+ilo]
			}
		}
	}
}

// attrFloat reads a numeric attribute, tolerating scalar and one-element
// array encodings.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	vals := flatten(raw)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// flatten converts an arbitrarily nested numeric array (as the NetCDF reader
// produces: [][][]float32 and friends) into a flat row-major []float64.
func flatten(v any) []float64 {
	var out []float64
	var walk func(rv reflect.Value)
	walk = func(rv reflect.Value) {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				walk(rv.Index(i))
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, rv.Float())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(rv.Int()))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(rv.Uint()))
		case reflect.Interface:
			walk(rv.Elem())
		}
	}
	if v != nil {
		walk(reflect.ValueOf(v))
	}
	return out
}
