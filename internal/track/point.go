package track

import (
	"fmt"
	"math"
	"sort"
	"time"
	"weak"

	"github.com/Continy/ShipTrackViz/internal/geo"
)

// WindSampler is the environment linkage a point carries: something that can
// produce the 10m wind components at a position and instant. The gridded
// wind dataset implements it.
type WindSampler interface {
	SampleUV(lat, lon float64, t time.Time) (u, v float64)
}

// TrajPoint is one trajectory sample. Position and timestamp are immutable
// after construction; the open field map may gain keys (fusion results) but
// the seeded latitude/longitude/timestamp entries can never be replaced.
type TrajPoint struct {
	lat, lon float64
	ts       time.Time
	fields   map[string]FieldValue

	// parent is a navigation relation only. The weak reference keeps an
	// arbitrarily long Follow chain from retaining every ancestor: dropping
	// a predecessor elsewhere lets it be collected independently.
	parent    weak.Pointer[TrajPoint]
	hasParent bool

	env          WindSampler
	windU, windV float64
}

// NewPoint builds a sample at (lat, lon) and ts. The field map is seeded with
// the position and timestamp plus any extra fields supplied; extra entries
// under the seeded keys are ignored rather than trusted over the arguments.
func NewPoint(lat, lon float64, ts time.Time, extra map[string]FieldValue) *TrajPoint {
	p := &TrajPoint{
		lat: lat, lon: lon, ts: ts,
		fields: make(map[string]FieldValue, len(extra)+3),
		windU:  math.NaN(),
		windV:  math.NaN(),
	}
	p.fields["latitude"] = Float(lat)
	p.fields["longitude"] = Float(lon)
	p.fields["timestamp"] = Time(ts)
	for key, v := range extra {
		if isSeededKey(key) {
			continue
		}
		p.fields[key] = v
	}
	return p
}

// Follow is the sole constructor for dead-reckoned points: the new position
// is the parent's displaced by (dxEast, dyNorth) meters on the flat-earth
// approximation, the timestamp is the parent's plus elapsed. The new point
// inherits the parent's environment linkage but not its field map, and holds
// the parent as a non-owning ancestor reference only.
func Follow(parent *TrajPoint, dxEast, dyNorth float64, elapsed time.Duration) *TrajPoint {
	lat, lon := geo.Displace(parent.lat, parent.lon, dxEast, dyNorth)
	p := NewPoint(lat, lon, parent.ts.Add(elapsed), nil)
	p.parent = weak.Make(parent)
	p.hasParent = true
	p.env = parent.env
	if p.env != nil {
		p.windU, p.windV = p.env.SampleUV(p.lat, p.lon, p.ts)
	}
	return p
}

func (p *TrajPoint) Latitude() float64    { return p.lat }
func (p *TrajPoint) Longitude() float64   { return p.lon }
func (p *TrajPoint) Timestamp() time.Time { return p.ts }

// Parent returns the predecessor sample, or nil if there is none or it has
// been collected.
func (p *TrajPoint) Parent() *TrajPoint {
	if !p.hasParent {
		return nil
	}
	return p.parent.Value()
}

// Field returns the named field value.
func (p *TrajPoint) Field(key string) (FieldValue, bool) {
	v, ok := p.fields[key]
	return v, ok
}

// SetField adds or updates a field. The seeded latitude/longitude/timestamp
// entries are immutable and refuse overwrites.
func (p *TrajPoint) SetField(key string, v FieldValue) error {
	if isSeededKey(key) {
		return fmt.Errorf("field %q is immutable after construction", key)
	}
	p.fields[key] = v
	return nil
}

// FieldNames returns the field keys in sorted order.
func (p *TrajPoint) FieldNames() []string {
	names := make([]string, 0, len(p.fields))
	for key := range p.fields {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// SetEnv attaches the environment linkage used by Follow-derived points.
func (p *TrajPoint) SetEnv(s WindSampler) { p.env = s }

// SetWind sets the point's wind-state scalars.
func (p *TrajPoint) SetWind(u, v float64) {
	p.windU, p.windV = u, v
}

// Wind returns the wind-state scalars. ok is false until they are populated
// by fusion, Follow, or AdoptSurfaceWind.
func (p *TrajPoint) Wind() (u, v float64, ok bool) {
	if math.IsNaN(p.windU) && math.IsNaN(p.windV) {
		return p.windU, p.windV, false
	}
	return p.windU, p.windV, true
}

// AdoptSurfaceWind copies the fused u10/v10 fields into the wind-state
// scalars. Returns false when either field is missing.
func (p *TrajPoint) AdoptSurfaceWind() bool {
	uv, okU := p.fields["u10"]
	vv, okV := p.fields["v10"]
	if !okU || !okV {
		return false
	}
	u, okU := uv.Float()
	v, okV := vv.Float()
	if !okU || !okV {
		return false
	}
	p.windU, p.windV = u, v
	return true
}

func (p *TrajPoint) String() string {
	return fmt.Sprintf("TrajPoint(%.5f, %.5f, %s)", p.lat, p.lon, p.ts.Format(time.RFC3339))
}

func isSeededKey(key string) bool {
	return key == "latitude" || key == "longitude" || key == "timestamp"
}
