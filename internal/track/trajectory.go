package track

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Continy/ShipTrackViz/internal/schema"
)

// Span is one chunk's contiguous [Start, End) range within the global point
// sequence.
type Span struct {
	Start, End int
}

// Trajectory is an ordered sequence of TrajPoints, optionally backed by data
// chunks. Chunk spans partition the global index: they are computed purely
// from chunk lengths and recomputed on every append.
type Trajectory struct {
	points []*TrajPoint
	chunks []*DataChunk
	spans  []Span

	// bag holds trajectory-level fusion results, one value per point.
	bag map[string][]float64

	logger *slog.Logger
}

// Option configures trajectory construction.
type Option func(*trajInit)

type trajInit struct {
	points    []*TrajPoint
	hasPoints bool
	chunk     *DataChunk
	logger    *slog.Logger
}

// WithPoints constructs the trajectory from an explicit point sequence. Such
// a trajectory owns no chunk partition; keyed lookup resolves only against
// the fusion bag and the points' own field maps.
func WithPoints(points []*TrajPoint) Option {
	return func(t *trajInit) {
		t.points = points
		t.hasPoints = true
	}
}

// WithChunk constructs the trajectory by materializing every point of one chunk.
func WithChunk(c *DataChunk) Option {
	return func(t *trajInit) { t.chunk = c }
}

// WithLogger sets the logger for degraded-path warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(t *trajInit) { t.logger = logger }
}

// New builds a trajectory from exactly one of an explicit point sequence or a
// chunk. Supplying both fails with ErrConflictingInit; supplying neither
// yields an empty trajectory with a logged warning.
func New(opts ...Option) (*Trajectory, error) {
	init := trajInit{logger: slog.Default()}
	for _, opt := range opts {
		opt(&init)
	}

	if init.hasPoints && init.chunk != nil {
		return nil, ErrConflictingInit
	}

	t := &Trajectory{
		bag:    make(map[string][]float64),
		logger: init.logger,
	}

	switch {
	case init.hasPoints:
		t.points = append(t.points, init.points...)
	case init.chunk != nil:
		if err := t.AppendChunk(init.chunk); err != nil {
			return nil, err
		}
	default:
		t.logger.Warn("trajectory constructed with neither points nor a chunk")
	}
	return t, nil
}

// AppendChunk materializes the chunk's points at the end of the sequence and
// extends the partition by [previousEnd, previousEnd+chunk.Len()). A chunk of
// length zero appends an empty span without error.
func (t *Trajectory) AppendChunk(c *DataChunk) error {
	pts, err := materialize(c, t.logger)
	if err != nil {
		return err
	}
	start := len(t.points)
	t.points = append(t.points, pts...)
	t.chunks = append(t.chunks, c)
	t.spans = append(t.spans, Span{Start: start, End: start + c.Len()})
	return nil
}

// materialize bulk-reads every schema role of a chunk and zips the columns
// row-aligned into one point per row. Position and timestamp are required;
// any other role that fails to resolve is skipped with a warning.
func materialize(c *DataChunk, logger *slog.Logger) ([]*TrajPoint, error) {
	if c.Len() == 0 {
		return nil, nil
	}

	lats, err := c.Data(schema.RoleLatitude)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", c.Path(), err)
	}
	lons, err := c.Data(schema.RoleLongitude)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", c.Path(), err)
	}
	times, err := c.Timestamps()
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", c.Path(), err)
	}

	extras := make(map[string][]float64)
	for _, role := range sortedSchemaRoles(c.Schema()) {
		if role == schema.RoleLatitude || role == schema.RoleLongitude || role == schema.RoleTimestamp {
			continue
		}
		vals, err := c.Data(role)
		if err != nil {
			logger.Warn("skipping unresolvable sensor role", "source", c.Path(), "role", role, "error", err)
			continue
		}
		extras[role] = vals
	}

	pts := make([]*TrajPoint, c.Len())
	for i := range pts {
		fields := make(map[string]FieldValue, len(extras))
		for role, vals := range extras {
			fields[role] = Float(vals[i])
		}
		pts[i] = NewPoint(lats[i], lons[i], times[i], fields)
	}
	return pts, nil
}

// Len returns the number of points.
func (t *Trajectory) Len() int { return len(t.points) }

// At returns the i-th point.
func (t *Trajectory) At(i int) (*TrajPoint, error) {
	if i < 0 || i >= len(t.points) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(t.points))
	}
	return t.points[i], nil
}

// ChunkSpans returns a copy of the chunk partition in append order.
func (t *Trajectory) ChunkSpans() []Span {
	out := make([]Span, len(t.spans))
	copy(out, t.spans)
	return out
}

// Timestamps returns every point's instant in sequence order.
func (t *Trajectory) Timestamps() []time.Time {
	out := make([]time.Time, len(t.points))
	for i, p := range t.points {
		out[i] = p.Timestamp()
	}
	return out
}

// Key returns the bulk value sequence for a role: the fusion bag when it
// holds the role, otherwise the backing chunks' columns concatenated in
// partition order, otherwise (for chunkless trajectories) the points' own
// field maps. An empty trajectory, a role no source declares, or an empty
// result fails with ErrUnknownField; callers never receive a silently empty
// sequence. The returned slice is shared; callers must not mutate it.
func (t *Trajectory) Key(role string) ([]float64, error) {
	if len(t.points) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, role)
	}
	if vals, ok := t.bag[role]; ok {
		return vals, nil
	}
	if role == schema.RoleTimestamp {
		return nil, fmt.Errorf("role %q is time-typed, use Timestamps", role)
	}

	if len(t.chunks) > 0 {
		return t.keyFromChunks(role)
	}
	return t.keyFromPoints(role)
}

func (t *Trajectory) keyFromChunks(role string) ([]float64, error) {
	declared := false
	out := make([]float64, 0, len(t.points))
	for _, c := range t.chunks {
		if !c.Schema().HasRole(role) {
			continue
		}
		declared = true
		vals, err := c.Data(role)
		if err != nil {
			return nil, fmt.Errorf("resolve %q from %s: %w", role, c.Path(), err)
		}
		out = append(out, vals...)
	}
	if !declared || len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, role)
	}
	return out, nil
}

func (t *Trajectory) keyFromPoints(role string) ([]float64, error) {
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		fv, ok := p.Field(role)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, role)
		}
		v, ok := fv.Float()
		if !ok {
			return nil, fmt.Errorf("%w: %q is not numeric", ErrUnknownField, role)
		}
		out[i] = v
	}
	return out, nil
}

// Scalar returns the single value of a role whose sequence has exactly one
// element. Key never collapses one-element results implicitly; the collapse
// is always this explicit request.
func (t *Trajectory) Scalar(role string) (float64, error) {
	vals, err := t.Key(role)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("role %q has %d values, not a scalar", role, len(vals))
	}
	return vals[0], nil
}

// Subset builds a new chunk-detached trajectory holding the referenced points
// in the given order. Indices must be unique and in range; the fusion bag is
// not carried over (each point's field map already holds its fused values).
func (t *Trajectory) Subset(indices []int) (*Trajectory, error) {
	seen := make(map[int]struct{}, len(indices))
	pts := make([]*TrajPoint, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.points) {
			return nil, fmt.Errorf("%w: %d of %d", ErrInvalidIndex, idx, len(t.points))
		}
		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("%w: duplicate %d", ErrInvalidIndex, idx)
		}
		seen[idx] = struct{}{}
		pts[i] = t.points[idx]
	}
	return New(WithPoints(pts), WithLogger(t.logger))
}

// Extend grows the trajectory by dead-reckoning a new point from the last
// one (see Follow). The new point joins the sequence outside any chunk span.
func (t *Trajectory) Extend(dxEast, dyNorth float64, elapsed time.Duration) (*TrajPoint, error) {
	if len(t.points) == 0 {
		return nil, fmt.Errorf("%w: cannot extend an empty trajectory", ErrIndexOutOfRange)
	}
	p := Follow(t.points[len(t.points)-1], dxEast, dyNorth, elapsed)
	t.points = append(t.points, p)
	return p, nil
}

// ImportSeries writes a fusion result into the trajectory-level bag and every
// point's field map at the matching index. Keeping both writes here is what
// makes the two views numerically identical for the same index.
func (t *Trajectory) ImportSeries(name string, vals []float64) error {
	if len(vals) != len(t.points) {
		return fmt.Errorf("series %q has %d values for %d points", name, len(vals), len(t.points))
	}
	t.bag[name] = vals
	for i, p := range t.points {
		if err := p.SetField(name, Float(vals[i])); err != nil {
			return fmt.Errorf("import series %q: %w", name, err)
		}
	}
	return nil
}

// SeriesNames returns the fusion bag's keys, unsorted.
func (t *Trajectory) SeriesNames() []string {
	out := make([]string, 0, len(t.bag))
	for name := range t.bag {
		out = append(out, name)
	}
	return out
}

func sortedSchemaRoles(s *schema.Schema) []string {
	out := make([]string, 0, len(s.Roles))
	for role := range s.Roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
