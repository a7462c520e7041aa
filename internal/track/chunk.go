package track

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Continy/ShipTrackViz/internal/schema"
	"github.com/Continy/ShipTrackViz/internal/table"
)

// ClipFunc maps a raw reading to a cleaned one. Returning NaN nulls the
// reading out; clipping never raises.
type ClipFunc func(float64) float64

// ClipRange builds a ClipFunc that nulls values outside [min, max].
func ClipRange(min, max float64) ClipFunc {
	return func(v float64) float64 {
		if v < min || v > max {
			return math.NaN()
		}
		return v
	}
}

// DataChunk is a lazy, indexed view over one tabular source. It owns a schema
// and a fixed post-restriction length; it does not own the decoded rows and
// re-reads the source per keyed request, so a changed restriction can never
// serve a stale slice.
type DataChunk struct {
	path     string
	encoding string
	schema   *schema.Schema
	start    int // row restriction, [start, end) over the source's data rows
	end      int
	clips    map[string]ClipFunc
	logger   *slog.Logger
}

// ChunkOption configures chunk construction.
type ChunkOption func(*chunkConfig)

type chunkConfig struct {
	start, end int
	hasRange   bool
	clips      map[string]ClipFunc
	encoding   string
	force      bool
	logger     *slog.Logger
}

// WithRowRange restricts the chunk to source data rows [start, end). The end
// is clamped to the row count.
func WithRowRange(start, end int) ChunkOption {
	return func(c *chunkConfig) {
		c.start, c.end, c.hasRange = start, end, true
	}
}

// WithClip registers a per-role clip function applied by Data.
func WithClip(role string, fn ClipFunc) ChunkOption {
	return func(c *chunkConfig) {
		if c.clips == nil {
			c.clips = make(map[string]ClipFunc)
		}
		c.clips[role] = fn
	}
}

// WithEncoding sets the text encoding for reading the source (see table).
func WithEncoding(encoding string) ChunkOption {
	return func(c *chunkConfig) { c.encoding = encoding }
}

// WithForceSchema forces schema regeneration even when a cached document exists.
func WithForceSchema() ChunkOption {
	return func(c *chunkConfig) { c.force = true }
}

// WithChunkLogger sets the logger for degraded-path warnings.
func WithChunkLogger(logger *slog.Logger) ChunkOption {
	return func(c *chunkConfig) { c.logger = logger }
}

// NewChunk opens the source at path, consulting (or building) its schema via
// the cache, and fixes the chunk's length from the restricted row count.
func NewChunk(ctx context.Context, path string, cache *schema.Cache, opts ...ChunkOption) (*DataChunk, error) {
	cfg := chunkConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	sch, err := cache.LoadOrBuild(ctx, path, cfg.encoding, cfg.force)
	if err != nil {
		return nil, err
	}

	src, err := table.Open(path, cfg.encoding)
	if err != nil {
		return nil, err
	}
	n := src.NumRows()

	start, end := 0, n
	if cfg.hasRange {
		start, end = cfg.start, cfg.end
		if end > n {
			end = n
		}
		if start < 0 || start > end {
			return nil, fmt.Errorf("invalid row range [%d, %d) for %d rows", cfg.start, cfg.end, n)
		}
	}

	return &DataChunk{
		path:     path,
		encoding: cfg.encoding,
		schema:   sch,
		start:    start,
		end:      end,
		clips:    cfg.clips,
		logger:   cfg.logger,
	}, nil
}

// Len returns the post-restriction row count, fixed at construction. Every
// Data and Timestamps call returns exactly this many values.
func (c *DataChunk) Len() int { return c.end - c.start }

// Path returns the backing source path.
func (c *DataChunk) Path() string { return c.path }

// Schema returns the chunk's resolved schema.
func (c *DataChunk) Schema() *schema.Schema { return c.schema }

// Data resolves a numeric role to its restricted column values. Cells that do
// not parse become NaN, and any registered clip function is applied. The
// timestamp role is time-typed; use Timestamps for it.
func (c *DataChunk) Data(role string) ([]float64, error) {
	if role == schema.RoleTimestamp {
		return nil, fmt.Errorf("role %q is time-typed, use Timestamps", role)
	}
	col, err := c.column(role)
	if err != nil {
		return nil, err
	}

	clip := c.clips[role]
	out := make([]float64, len(col))
	for i, cell := range col {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		if clip != nil {
			v = clip(v)
		}
		out[i] = v
	}
	return out, nil
}

// Timestamps resolves the timestamp role to restricted instants. Unparseable
// cells are zero instants; callers treat those as missing.
func (c *DataChunk) Timestamps() ([]time.Time, error) {
	col, err := c.column(schema.RoleTimestamp)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(col))
	for i, cell := range col {
		t, err := schema.ParseTime(strings.TrimSpace(cell))
		if err != nil {
			c.logger.Warn("unparseable timestamp cell", "source", c.path, "row", c.start+i, "cell", cell)
			continue
		}
		out[i] = t
	}
	return out, nil
}

// column reads one role's raw restricted cells, re-opening the source.
func (c *DataChunk) column(role string) ([]string, error) {
	idx, ok := c.schema.Column(role)
	if !ok {
		return nil, fmt.Errorf("%w: %q not in schema for %s", ErrUnknownField, role, c.path)
	}
	src, err := table.Open(c.path, c.encoding)
	if err != nil {
		return nil, err
	}
	col, err := src.Column(idx)
	if err != nil {
		return nil, err
	}
	if c.end > len(col) {
		return nil, fmt.Errorf("source %s shrank below restriction [%d, %d)", c.path, c.start, c.end)
	}
	return col[c.start:c.end], nil
}
