package schema

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/Continy/ShipTrackViz/internal/observability"
	"github.com/Continy/ShipTrackViz/internal/table"
)

// docName is the persisted schema document inside a source's cache directory.
const docName = "schema.yaml"

// Cache loads persisted schema documents and rebuilds them when missing,
// stale, or forced. Access to the same source path must be serialized by the
// caller; the cache itself takes no locks.
type Cache struct {
	inferrer RoleInferrer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewCache creates a schema cache backed by the given role inferrer.
func NewCache(inferrer RoleInferrer, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{inferrer: inferrer, logger: logger, metrics: metrics}
}

// Dir returns the cache directory for a source path: a sibling directory
// named after the source's stem.
func Dir(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(filepath.Dir(sourcePath), stem)
}

// LoadOrBuild returns the schema for sourcePath, reusing the persisted
// document when it exists and still matches the source fingerprint. With
// force set, any cached contents are deleted and the schema is re-derived.
func (c *Cache) LoadOrBuild(ctx context.Context, sourcePath, encoding string, force bool) (*Schema, error) {
	fileType, err := table.FileType(sourcePath)
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("fingerprint source: %w", err)
	}

	docPath := filepath.Join(Dir(sourcePath), docName)

	if !force {
		if cached := c.loadCached(docPath, fp); cached != nil {
			c.metrics.SchemaCacheHits.Inc()
			return cached, nil
		}
	}
	c.metrics.SchemaCacheMisses.Inc()

	sch, err := c.build(ctx, sourcePath, fileType, encoding, fp)
	if err != nil {
		return nil, err
	}

	if err := c.persist(sourcePath, docPath, sch); err != nil {
		return nil, err
	}
	c.metrics.SchemaCacheRebuilds.Inc()
	return sch, nil
}

// loadCached returns the persisted schema when it is readable and matches the
// source fingerprint, nil otherwise. Unreadable or stale documents trigger a
// rebuild rather than an error.
func (c *Cache) loadCached(docPath string, fp Fingerprint) *Schema {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil
	}
	var sch Schema
	if err := yaml.Unmarshal(data, &sch); err != nil {
		c.logger.Warn("corrupt schema document, rebuilding", "path", docPath, "error", err)
		return nil
	}
	if sch.Source != fp {
		c.logger.Info("source changed since schema was derived, rebuilding",
			"path", docPath, "cached", sch.Source, "current", fp)
		return nil
	}
	return &sch
}

func (c *Cache) persist(sourcePath, docPath string, sch *Schema) error {
	dir := Dir(sourcePath)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear schema cache: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create schema cache dir: %w", err)
	}
	data, err := yaml.Marshal(sch)
	if err != nil {
		return fmt.Errorf("encode schema document: %w", err)
	}
	if err := os.WriteFile(docPath, data, 0o644); err != nil {
		return fmt.Errorf("persist schema document: %w", err)
	}
	return nil
}

// build derives a fresh schema: headers → inferred roles → delta time and
// per-role value ranges.
func (c *Cache) build(ctx context.Context, sourcePath, fileType, encoding string, fp Fingerprint) (*Schema, error) {
	src, err := table.Open(sourcePath, encoding)
	if err != nil {
		return nil, err
	}

	headers := src.Header()
	if len(headers) == 0 {
		return nil, &Error{Path: sourcePath, Reason: "source has no header columns"}
	}

	inferred, err := c.inferrer.InferRoles(ctx, headers)
	if err != nil {
		return nil, fmt.Errorf("infer roles for %s: %w", sourcePath, err)
	}

	roles := make(map[string]int, len(inferred))
	for role, idx := range inferred {
		if idx < 0 || idx >= len(headers) {
			c.logger.Warn("inferred role points outside header, dropping",
				"source", sourcePath, "role", role, "column", idx, "columns", len(headers))
			continue
		}
		roles[role] = idx
	}

	sch := &Schema{
		FileType: fileType,
		Roles:    roles,
		Ranges:   make(map[string]ValueRange),
		Source:   fp,
	}

	delta, err := deriveDeltaTime(sourcePath, src, roles, c.logger)
	if err != nil {
		return nil, err
	}
	sch.DeltaSeconds = delta

	for _, role := range sortedRoles(roles) {
		vr, ok := deriveRange(src, role, roles[role], c.logger, sourcePath)
		if ok {
			sch.Ranges[role] = vr
		}
	}

	return sch, nil
}

// deriveDeltaTime estimates the sampling interval from the first two
// timestamp rows. An absent or empty timestamp column, or unparseable leading
// values, are schema errors; a single-row source degrades to a nil interval.
func deriveDeltaTime(sourcePath string, src *table.Table, roles map[string]int, logger *slog.Logger) (*float64, error) {
	idx, ok := roles[RoleTimestamp]
	if !ok {
		return nil, &Error{Path: sourcePath, Reason: "no timestamp role inferred"}
	}
	col, err := src.Column(idx)
	if err != nil {
		return nil, &Error{Path: sourcePath, Reason: "timestamp column unreadable", Err: err}
	}
	if len(col) == 0 {
		return nil, &Error{Path: sourcePath, Reason: "timestamp column is empty"}
	}
	if len(col) == 1 {
		logger.Warn("single-row source, sampling interval unknown", "source", sourcePath)
		return nil, nil
	}

	t0, err := ParseTime(col[0])
	if err != nil {
		return nil, &Error{Path: sourcePath, Reason: "first timestamp does not parse", Err: err}
	}
	t1, err := ParseTime(col[1])
	if err != nil {
		return nil, &Error{Path: sourcePath, Reason: "second timestamp does not parse", Err: err}
	}

	delta := t1.Sub(t0).Seconds()
	return &delta, nil
}

// deriveRange computes one role's value range. Failures degrade to an absent
// range with a logged warning; they never abort schema construction.
func deriveRange(src *table.Table, role string, idx int, logger *slog.Logger, sourcePath string) (ValueRange, bool) {
	col, err := src.Column(idx)
	if err != nil || len(col) == 0 {
		logger.Warn("range derivation skipped: column unreadable or empty",
			"source", sourcePath, "role", role, "column", idx)
		return ValueRange{}, false
	}

	if role == RoleTimestamp {
		return deriveTimeRange(col, logger, sourcePath)
	}

	vals := parseNumericColumn(col)
	if len(vals) == 0 {
		logger.Warn("range derivation skipped: no numeric values",
			"source", sourcePath, "role", role)
		return ValueRange{}, false
	}

	if role == RoleLongitude {
		return deriveLongitudeRange(vals), true
	}

	minV, maxV := floats.Min(vals), floats.Max(vals)
	return ValueRange{Min: &minV, Max: &maxV}, true
}

func deriveTimeRange(col []string, logger *slog.Logger, sourcePath string) (ValueRange, bool) {
	var vr ValueRange
	parsedAny := false
	for _, cell := range col {
		t, err := ParseTime(cell)
		if err != nil {
			continue
		}
		formatted := t.Format(rangeTimeLayout)
		if !parsedAny {
			vr.TimeMin, vr.TimeMax = formatted, formatted
			parsedAny = true
			continue
		}
		if formatted < vr.TimeMin {
			vr.TimeMin = formatted
		}
		if formatted > vr.TimeMax {
			vr.TimeMax = formatted
		}
	}
	if !parsedAny {
		logger.Warn("range derivation skipped: no parseable timestamps", "source", sourcePath)
		return ValueRange{}, false
	}
	return vr, true
}

// deriveLongitudeRange splits values into the [-180, 0) and [0, 180]
// sub-ranges. Neg is ordered [max, min] (closest-to-zero first), Pos is
// [min, max], matching the reanalysis-download convention the ranges feed.
func deriveLongitudeRange(vals []float64) ValueRange {
	var neg, pos []float64
	for _, v := range vals {
		if v < 0 {
			neg = append(neg, v)
		} else {
			pos = append(pos, v)
		}
	}
	var vr ValueRange
	if len(neg) > 0 {
		vr.Neg = []float64{floats.Max(neg), floats.Min(neg)}
	}
	if len(pos) > 0 {
		vr.Pos = []float64{floats.Min(pos), floats.Max(pos)}
	}
	return vr
}

// parseNumericColumn keeps the cells that parse as floats, dropping the rest.
func parseNumericColumn(col []string) []float64 {
	out := make([]float64, 0, len(col))
	for _, cell := range col {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sortedRoles(roles map[string]int) []string {
	out := make([]string, 0, len(roles))
	for role := range roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// fingerprint captures the source identity the schema depends on.
func fingerprint(sourcePath string) (Fingerprint, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Format("2006-01-02T15:04:05.999999999Z"),
	}, nil
}
