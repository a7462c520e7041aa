// Package schema derives and caches per-source-file column semantics: which
// physical column carries which semantic role, the sampling interval, and
// per-role value ranges. A schema is built once per source file, persisted
// next to the source, and replaced wholesale on regeneration; it is never
// mutated field-by-field.
package schema

import (
	"context"
	"fmt"
	"time"
)

// Well-known roles. Any other role name is an arbitrary sensor field.
const (
	RoleLatitude  = "latitude"
	RoleLongitude = "longitude"
	RoleTimestamp = "timestamp"
)

// Error reports a failure to derive required schema metadata from a source.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema for %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("schema for %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Fingerprint identifies the source file contents a schema was derived from.
// A mismatch on load invalidates the cached document.
type Fingerprint struct {
	Size    int64  `yaml:"size"`
	ModTime string `yaml:"mod_time"`
}

// ValueRange holds the observed extent of one role's column. Numeric roles
// use Min/Max. The timestamp role uses TimeMin/TimeMax as formatted instants.
// Longitude is split into its negative and positive sub-ranges because
// wrap-around makes a single range ambiguous at the antimeridian: Neg is
// [max, min] over values in [-180, 0), Pos is [min, max] over [0, 180].
type ValueRange struct {
	Min     *float64  `yaml:"min,omitempty"`
	Max     *float64  `yaml:"max,omitempty"`
	TimeMin string    `yaml:"time_min,omitempty"`
	TimeMax string    `yaml:"time_max,omitempty"`
	Neg     []float64 `yaml:"neg,flow,omitempty"`
	Pos     []float64 `yaml:"pos,flow,omitempty"`
}

// Schema is the resolved role→column mapping plus derived statistics for one
// source file. Read-only after construction.
type Schema struct {
	FileType     string                `yaml:"filetype"`
	Roles        map[string]int        `yaml:"roles"`
	DeltaSeconds *float64              `yaml:"delta_seconds"`
	Ranges       map[string]ValueRange `yaml:"ranges"`
	Source       Fingerprint           `yaml:"source"`
}

// Column resolves a role to its source column index.
func (s *Schema) Column(role string) (int, bool) {
	idx, ok := s.Roles[role]
	return idx, ok
}

// HasRole reports whether the schema declares the role.
func (s *Schema) HasRole(role string) bool {
	_, ok := s.Roles[role]
	return ok
}

// RoleInferrer maps raw column headers to semantic roles. The production
// implementation asks a language model; tests use a deterministic stub.
// The returned map is keyed by role name with 0-based column indices.
type RoleInferrer interface {
	InferRoles(ctx context.Context, headers []string) (map[string]int, error)
}

// timeLayouts are tried in order when parsing timestamp cells. Sensor exports
// are inconsistent about separators, so several close variants are accepted.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
}

// rangeTimeLayout formats timestamp range bounds in the persisted document.
const rangeTimeLayout = "2006-01-02 15:04:05"

// ParseTime parses a raw timestamp cell, trying each accepted layout.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
