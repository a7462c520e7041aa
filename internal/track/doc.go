// Package track fuses tabular vessel-track sources into a single ordered,
// queryable trajectory.
//
// # Data Model
//
// A chunk is one contiguous tabular source (CSV or XLSX) whose column
// semantics come from an inferred schema, never from header text directly.
// The same row index resolved through any role of one chunk refers to the
// same physical observation; that row-alignment invariant is what makes
// zipping columns into points sound.
//
// A trajectory aggregates one or more chunks (or an explicit point list)
// into a global index. Each backing chunk owns a contiguous [start, end)
// span of that index; spans are recomputed from chunk lengths on every
// append and never overlap.
//
// # Field conventions
//
// Point fields are an open map: any numeric sensor column a schema declares
// becomes a field, and fusion adds interpolated wind components and derived
// quantities under well-known names:
//
//	u10, v10     10m wind components, m/s east/north
//	u100, v100   100m wind components, when the grid provides them
//	w10, w100    wind speed, sqrt(u²+v²)
//	w10_angle,
//	w100_angle   signed math bearing, atan2(v, u) in degrees. NOT compass
//	             convention; see the wind package for the correction
//
// Missing readings propagate as NaN through all bulk arithmetic. A clipped
// sensor value, a failed parse, and an out-of-grid interpolation are all the
// same NaN to downstream consumers.
//
// # Dead reckoning
//
// Follow-derived points use the flat-earth displacement approximation (see
// the geo package) and hold their predecessor through a weak reference: the
// chain is navigable while ancestors remain alive, but a dropped ancestor is
// collectable regardless of its descendants.
package track
