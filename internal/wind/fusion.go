package wind

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Continy/ShipTrackViz/internal/track"
)

// Observer receives incremental progress during bulk imports. Reporting has
// no effect on ordering or correctness; a nil observer disables it.
type Observer interface {
	Progress(field string, done, total int)
}

// Stats summarizes one bulk wind import.
type Stats struct {
	Fields  []string
	Samples int
	Misses  int
}

// Fusion interpolates one grid dataset onto trajectories. The dataset handle
// is scoped to the fusion value; nothing is retained past an import call.
type Fusion struct {
	ds     *Dataset
	logger *slog.Logger
	obs    Observer
}

// NewFusion creates a fusion over the given dataset. obs may be nil.
func NewFusion(ds *Dataset, logger *slog.Logger, obs Observer) *Fusion {
	return &Fusion{ds: ds, logger: logger, obs: obs}
}

// ImportField interpolates one grid variable at every trajectory sample and
// writes the result both into the trajectory-level bag and each point's field
// map. Every point is visited, including points appended past the chunk
// partition; spans only pace progress reporting. Samples outside the grid's
// extent become NaN rather than failing the batch.
func (f *Fusion) ImportField(traj *track.Trajectory, name string) ([]float64, error) {
	if !f.ds.HasVar(name) {
		return nil, fmt.Errorf("grid dataset does not provide %q", name)
	}

	total := traj.Len()
	vals := make([]float64, total)

	covered := 0
	for _, span := range traj.ChunkSpans() {
		for i := span.Start; i < span.End; i++ {
			p, err := traj.At(i)
			if err != nil {
				return nil, err
			}
			vals[i] = f.ds.Interp(name, p.Latitude(), p.Longitude(), p.Timestamp())
		}
		covered = span.End
		if f.obs != nil {
			f.obs.Progress(name, span.End, total)
		}
	}
	for i := covered; i < total; i++ {
		p, err := traj.At(i)
		if err != nil {
			return nil, err
		}
		vals[i] = f.ds.Interp(name, p.Latitude(), p.Longitude(), p.Timestamp())
	}
	if f.obs != nil && covered < total {
		f.obs.Progress(name, total, total)
	}

	if err := traj.ImportSeries(name, vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// ImportWind imports the 10m wind components (and the 100m pair when the
// grid provides it), derives speed and signed bearing series, and attaches
// the dataset as every point's environment linkage. With adoptSurface set,
// each point's wind-state scalars are forced to the interpolated 10m wind,
// which overwrites any wind the source columns carried; a warning is logged.
func (f *Fusion) ImportWind(traj *track.Trajectory, adoptSurface bool) (Stats, error) {
	if !f.ds.HasVar("u10") || !f.ds.HasVar("v10") {
		return Stats{}, fmt.Errorf("grid dataset lacks 10m wind components")
	}

	levels := [][2]string{{"u10", "v10"}}
	if f.ds.HasVar("u100") && f.ds.HasVar("v100") {
		levels = append(levels, [2]string{"u100", "v100"})
	}

	var stats Stats
	for _, uv := range levels {
		us, err := f.ImportField(traj, uv[0])
		if err != nil {
			return stats, err
		}
		vs, err := f.ImportField(traj, uv[1])
		if err != nil {
			return stats, err
		}
		stats.Fields = append(stats.Fields, uv[0], uv[1])
		stats.Samples += 2 * traj.Len()
		stats.Misses += countNaN(us) + countNaN(vs)

		speeds := make([]float64, len(us))
		angles := make([]float64, len(us))
		for i := range us {
			speeds[i] = Speed(us[i], vs[i])
			angles[i] = MathBearing(us[i], vs[i])
		}
		speedName := "w" + uv[0][1:]            // u10 -> w10
		angleName := "w" + uv[0][1:] + "_angle" // u10 -> w10_angle
		if err := traj.ImportSeries(speedName, speeds); err != nil {
			return stats, err
		}
		if err := traj.ImportSeries(angleName, angles); err != nil {
			return stats, err
		}
		stats.Fields = append(stats.Fields, speedName, angleName)
	}

	if adoptSurface {
		f.logger.Warn("forcing wind-state scalars to the interpolated 10m wind")
	}
	for i := 0; i < traj.Len(); i++ {
		p, err := traj.At(i)
		if err != nil {
			return stats, err
		}
		p.SetEnv(f.ds)
		if adoptSurface {
			p.AdoptSurfaceWind()
		}
	}

	if stats.Misses > 0 {
		f.logger.Warn("interpolation misses at grid edges", "misses", stats.Misses, "samples", stats.Samples)
	}
	return stats, nil
}

func countNaN(vals []float64) int {
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
