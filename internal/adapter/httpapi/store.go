package httpapi

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Continy/ShipTrackViz/internal/track"
)

// ErrNoTrajectory is returned before the first fused trajectory is published.
var ErrNoTrajectory = errors.New("no trajectory loaded")

// Store holds the trajectory currently being served. The pipeline publishes
// with Replace; handlers read with Current. Readers never see a trajectory
// mid-swap.
type Store struct {
	clock clockwork.Clock

	mu       sync.RWMutex
	traj     *track.Trajectory
	loadedAt time.Time
}

// NewStore creates an empty store stamping publishes with the given clock.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{clock: clock}
}

// Replace publishes a trajectory and records the publish instant.
func (s *Store) Replace(traj *track.Trajectory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traj = traj
	s.loadedAt = s.clock.Now()
}

// Current returns the published trajectory and its publish instant.
func (s *Store) Current() (*track.Trajectory, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.traj == nil {
		return nil, time.Time{}, ErrNoTrajectory
	}
	return s.traj, s.loadedAt, nil
}
