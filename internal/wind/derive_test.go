package wind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeed(t *testing.T) {
	assert.Equal(t, 5.0, Speed(3, 4))
	assert.Equal(t, 0.0, Speed(0, 0))
	assert.True(t, math.IsNaN(Speed(math.NaN(), 4)))
}

func TestMathBearing(t *testing.T) {
	assert.InDelta(t, 0, MathBearing(1, 0), 1e-12)
	assert.InDelta(t, 90, MathBearing(0, 1), 1e-12)
	assert.InDelta(t, 180, MathBearing(-1, 0), 1e-12)
	assert.InDelta(t, -90, MathBearing(0, -1), 1e-12)
	assert.InDelta(t, 45, MathBearing(1, 1), 1e-12)
}

func TestCompassBearing(t *testing.T) {
	tests := []struct {
		name string
		u, v float64
		want float64
	}{
		{name: "north", u: 0, v: 1, want: 0},
		{name: "east", u: 1, v: 0, want: 90},
		{name: "south", u: 0, v: -1, want: 180},
		{name: "west", u: -1, v: 0, want: 270},
		{name: "northeast", u: 1, v: 1, want: 45},
		{name: "southwest", u: -1, v: -1, want: 225},
		{name: "northwest", u: -1, v: 1, want: 315},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CompassBearing(tt.u, tt.v), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(CompassBearing(0, 0)), "origin has no direction")
}

func TestApparent(t *testing.T) {
	// Ship moving east at 5 m/s in a pure westerly (wind from the west,
	// blowing east at 3 m/s): apparent wind is dead ahead at 8 m/s.
	appU, appV, appSpeed, sailAngle := Apparent(5, 0, 3, 0)
	assert.InDelta(t, -8, appU, 1e-12)
	assert.InDelta(t, 0, appV, 1e-12)
	assert.InDelta(t, 8, appSpeed, 1e-12)
	// Apparent wind opposes the heading exactly, so the sail-relative angle
	// closes to zero.
	assert.InDelta(t, 0, sailAngle, 1e-12)

	// Headwind case: ship east, wind blowing west faster than the ship.
	_, _, appSpeed, sailAngle = Apparent(5, 0, -8, 0)
	assert.InDelta(t, 3, appSpeed, 1e-12)
	assert.InDelta(t, math.Pi, sailAngle, 1e-12)
}

func TestApparentDegenerate(t *testing.T) {
	_, _, _, sailAngle := Apparent(0, 0, 3, 4)
	assert.True(t, math.IsNaN(sailAngle), "stationary ship")

	// Wind exactly cancelling the ship's motion zeroes the apparent wind.
	appU, appV, appSpeed, sailAngle := Apparent(5, 0, -5, 0)
	assert.Equal(t, 0.0, appU)
	assert.Equal(t, 0.0, appV)
	assert.Equal(t, 0.0, appSpeed)
	assert.True(t, math.IsNaN(sailAngle))
}
