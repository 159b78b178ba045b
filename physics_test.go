package privateer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhysicsFixture(cfg *Config) (*PhysicsSystem, *Registry) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := NewRegistry()
	return NewPhysicsSystem(cfg, r, rand.New(rand.NewSource(1))), r
}

func mover(x, y, vx, vy, maxSpeed float64) *Entity {
	return NewEntity("mover", TeamNeutral).With(
		&Position{X: x, Y: y},
		&Velocity{X: vx, Y: vy, MaxSpeed: maxSpeed},
	)
}

func TestIntegrate(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	e := mover(0, 0, 100, 0, 500)
	r.AddEntity(e)

	ps.Step(1, r)

	// drag first, then 98 m/s for one second at 0.01 px/m
	assert.InDelta(t, 98, e.Velocity.X, 1e-9)
	assert.InDelta(t, 0.98, e.Position.X, 1e-9)
	assert.Zero(t, e.Position.Y)
}

func TestStepNormalizesMilliseconds(t *testing.T) {
	psA, rA := newPhysicsFixture(nil)
	psB, rB := newPhysicsFixture(nil)
	a := mover(0, 0, 100, 50, 500)
	b := mover(0, 0, 100, 50, 500)
	rA.AddEntity(a)
	rB.AddEntity(b)

	psA.Step(16, rA)
	psB.Step(0.016, rB)

	assert.InDelta(t, b.Position.X, a.Position.X, 1e-12)
	assert.InDelta(t, b.Position.Y, a.Position.Y, 1e-12)
}

func TestStepIgnoresDegenerateDT(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	e := mover(1, 2, 100, 0, 500)
	r.AddEntity(e)

	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		ps.Step(dt, r)
	}

	assert.Equal(t, &Position{X: 1, Y: 2}, e.Position)
	assert.Equal(t, 100.0, e.Velocity.X)
}

func TestSpeedIsClamped(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	fast := mover(0, 0, 3000, 4000, 100)
	broken := mover(0, 0, math.NaN(), 1, 100)
	r.AddEntity(fast)
	r.AddEntity(broken)

	ps.Step(tick, r)

	assert.LessOrEqual(t, fast.Velocity.Speed(), 100.0)
	assert.InDelta(t, 100, fast.Velocity.Speed(), 1e-6)
	assert.Zero(t, broken.Velocity.Speed())
}

func TestRotationWraps(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	e := mover(0, 0, 0, 0, 100).With(&Rotation{Angle: 6.2}, &AngularVelocity{Speed: 1})
	r.AddEntity(e)

	ps.Step(0.5, r)

	assert.InDelta(t, 6.7-2*math.Pi, e.Rotation.Angle, 1e-9)
}

func TestWorldBoundsBounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.World = WorldConfig{MaxX: 100, MaxY: 100}
	ps, r := newPhysicsFixture(cfg)
	e := mover(99.5, 50, 200, 0, 500)
	r.AddEntity(e)

	ps.Step(1, r)

	assert.Equal(t, 100.0, e.Position.X)
	assert.Less(t, e.Velocity.X, 0.0)
}

func TestClampToAABB(t *testing.T) {
	w := WorldConfig{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}
	tests := []struct {
		name             string
		pos, vel         mgl64.Vec2
		wantPos, wantVel mgl64.Vec2
	}{
		{"inside", mgl64.Vec2{1, 2}, mgl64.Vec2{3, 4}, mgl64.Vec2{1, 2}, mgl64.Vec2{3, 4}},
		{"below min x", mgl64.Vec2{-12, 0}, mgl64.Vec2{-5, 1}, mgl64.Vec2{-10, 0}, mgl64.Vec2{5, 1}},
		{"above max y", mgl64.Vec2{0, 11}, mgl64.Vec2{1, 5}, mgl64.Vec2{0, 10}, mgl64.Vec2{1, -5}},
		{"corner", mgl64.Vec2{20, -20}, mgl64.Vec2{2, -2}, mgl64.Vec2{10, -10}, mgl64.Vec2{-2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, vel := clampToAABB(tt.pos, tt.vel, w)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantVel, vel)
		})
	}
}

func TestOrbitConvergesFromTwiceDistance(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	center := NewEntity("center", TeamNeutral).With(&Position{})
	r.AddEntity(center)

	// 5000 m is 50 px; start at 100 px
	orbiter := mover(100, 0, 0, 0, 200).With(
		&Rotation{},
		&Orbiting{Target: center.ID(), Distance: 5000, Speed: 1},
	)
	r.AddEntity(orbiter)

	const desired = 50.0
	deadband := ps.Config.Physics.OrbitDeadband
	prev := math.Abs(orbiter.Position.Vec().Len() - desired)
	for i := 0; i < 600; i++ {
		ps.Step(tick, r)
		err := math.Abs(orbiter.Position.Vec().Len() - desired)
		if prev > deadband {
			require.LessOrEqual(t, err, prev+1e-9, "tick %d diverged", i)
		}
		require.LessOrEqual(t, orbiter.Velocity.Speed(), orbiter.Velocity.MaxSpeed+1e-9)
		prev = err
	}
	assert.Less(t, prev, deadband+0.05)
}

func TestOrbitDirection(t *testing.T) {
	for _, speed := range []float64{1, -1} {
		ps, r := newPhysicsFixture(nil)
		center := NewEntity("center", TeamNeutral).With(&Position{})
		r.AddEntity(center)
		orbiter := mover(50, 0, 0, 0, 200).With(&Orbiting{Target: center.ID(), Distance: 5000, Speed: speed})
		r.AddEntity(orbiter)

		ps.Step(tick, r)

		// at (50, 0) counterclockwise motion is +y
		assert.Equal(t, math.Signbit(speed), math.Signbit(orbiter.Velocity.Y), "speed %v", speed)
	}
}

func TestOrbitAtZeroDistance(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	center := NewEntity("center", TeamNeutral).With(&Position{X: 10, Y: 10})
	r.AddEntity(center)
	orbiter := mover(10, 10, 0, 0, 200).With(&Rotation{}, &Orbiting{Target: center.ID()})
	r.AddEntity(orbiter)

	ps.Step(tick, r)

	assert.InDelta(t, 100, orbiter.Velocity.Speed(), 1e-9)
	assert.False(t, math.IsNaN(orbiter.Position.X))
	assert.False(t, math.IsNaN(orbiter.Rotation.Angle))
}

func TestOrbitMissingTarget(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	orbiter := mover(0, 0, 100, 0, 200).With(&Orbiting{Target: 1 << 62})
	r.AddEntity(orbiter)

	ps.Step(1, r)

	assert.InDelta(t, 98, orbiter.Velocity.X, 1e-9)
	assert.NotNil(t, orbiter.Orbiting)
}

func TestRemoveDropsOrbitIntent(t *testing.T) {
	ps, r := newPhysicsFixture(nil)
	center := NewEntity("center", TeamNeutral).With(&Position{})
	r.AddEntity(center)
	orbiter := mover(50, 0, 0, 0, 200).With(&Orbiting{Target: center.ID()})
	r.AddEntity(orbiter)

	ps.Remove(center.BasicEntity)

	assert.Nil(t, orbiter.Orbiting)
	assert.Empty(t, r.GetEntitiesWithComponents(KindOrbiting))
}
