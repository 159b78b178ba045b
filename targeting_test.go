package privateer

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type targetingFixture struct {
	r      *Registry
	clock  *ManualClock
	ts     *TargetingSystem
	actor  *Entity
	near   *Entity
	far    *Entity
	origin time.Time
}

func newTargetingFixture(t *testing.T) *targetingFixture {
	t.Helper()
	f := &targetingFixture{
		r:      NewRegistry(),
		origin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.clock = NewManualClock(f.origin)
	f.ts = NewTargetingSystem(DefaultConfig(), f.r, f.clock)
	f.r.OnEntityRemoved(func(e *Entity) { f.ts.Remove(e.BasicEntity) })

	f.actor = testShip("player", TeamPlayer, 0, 0).With(&Targeting{})
	f.near = testShip("near", TeamEnemy, 10, 0)
	f.far = testShip("far", TeamEnemy, 0, 20)
	f.r.AddEntity(f.actor)
	f.r.AddEntity(f.near)
	f.r.AddEntity(f.far)
	f.ts.Step(tick, f.r)
	return f
}

func TestLockTiming(t *testing.T) {
	f := newTargetingFixture(t)

	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))
	state, id := f.ts.LockState(f.actor)
	assert.Equal(t, Locking, state)
	assert.Equal(t, f.near.ID(), id)

	f.clock.Advance(1499 * time.Millisecond)
	f.ts.Step(tick, f.r)
	state, _ = f.ts.LockState(f.actor)
	assert.Equal(t, Locking, state)

	f.clock.Advance(2 * time.Millisecond)
	f.ts.Step(tick, f.r)
	state, id = f.ts.LockState(f.actor)
	assert.Equal(t, Locked, state)
	assert.Equal(t, f.near.ID(), id)

	target, ok := f.ts.ActiveTarget(f.actor)
	require.True(t, ok)
	assert.Same(t, f.near, target)
}

func TestLockStateReadsLastStep(t *testing.T) {
	f := newTargetingFixture(t)
	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))

	f.clock.Advance(2 * time.Second)
	state, _ := f.ts.LockState(f.actor)
	assert.Equal(t, Locking, state)

	f.ts.Step(tick, f.r)
	state, _ = f.ts.LockState(f.actor)
	assert.Equal(t, Locked, state)
}

func TestLockDoesNotAdvanceWithoutTicks(t *testing.T) {
	f := newTargetingFixture(t)
	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))

	f.clock.Advance(time.Hour)
	f.ts.Step(0, f.r)

	state, _ := f.ts.LockState(f.actor)
	assert.Equal(t, Locking, state)
}

func TestCandidates(t *testing.T) {
	f := newTargetingFixture(t)
	outOfRange := testShip("distant", TeamEnemy, 5000, 0)
	f.r.AddEntity(outOfRange)
	buoy := NewEntity("Buoy", TeamNeutral).With(&Position{X: 3, Y: 4}).Tag("poi")
	f.r.AddEntity(buoy)

	f.ts.Step(tick, f.r)

	tg := f.actor.Targeting
	require.Len(t, tg.Candidates, 2)
	assert.Equal(t, f.near.ID(), tg.Candidates[0].ID)
	assert.Equal(t, f.far.ID(), tg.Candidates[1].ID)
	assert.InDelta(t, 1000, tg.Candidates[0].Distance, 1e-6)
	assert.Equal(t, "rifter", tg.Candidates[0].Class)

	require.Len(t, tg.POIs, 1)
	assert.Equal(t, "Buoy", tg.POIs[0].Name)
	assert.InDelta(t, 500, tg.POIs[0].Distance, 1e-6)
}

func TestSelectingLockingTargetIsNoop(t *testing.T) {
	f := newTargetingFixture(t)
	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))

	f.clock.Advance(time.Second)
	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))
	assert.Equal(t, f.origin, f.actor.Targeting.LockStart)

	require.True(t, f.ts.StartTargetLock(f.actor, f.far.ID()))
	state, id := f.ts.LockState(f.actor)
	assert.Equal(t, Locking, state)
	assert.Equal(t, f.far.ID(), id)
	assert.Equal(t, f.origin.Add(time.Second), f.actor.Targeting.LockStart)
}

func TestStartTargetLockRejects(t *testing.T) {
	f := newTargetingFixture(t)

	assert.False(t, f.ts.StartTargetLock(f.actor, f.actor.ID()))
	assert.False(t, f.ts.StartTargetLock(f.actor, 1<<62))
	assert.False(t, f.ts.StartTargetLock(f.near, f.actor.ID()))

	state, _ := f.ts.LockState(f.actor)
	assert.Equal(t, NoTarget, state)
}

func TestCycleTargetWraps(t *testing.T) {
	f := newTargetingFixture(t)

	var got []uint64
	for i := 0; i < 3; i++ {
		require.True(t, f.ts.CycleTarget(f.actor))
		_, id := f.ts.LockState(f.actor)
		got = append(got, id)
	}
	assert.Equal(t, []uint64{f.near.ID(), f.far.ID(), f.near.ID()}, got)
}

func TestUnlockTarget(t *testing.T) {
	f := newTargetingFixture(t)
	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))
	f.clock.Advance(2 * time.Second)
	f.ts.Step(tick, f.r)

	f.ts.UnlockTarget(f.actor)

	state, id := f.ts.LockState(f.actor)
	assert.Equal(t, NoTarget, state)
	assert.Zero(t, id)
	_, ok := f.ts.ActiveTarget(f.actor)
	assert.False(t, ok)
}

func TestRemovedTargetClearsLock(t *testing.T) {
	t.Run("locked", func(t *testing.T) {
		f := newTargetingFixture(t)
		require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))
		f.clock.Advance(2 * time.Second)
		f.ts.Step(tick, f.r)

		f.r.RemoveEntity(f.near)

		state, _ := f.ts.LockState(f.actor)
		assert.Equal(t, NoTarget, state)
		require.Len(t, f.actor.Targeting.Candidates, 1)
		assert.Equal(t, f.far.ID(), f.actor.Targeting.Candidates[0].ID)
	})

	t.Run("locking", func(t *testing.T) {
		f := newTargetingFixture(t)
		require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))

		f.r.RemoveEntity(f.near)
		f.clock.Advance(2 * time.Second)
		f.ts.Step(tick, f.r)

		state, _ := f.ts.LockState(f.actor)
		assert.Equal(t, NoTarget, state)
	})
}

func TestLockedTargetSurvivesLeavingRange(t *testing.T) {
	f := newTargetingFixture(t)
	require.True(t, f.ts.StartTargetLock(f.actor, f.near.ID()))
	f.clock.Advance(2 * time.Second)
	f.ts.Step(tick, f.r)

	f.near.Position.X = 5000
	f.ts.Step(tick, f.r)

	state, _ := f.ts.LockState(f.actor)
	assert.Equal(t, Locked, state)
	assert.InDelta(t, 500000, f.actor.Targeting.ActiveInfo.Distance, 1e-3)
	for _, c := range f.actor.Targeting.Candidates {
		assert.NotEqual(t, f.near.ID(), c.ID)
	}
}

func TestTargetInfo(t *testing.T) {
	f := newTargetingFixture(t)
	f.near.Velocity.Set(mgl64.Vec2{0, 100})
	f.near.Health.Shield = 5

	f.ts.Step(tick, f.r)

	info := f.actor.Targeting.Candidates[0]
	assert.InDelta(t, 100, info.RelativeSpeed, 1e-9)
	assert.InDelta(t, 0, info.ClosingSpeed, 1e-9)
	// 100 m/s across 1000 m is 0.1 rad/s
	assert.InDelta(t, 5.729578, info.AngularVelocity, 1e-5)
	assert.InDelta(t, 0.5, info.Shield, 1e-9)
	assert.InDelta(t, 1, info.Armor, 1e-9)
	assert.InDelta(t, 1, info.Hull, 1e-9)
}

func TestTransverseAngularRate(t *testing.T) {
	tests := []struct {
		name     string
		rel, los mgl64.Vec2
		distance float64
		want     float64
	}{
		{"coincident", mgl64.Vec2{100, 0}, mgl64.Vec2{}, 0, 0},
		{"below epsilon", mgl64.Vec2{100, 0}, mgl64.Vec2{1e-6, 0}, 1e-4, 0},
		{"radial motion only", mgl64.Vec2{100, 0}, mgl64.Vec2{10, 0}, 1000, 0},
		{"transverse", mgl64.Vec2{0, -50}, mgl64.Vec2{10, 0}, 1000, 2.864789},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TransverseAngularRate(tt.rel, tt.los, tt.distance, 0.001), 1e-5)
		})
	}
}
