package privateer

import (
	"math"
	"math/rand"

	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// PhysicsSystem integrates every entity carrying position and velocity and
// resolves orbiting intents.
//
// Drag is applied once per tick and is not scaled by dt, so the effective
// damping depends on the tick rate. Callers are expected to tick at ~60 Hz.
type PhysicsSystem struct {
	Config *Config
	Rand   *rand.Rand

	registry *Registry
}

func NewPhysicsSystem(cfg *Config, r *Registry, rng *rand.Rand) *PhysicsSystem {
	return &PhysicsSystem{Config: cfg, Rand: rng, registry: r}
}

func (*PhysicsSystem) Priority() int { return priorityPhysics }

func (ps *PhysicsSystem) Update(dt float32) {
	ps.Step(float64(dt), ps.registry)
}

// Remove drops orbit intents that point at the removed entity.
func (ps *PhysicsSystem) Remove(b ecs.BasicEntity) {
	if ps.registry == nil {
		return
	}
	for _, e := range ps.registry.GetEntitiesWithComponents(KindOrbiting) {
		if e.Orbiting.Target == b.ID() {
			ps.registry.RemoveComponent(e, KindOrbiting)
		}
	}
}

// Step advances all moving entities by dt seconds. Values above the
// configured threshold are taken as milliseconds.
func (ps *PhysicsSystem) Step(dt float64, r *Registry) {
	if r == nil {
		return
	}
	ps.registry = r
	dt = normalizeDT(dt, ps.Config.Physics.MillisecondThreshold)
	if dt <= 0 {
		return
	}

	for _, e := range r.GetEntitiesWithComponents(KindPosition, KindVelocity) {
		ps.integrate(e, dt, r)
	}
}

func (ps *PhysicsSystem) integrate(e *Entity, dt float64, r *Registry) {
	cfg := ps.Config.Physics
	pos, vel := e.Position, e.Velocity

	vel.X *= cfg.Drag
	vel.Y *= cfg.Drag

	pos.Set(pos.Vec().Add(vel.Vec().Mul(cfg.Scale * dt)))

	if e.Rotation != nil && e.AngularVelocity != nil {
		e.Rotation.Angle = wrapAngle(e.Rotation.Angle + e.AngularVelocity.Speed*dt)
	}

	if e.Orbiting != nil {
		ps.resolveOrbit(e, dt, r)
	}

	if ps.Config.World.Bounded() {
		p, v := clampToAABB(pos.Vec(), vel.Vec(), ps.Config.World)
		pos.Set(p)
		vel.Set(v)
	}

	clampSpeed(vel)
	if !finite(pos.X) || !finite(pos.Y) {
		log.WithField("entity", e.ID()).Warn("non-finite position reset to origin")
		pos.X, pos.Y = 0, 0
	}
}

// resolveOrbit replaces the velocity with the tangent of the orbit around
// the target and nudges the position toward the desired radius.
func (ps *PhysicsSystem) resolveOrbit(e *Entity, dt float64, r *Registry) {
	cfg := ps.Config.Physics
	orbit := e.Orbiting

	target, ok := r.Get(orbit.Target)
	if !ok || target.Position == nil {
		return
	}

	distanceMeters := orbit.Distance
	if distanceMeters <= 0 {
		distanceMeters = cfg.DefaultOrbitDistance
	}
	desired := distanceMeters * cfg.Scale
	maxSpeed := e.Velocity.MaxSpeed

	radius := e.Position.Vec().Sub(target.Position.Vec())
	current := radius.Len()
	if current < 1e-6 {
		ps.escapeOrbitCenter(e)
		return
	}

	dir := orbit.Direction()
	omega := maxSpeed * cfg.Scale / desired
	angle := math.Atan2(radius.Y(), radius.X()) + omega*dir*dt

	tangent := mgl64.Vec2{-math.Sin(angle), math.Cos(angle)}.Mul(dir)
	e.Velocity.Set(tangent.Mul(maxSpeed))

	radialErr := desired - current
	if math.Abs(radialErr) > cfg.OrbitDeadband {
		correction := radialErr * cfg.OrbitCorrectionRate * dt
		correction = mgl64.Clamp(correction, -math.Abs(radialErr), math.Abs(radialErr))
		outward := radius.Mul(1 / current)
		e.Position.Set(e.Position.Vec().Add(outward.Mul(correction)))
	}

	if e.Rotation != nil {
		e.Rotation.SetHeading(math.Atan2(tangent.Y(), tangent.X()))
	}
}

// escapeOrbitCenter handles a ship sitting on its orbit target, where no
// radial direction exists.
func (ps *PhysicsSystem) escapeOrbitCenter(e *Entity) {
	angle := 0.0
	if ps.Rand != nil {
		angle = ps.Rand.Float64() * 2 * math.Pi
	}
	out := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
	e.Velocity.Set(out.Mul(e.Velocity.MaxSpeed * 0.5))
	if e.Rotation != nil {
		e.Rotation.SetHeading(angle)
	}
}

// clampToAABB keeps pos inside w, reflecting the velocity on every axis that
// had to be clamped.
func clampToAABB(pos, vel mgl64.Vec2, w WorldConfig) (mgl64.Vec2, mgl64.Vec2) {
	lo := mgl64.Vec2{w.MinX, w.MinY}
	hi := mgl64.Vec2{w.MaxX, w.MaxY}
	for i := range pos {
		if c := mgl64.Clamp(pos[i], lo[i], hi[i]); c != pos[i] {
			pos[i] = c
			vel[i] = -vel[i]
		}
	}
	return pos, vel
}

// clampSpeed keeps |v| within MaxSpeed and zeroes non-finite velocities.
func clampSpeed(v *Velocity) {
	if !finite(v.X) || !finite(v.Y) {
		v.X, v.Y = 0, 0
		return
	}
	limit := math.Max(v.MaxSpeed, 0)
	speed := v.Speed()
	if speed > limit {
		scaled := v.Vec().Mul(limit / speed)
		v.Set(scaled)
		if v.Speed() > limit {
			// rounding can leave the result a hair above the limit
			v.Set(scaled.Mul(1 - 1e-12))
		}
	}
}

func normalizeDT(dt, msThreshold float64) float64 {
	if !finite(dt) {
		return 0
	}
	if msThreshold > 0 && dt > msThreshold {
		return dt / 1000
	}
	return dt
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
