package privateer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// newProjectile builds a round leaving shooter's muzzle. The shooter must
// carry position, rotation and weapon components.
func newProjectile(shooter *Entity, cfg *Config) *Entity {
	w := shooter.Weapon
	heading := shooter.Rotation.Heading()
	dir := mgl64.Vec2{math.Cos(heading), math.Sin(heading)}

	pos := shooter.Position.Vec().Add(dir.Mul(cfg.Combat.MuzzleOffset))
	vel := dir.Mul(w.ProjectileSpeed)
	if shooter.Velocity != nil {
		vel = vel.Add(shooter.Velocity.Vec().Mul(cfg.Combat.InheritVelocity))
	}

	p := NewEntity("projectile", shooter.Team)
	p.With(
		&Position{X: pos.X(), Y: pos.Y()},
		&Rotation{Angle: shooter.Rotation.Angle},
		&Collider{Radius: cfg.Combat.ProjectileRadius, Type: ColliderProjectile},
		&Renderable{Sprite: "projectile", Z: 2},
		&Projectile{
			Owner:    shooter.ID(),
			Team:     shooter.Team,
			Damage:   w.Damage,
			Vel:      vel,
			Radius:   cfg.Combat.ProjectileRadius,
			Lifetime: cfg.Combat.ProjectileLifetime,
			Range:    w.Range,
		},
	)
	return p
}

// advance moves the projectile and reports whether it has expired.
func (p *Projectile) advance(pos *Position, dt, scale float64) bool {
	p.Age += dt
	if p.Age >= p.Lifetime {
		return true
	}
	pos.Set(pos.Vec().Add(p.Vel.Mul(scale * dt)))
	p.Traveled += p.Vel.Len() * dt
	return p.Range > 0 && p.Traveled >= p.Range
}
