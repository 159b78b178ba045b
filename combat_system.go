package privateer

import (
	"github.com/EngoEngine/ecs"
	"github.com/sirupsen/logrus"
)

// CombatSystem recharges capacitors, runs ship modules, moves projectiles
// and resolves their hits.
type CombatSystem struct {
	Config *Config
	// Clock supplies simulation time for weapon cooldowns.
	Clock *SimClock
	// OnDestroyed runs after a ship is removed for reaching zero hull.
	OnDestroyed func(*Entity)

	ownsClock  bool
	registry   *Registry
	collisions CircleCollisionSystem
}

// NewCombatSystem creates a combat system. With a nil clock the system keeps
// its own and advances it in Step.
func NewCombatSystem(cfg *Config, r *Registry, clock *SimClock) *CombatSystem {
	cs := &CombatSystem{Config: cfg, Clock: clock, registry: r}
	if clock == nil {
		cs.Clock = NewSimClock()
		cs.ownsClock = true
	}
	return cs
}

func (*CombatSystem) Priority() int { return priorityCombat }

func (cs *CombatSystem) Update(dt float32) {
	cs.Step(float64(dt), cs.registry)
}

func (*CombatSystem) Remove(ecs.BasicEntity) {}

func (cs *CombatSystem) Step(dt float64, r *Registry) {
	if r == nil {
		return
	}
	cs.registry = r
	dt = normalizeDT(dt, cs.Config.Physics.MillisecondThreshold)
	if dt <= 0 {
		return
	}
	if cs.ownsClock {
		cs.Clock.Advance(dt)
	}

	for _, e := range r.GetEntitiesWithComponents(KindEnergy) {
		en := e.Energy
		en.Current = clamp(en.Current+en.RechargeRate*dt, 0, en.Max)
	}
	for _, e := range r.GetEntitiesWithComponents(KindHealth) {
		e.Health.SinceDamage += dt
	}
	for _, e := range r.GetEntitiesWithComponents(KindModules) {
		tickModules(e, dt)
	}

	scale := cs.Config.Physics.Scale
	for _, e := range r.GetEntitiesWithComponents(KindProjectile, KindPosition) {
		expired := e.Projectile.advance(e.Position, dt, scale)
		if !expired && cs.Config.World.Bounded() && !cs.InBounds(e.Position) {
			expired = true
		}
		if expired {
			r.RemoveEntity(e)
		}
	}

	cs.collisions.Sync(r)
	cs.collisions.Detect(func(a, b CircleEntity) {
		switch {
		case a.Projectile != nil && b.Projectile == nil:
			cs.hit(a.Entity, b.Entity, r)
		case b.Projectile != nil && a.Projectile == nil:
			cs.hit(b.Entity, a.Entity, r)
		}
	})
}

// Now is the simulation time used for weapon cooldowns.
func (cs *CombatSystem) Now() float64 { return cs.Clock.Seconds() }

// TryFire fires shooter's weapon when the cooldown has elapsed and the
// capacitor covers the shot. Energy and cooldown are updated together.
func (cs *CombatSystem) TryFire(shooter *Entity, r *Registry) bool {
	if shooter == nil || shooter.Weapon == nil || shooter.Position == nil || shooter.Rotation == nil {
		return false
	}
	w := shooter.Weapon
	now := cs.Now()
	l := systemLog("combat").WithFields(logrus.Fields{"entity": shooter.ID(), "name": shooter.Name})

	if !w.Ready(now) {
		l.Debug("fire blocked: weapon cooling down")
		return false
	}
	if shooter.Energy == nil || !shooter.Energy.Spend(w.EnergyCost) {
		l.Debug("fire blocked: insufficient energy")
		return false
	}
	w.LastFired = now
	w.Fired = true

	if r == nil {
		r = cs.registry
	}
	if r != nil {
		r.AddEntity(newProjectile(shooter, cs.Config))
	}
	return true
}

// hit resolves projectile p striking target t.
func (cs *CombatSystem) hit(p, t *Entity, r *Registry) {
	if !r.Contains(p) || !r.Contains(t) || t.Health == nil {
		return
	}
	proj := p.Projectile
	if t.ID() == proj.Owner {
		return
	}
	if !cs.Config.Combat.FriendlyFire && t.Team == proj.Team {
		return
	}

	r.RemoveEntity(p)
	rep := ApplyDamage(t.Health, proj.Damage)
	systemLog("combat").WithFields(logrus.Fields{
		"target": t.ID(),
		"shield": rep.Shield,
		"armor":  rep.Armor,
		"hull":   rep.Hull,
	}).Debug("projectile hit")

	if rep.Destroyed {
		cs.Destroy(t, r)
	}
}

// Destroy removes e from the registry and notifies OnDestroyed.
func (cs *CombatSystem) Destroy(e *Entity, r *Registry) {
	if !r.RemoveEntity(e) {
		return
	}
	systemLog("combat").WithFields(logrus.Fields{"entity": e.ID(), "name": e.Name}).Info("ship destroyed")
	if cs.OnDestroyed != nil {
		cs.OnDestroyed(e)
	}
}

func (cs *CombatSystem) InBounds(pos *Position) bool {
	w := cs.Config.World
	if pos.X < w.MinX {
		return false
	}
	if pos.X > w.MaxX {
		return false
	}
	if pos.Y < w.MinY {
		return false
	}
	if pos.Y > w.MaxY {
		return false
	}
	return true
}
