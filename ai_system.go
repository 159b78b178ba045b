package privateer

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/EngoEngine/ecs"
	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

const retreatThrustFactor = 0.8

// AISystem drives every AI-controlled ship against the player. Decisions
// are re-evaluated on a per-ship timer; the chosen behavior runs every tick.
type AISystem struct {
	Config *Config
	Rand   *rand.Rand
	Combat *CombatSystem

	registry *Registry
}

func NewAISystem(cfg *Config, r *Registry, rng *rand.Rand, combat *CombatSystem) *AISystem {
	return &AISystem{Config: cfg, Rand: rng, Combat: combat, registry: r}
}

func (*AISystem) Priority() int { return priorityAI }

func (as *AISystem) Update(dt float32) {
	if as.registry == nil {
		return
	}
	as.Step(float64(dt), as.registry, as.registry.GetPlayerShip())
}

// Remove clears AI targets pointing at the removed entity.
func (as *AISystem) Remove(b ecs.BasicEntity) {
	if as.registry == nil {
		return
	}
	for _, e := range as.registry.GetEntitiesWithComponents(KindAI) {
		if e.AI.HasTarget && e.AI.Target == b.ID() {
			e.AI.Target, e.AI.HasTarget = 0, false
		}
	}
}

// Step runs one AI tick. A nil player skips the tick entirely.
func (as *AISystem) Step(dt float64, r *Registry, player *Entity) {
	if r == nil || player == nil {
		return
	}
	as.registry = r
	dt = normalizeDT(dt, as.Config.Physics.MillisecondThreshold)
	if dt <= 0 {
		return
	}
	c := &Controls{
		Config:   as.Config,
		Registry: r,
		Player:   player,
		Rand:     as.Rand,
		Combat:   as.Combat,
	}
	for _, e := range r.GetEntitiesWithComponents(KindAI) {
		if e != player && isAIControlled(e) {
			e.Behavior.Steer(dt, e, c)
		}
	}
}

func (AIControlled) Steer(dt float64, self *Entity, c *Controls) {
	ai := self.AI
	if ai == nil || self.Position == nil || self.Velocity == nil || self.Rotation == nil {
		return
	}
	player := c.Player
	if player == nil || player.Position == nil {
		return
	}
	cfg := c.Config.AI

	assignOrbit(self, c)
	if ai.State == "" {
		enterState(self, cfg.DefaultState, c)
	}

	ai.InState += dt
	ai.DecisionTimer -= dt
	if ai.DecisionTimer <= 0 {
		ai.DecisionTimer += cfg.DecisionInterval
		if ai.DecisionTimer <= 0 {
			ai.DecisionTimer = cfg.DecisionInterval
		}
		decide(self, player, c)
	}

	switch ai.State {
	case AIAttacking:
		attack(self, player, dt, c)
	case AIFleeing:
		flee(self, player, dt, c)
	case AIIdle:
		idle(self, dt, c)
	default:
		orbitAround(self, player, dt, c, true)
	}
}

func decide(self, player *Entity, c *Controls) {
	ai := self.AI
	cfg := c.Config.AI
	dist := c.Config.PixelsToMeters(player.Position.Vec().Sub(self.Position.Vec()).Len())

	hull := 1.0
	if self.Health != nil {
		hull = self.Health.Fraction()
	}

	var next AIState
	switch {
	case hull < cfg.FleeThreshold:
		next = AIFleeing
	case dist < cfg.DetectionRange:
		next = AIAttacking
	case ai.State == AIAttacking && dist <= cfg.DetectionRange*cfg.DisengageFactor:
		next = AIAttacking
	default:
		next = cfg.DefaultState
	}

	if next == ai.State {
		return
	}
	// fleeing ignores the dwell time
	if next != AIFleeing && ai.InState < cfg.MinDwell {
		return
	}
	enterState(self, next, c)
}

func enterState(self *Entity, next AIState, c *Controls) {
	ai := self.AI
	systemLog("ai").WithFields(logrus.Fields{
		"entity": self.ID(),
		"name":   self.Name,
		"from":   ai.State,
		"to":     next,
	}).Debug("state change")

	ai.State = next
	ai.InState = 0

	switch next {
	case AIAttacking, AIOrbit:
		if c.Player != nil {
			ai.Target, ai.HasTarget = c.Player.ID(), true
		}
	case AIFleeing:
		ai.Target, ai.HasTarget = 0, false
		c.Registry.RemoveComponent(self, KindOrbiting)
		if c.Config.AI.UseAfterburnerWhenFleeing {
			ActivateAfterburner(self)
		}
	case AIIdle:
		ai.Target, ai.HasTarget = 0, false
		c.Registry.RemoveComponent(self, KindOrbiting)
	}
}

// assignOrbit picks the ship's orbit distance and handedness once.
func assignOrbit(self *Entity, c *Controls) {
	ai := self.AI
	if ai.OrbitAssignments > 0 {
		return
	}
	cfg := c.Config.AI
	u := 0.5
	if c.Rand != nil {
		u = c.Rand.Float64()
	}
	meters := cfg.OrbitBandMin + u*(cfg.OrbitBandMax-cfg.OrbitBandMin)
	ai.DesiredOrbitDistancePixels = c.Config.MetersToPixels(meters)
	ai.Handedness = orbitHandedness(self.ID())
	ai.OrbitAssignments++
}

// orbitHandedness derives a stable orbit direction from the entity id.
func orbitHandedness(id uint64) float64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	if xxhash.Sum64(buf[:])&1 == 0 {
		return 1
	}
	return -1
}

func attack(self, player *Entity, dt float64, c *Controls) {
	cfg := c.Config.AI
	v, rot := self.Velocity, self.Rotation

	toPlayer := player.Position.Vec().Sub(self.Position.Vec())
	dist := toPlayer.Len()
	facingErr := turnToward(rot, math.Atan2(toPlayer.Y(), toPlayer.X()), v.RotationSpeed*dt, cfg.TurnThreshold)

	orbit := self.AI.DesiredOrbitDistancePixels
	buffer := c.Config.MetersToPixels(cfg.OrbitBuffer)
	switch {
	case dist < 1e-6:
		orbitAround(self, player, dt, c, false)
	case dist > orbit+buffer:
		dir := toPlayer.Mul(1 / dist)
		v.Set(v.Vec().Add(dir.Mul(v.Acceleration * dt)))
	case dist < orbit-buffer:
		dir := toPlayer.Mul(1 / dist)
		v.Set(v.Vec().Sub(dir.Mul(v.Acceleration * dt * retreatThrustFactor)))
	default:
		orbitAround(self, player, dt, c, false)
	}

	w := self.Weapon
	if w == nil || c.Combat == nil {
		return
	}
	if math.Abs(facingErr) < cfg.FireArc && c.Config.PixelsToMeters(dist) <= w.Range {
		c.Combat.TryFire(self, c.Registry)
	}
}

// orbitAround blends the velocity toward a circular path around center at
// the ship's persistent orbit distance.
func orbitAround(self, center *Entity, dt float64, c *Controls, faceTravel bool) {
	cfg := c.Config.AI
	v := self.Velocity
	ai := self.AI

	radius := self.Position.Vec().Sub(center.Position.Vec())
	dist := radius.Len()
	if dist < 1e-6 {
		angle := 0.0
		if c.Rand != nil {
			angle = c.Rand.Float64() * 2 * math.Pi
		}
		v.Set(mgl64.Vec2{math.Cos(angle), math.Sin(angle)}.Mul(v.MaxSpeed * 0.5))
		return
	}

	out := radius.Mul(1 / dist)
	tangent := mgl64.Vec2{-out.Y(), out.X()}.Mul(ai.Handedness)

	desired := ai.DesiredOrbitDistancePixels
	radial := 0.0
	if desired > 0 {
		radial = 0.5 * mgl64.Clamp((desired-dist)/(desired*0.1), -1, 1)
	}
	target := out.Mul(radial * v.MaxSpeed * 0.5).Add(tangent.Mul(v.MaxSpeed * cfg.OrbitSpeedFraction))

	blended := v.Vec().Add(target.Sub(v.Vec()).Mul(cfg.OrbitSmoothing))
	v.Set(blended)

	if faceTravel && blended.Len() > 0.1 {
		self.Rotation.SetHeading(math.Atan2(blended.Y(), blended.X()))
	}
}

func flee(self, player *Entity, dt float64, c *Controls) {
	cfg := c.Config.AI
	v, rot := self.Velocity, self.Rotation

	away := self.Position.Vec().Sub(player.Position.Vec())
	if away.Len() < 1e-6 {
		away = headingVec(rot.Heading())
	}
	turnToward(rot, math.Atan2(away.Y(), away.X()), v.RotationSpeed*cfg.FleeTurnFactor*dt, cfg.TurnThreshold)

	v.Set(v.Vec().Add(headingVec(rot.Heading()).Mul(v.Acceleration * cfg.FleeThrustFactor * dt)))
}

func idle(self *Entity, dt float64, c *Controls) {
	cfg := c.Config.AI
	v, rot := self.Velocity, self.Rotation

	v.Set(v.Vec().Mul(cfg.IdleDecay))
	if roll(c) < cfg.IdleTurnChance {
		rot.SetHeading(rot.Heading() + (roll(c)-0.5)*2)
	}
	if roll(c) < cfg.IdleThrustChance {
		v.Set(v.Vec().Add(headingVec(rot.Heading()).Mul(v.Acceleration * dt * 0.3)))
	}

	limit := v.MaxSpeed * cfg.IdleSpeedFraction
	if speed := v.Speed(); speed > limit && speed > 0 {
		v.Set(v.Vec().Mul(limit / speed))
	}
}

// turnToward rotates at most maxStep radians toward heading and returns the
// remaining heading error.
func turnToward(rot *Rotation, heading, maxStep, threshold float64) float64 {
	diff := angleDiff(heading, rot.Heading())
	if math.Abs(diff) > threshold {
		step := math.Min(math.Abs(diff), maxStep)
		rot.SetHeading(rot.Heading() + math.Copysign(step, diff))
	}
	return angleDiff(heading, rot.Heading())
}

// angleDiff returns a-b wrapped to [-π, π].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func headingVec(h float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(h), math.Sin(h)}
}

// roll returns a uniform sample, or 1 when no source is configured so that
// chance-based actions never fire.
func roll(c *Controls) float64 {
	if c.Rand == nil {
		return 1
	}
	return c.Rand.Float64()
}
