package privateer

import (
	"math/rand"

	"github.com/EngoEngine/ecs"
)

const brakeFactor = 0.95

// InputSystem applies the intents written into Input components by an
// external input layer, for every player-controlled ship.
type InputSystem struct {
	Config    *Config
	Combat    *CombatSystem
	Targeting *TargetingSystem
	Rand      *rand.Rand

	registry *Registry
}

func (*InputSystem) Priority() int { return priorityInput }

func (is *InputSystem) Update(dt float32) {
	is.Step(float64(dt), is.registry)
}

func (is *InputSystem) Remove(ecs.BasicEntity) {}

func (is *InputSystem) Step(dt float64, r *Registry) {
	if r == nil {
		return
	}
	is.registry = r
	dt = normalizeDT(dt, is.Config.Physics.MillisecondThreshold)
	if dt <= 0 {
		return
	}
	c := &Controls{
		Config:    is.Config,
		Registry:  r,
		Player:    r.GetPlayerShip(),
		Rand:      is.Rand,
		Combat:    is.Combat,
		Targeting: is.Targeting,
	}
	for _, e := range r.GetEntitiesWithComponents(KindInput) {
		if isPlayerControlled(e) {
			e.Behavior.Steer(dt, e, c)
		}
	}
}

func (PlayerControlled) Steer(dt float64, self *Entity, c *Controls) {
	in := self.Input
	if in == nil {
		return
	}
	defer in.clearEdges()

	v, rot := self.Velocity, self.Rotation
	if v != nil && rot != nil {
		if av := self.AngularVelocity; av != nil {
			switch {
			case in.Left && !in.Right:
				av.Speed = -v.RotationSpeed
			case in.Right && !in.Left:
				av.Speed = v.RotationSpeed
			default:
				av.Speed = 0
			}
		}
		dir := headingVec(rot.Heading())
		if in.Forward {
			v.Set(v.Vec().Add(dir.Mul(v.Acceleration * dt)))
		}
		if in.Back {
			v.Set(v.Vec().Mul(brakeFactor))
		}
	}

	if ts := c.Targeting; ts != nil {
		switch {
		case in.Unlock:
			ts.UnlockTarget(self)
		case in.HasSelect:
			ts.StartTargetLock(self, in.Select)
		case in.Cycle:
			ts.CycleTarget(self)
		}
	}

	if in.ToggleOrbit {
		toggleOrbit(self, c)
	}
	if in.ShieldBooster {
		if self.Modules != nil && self.Modules.ShieldBooster != nil && self.Modules.ShieldBooster.Active {
			DeactivateShieldBooster(self)
		} else {
			ActivateShieldBooster(self)
		}
	}
	if in.ArmorRepairer {
		ActivateArmorRepair(self)
	}
	if in.Afterburner {
		ActivateAfterburner(self)
	}

	if in.Fire && c.Combat != nil {
		// ships with a targeting computer only shoot at a locked target
		if self.Targeting == nil || self.Targeting.HasActive {
			c.Combat.TryFire(self, c.Registry)
		}
	}
}

// toggleOrbit starts orbiting the locked target, or stops an orbit.
func toggleOrbit(self *Entity, c *Controls) {
	if self.Orbiting != nil {
		c.Registry.RemoveComponent(self, KindOrbiting)
		return
	}
	if self.Targeting == nil || !self.Targeting.HasActive {
		return
	}
	c.Registry.AddComponent(self, &Orbiting{
		Target:   self.Targeting.Active,
		Distance: c.Config.Physics.DefaultOrbitDistance,
		Speed:    1,
	})
}
