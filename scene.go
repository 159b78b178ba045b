package privateer

import (
	"math/rand"

	"github.com/EngoEngine/ecs"
)

// System priorities. The world runs higher priorities first, so one tick is
// input, AI, physics, combat and then targeting.
const (
	priorityInput     = 50
	priorityAI        = 40
	priorityPhysics   = 30
	priorityCombat    = 20
	priorityTargeting = 10
)

// Scene owns one simulation: the registry, the ordered systems and the
// simulation clock. A Scene is not safe for concurrent use.
type Scene struct {
	Config *Config

	Input     *InputSystem
	AI        *AISystem
	Physics   *PhysicsSystem
	Combat    *CombatSystem
	Targeting *TargetingSystem

	registry    *Registry
	world       *ecs.World
	clock       *SimClock
	rng         *rand.Rand
	onDestroyed []func(*Entity)
	spawned     int
}

type sceneOptions struct {
	lockClock Clock
	rng       *rand.Rand
}

type SceneOption func(*sceneOptions)

// WithLockClock overrides the clock used for target lock timing.
func WithLockClock(c Clock) SceneOption {
	return func(o *sceneOptions) { o.lockClock = c }
}

// WithRand replaces the seeded random source.
func WithRand(r *rand.Rand) SceneOption {
	return func(o *sceneOptions) { o.rng = r }
}

// NewScene wires the systems for cfg. A nil cfg uses the defaults.
func NewScene(cfg *Config, opts ...SceneOption) *Scene {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var o sceneOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scene{
		Config:   cfg,
		registry: NewRegistry(),
		world:    &ecs.World{},
		clock:    NewSimClock(),
		rng:      o.rng,
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(cfg.Seed))
	}

	lockClock := o.lockClock
	if lockClock == nil {
		if cfg.Targeting.Clock == ClockSimulation {
			lockClock = s.clock
		} else {
			lockClock = WallClock{}
		}
	}

	s.Combat = NewCombatSystem(cfg, s.registry, s.clock)
	s.Combat.OnDestroyed = s.destroyed
	s.Targeting = NewTargetingSystem(cfg, s.registry, lockClock)
	s.Physics = NewPhysicsSystem(cfg, s.registry, s.rng)
	s.AI = NewAISystem(cfg, s.registry, s.rng, s.Combat)
	s.Input = &InputSystem{
		Config:    cfg,
		Combat:    s.Combat,
		Targeting: s.Targeting,
		Rand:      s.rng,
		registry:  s.registry,
	}

	s.world.AddSystem(s.Input)
	s.world.AddSystem(s.AI)
	s.world.AddSystem(s.Physics)
	s.world.AddSystem(s.Combat)
	s.world.AddSystem(s.Targeting)

	s.registry.OnEntityRemoved(func(e *Entity) {
		s.world.RemoveEntity(e.BasicEntity)
	})
	return s
}

// Tick advances the simulation by dt seconds; values above the millisecond
// threshold are taken as milliseconds. A zero dt only counts a frame.
func (s *Scene) Tick(dt float64) {
	dt = normalizeDT(dt, s.Config.Physics.MillisecondThreshold)
	if dt <= 0 {
		s.clock.Advance(0)
		return
	}
	s.clock.Advance(dt)
	s.world.Update(float32(dt))
}

func (s *Scene) Registry() *Registry { return s.registry }

// Player returns the player ship, or nil once it was destroyed.
func (s *Scene) Player() *Entity { return s.registry.GetPlayerShip() }

func (s *Scene) Clock() *SimClock { return s.clock }

func (s *Scene) Rand() *rand.Rand { return s.rng }

// SetInput replaces the player's intent for the next tick.
func (s *Scene) SetInput(in Input) bool {
	p := s.Player()
	if p == nil || p.Input == nil {
		return false
	}
	*p.Input = in
	return true
}

// OnDestroyed registers fn to run whenever a ship is destroyed by damage or
// through Destroy.
func (s *Scene) OnDestroyed(fn func(*Entity)) {
	s.onDestroyed = append(s.onDestroyed, fn)
}

// Destroy removes e as if it had been shot down.
func (s *Scene) Destroy(e *Entity) {
	if e == nil {
		return
	}
	s.Combat.Destroy(e, s.registry)
}

func (s *Scene) destroyed(e *Entity) {
	for _, fn := range s.onDestroyed {
		fn(e)
	}
}
