package privateer

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// EnemyOptions customises SpawnEnemy. Zero values pick a random class, the
// class name and a standing start.
type EnemyOptions struct {
	Class           string
	Name            string
	InitialVelocity mgl64.Vec2
}

// newShip builds the parts every ship shares from its class.
func newShip(cfg *Config, name string, team Team, class string, sc ShipClass, pos mgl64.Vec2) *Entity {
	e := NewEntity(name, team)
	e.With(
		&Position{X: pos.X(), Y: pos.Y()},
		&Velocity{
			MaxSpeed:      sc.MaxSpeed,
			Acceleration:  sc.Acceleration,
			RotationSpeed: sc.RotationSpeed,
		},
		&Rotation{},
		&AngularVelocity{},
		&Health{
			Current:   sc.Hull,
			Max:       sc.Hull,
			Shield:    sc.Shield,
			ShieldMax: sc.Shield,
			Armor:     sc.Armor,
			ArmorMax:  sc.Armor,
		},
		&Energy{Current: sc.Energy, Max: sc.Energy, RechargeRate: sc.EnergyRecharge},
		&Collider{Radius: sc.ColliderRadius, Type: ColliderShip},
		&Renderable{Sprite: "ship", Color: sc.Color, Z: 1},
		&ShipInfo{Class: class, Description: sc.Description},
		newModules(cfg.Modules),
	)
	return e
}

func newWeapon(wc WeaponConfig) *Weapon {
	return &Weapon{
		Damage:          wc.Damage,
		FireRate:        wc.FireRate,
		Range:           wc.Range,
		ProjectileSpeed: wc.ProjectileSpeed,
		EnergyCost:      wc.EnergyCost,
	}
}

// SpawnPlayer registers the player ship at pos (pixels).
func (s *Scene) SpawnPlayer(pos mgl64.Vec2) *Entity {
	sc, class := s.Config.Class(s.Config.PlayerClass)
	e := newShip(s.Config, sc.Description, TeamPlayer, class, sc, pos)
	e.With(newWeapon(s.Config.Weapons.Player), &Input{}, &Targeting{})
	e.Behavior = PlayerControlled{}
	e.Tag("player")

	s.registry.AddEntity(e)
	log.WithFields(logrus.Fields{"entity": e.ID(), "x": pos.X(), "y": pos.Y()}).Info("player spawned")
	return e
}

// SpawnEnemy registers an AI ship at pos (pixels).
func (s *Scene) SpawnEnemy(pos mgl64.Vec2, opts EnemyOptions) *Entity {
	class := opts.Class
	if class == "" && len(s.Config.Spawn.EnemyClasses) > 0 {
		class = s.Config.Spawn.EnemyClasses[s.rng.Intn(len(s.Config.Spawn.EnemyClasses))]
	}
	sc, class := s.Config.Class(class)

	s.spawned++
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", displayName(class), s.spawned)
	}

	e := newShip(s.Config, name, TeamEnemy, class, sc, pos)
	e.Velocity.Set(opts.InitialVelocity)
	clampSpeed(e.Velocity)

	ai := &AI{State: s.Config.AI.DefaultState}
	if p := s.Player(); p != nil {
		ai.Target, ai.HasTarget = p.ID(), true
	}
	e.With(newWeapon(s.Config.Weapons.Enemy), ai)
	e.Behavior = AIControlled{}
	e.Tag("enemy")

	s.registry.AddEntity(e)
	log.WithFields(logrus.Fields{
		"entity": e.ID(),
		"class":  class,
		"name":   name,
	}).Debugf("enemy spawned at (%.1f, %.1f)", pos.X(), pos.Y())
	return e
}

// SpawnBuoy registers a named point of interest.
func (s *Scene) SpawnBuoy(name string, pos mgl64.Vec2) *Entity {
	e := NewEntity(name, TeamNeutral)
	e.With(
		&Position{X: pos.X(), Y: pos.Y()},
		&Collider{Radius: s.Config.Spawn.BuoyRadius, Type: ColliderPOI},
		&Renderable{Sprite: "buoy", Color: "#ffeb3b"},
	)
	e.Tag("poi")
	s.registry.AddEntity(e)
	return e
}

// SpawnWave places n enemies on a circle of wave_distance meters around the
// player, each drifting in a random direction.
func (s *Scene) SpawnWave(n int) []*Entity {
	var center mgl64.Vec2
	if p := s.Player(); p != nil {
		center = p.Position.Vec()
	}
	cfg := s.Config.Spawn
	radius := s.Config.MetersToPixels(cfg.WaveDistance)

	enemies := make([]*Entity, 0, n)
	for i := 0; i < n; i++ {
		angle := s.rng.Float64() * 2 * math.Pi
		pos := center.Add(headingVec(angle).Mul(radius))

		heading := s.rng.Float64() * 2 * math.Pi
		speed := cfg.MinSpeed + s.rng.Float64()*(cfg.MaxSpeed-cfg.MinSpeed)
		enemies = append(enemies, s.SpawnEnemy(pos, EnemyOptions{
			InitialVelocity: headingVec(heading).Mul(speed),
		}))
	}
	log.Printf("Spawned wave of %d enemies", n)
	return enemies
}

// ClearEnemies removes every enemy ship and enemy projectile.
func (s *Scene) ClearEnemies() int {
	n := 0
	for _, e := range s.registry.Query(OnTeam(TeamEnemy), nil) {
		if s.registry.RemoveEntity(e) {
			n++
		}
	}
	return n
}

func displayName(class string) string {
	if class == "" {
		return "Enemy Ship"
	}
	return strings.ToUpper(class[:1]) + class[1:]
}
