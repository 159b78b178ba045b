package main

import (
	"context"
	"math"

	"github.com/covertsonic/privateer"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

type result struct {
	Seed        int64
	RunID       string
	Frames      uint64
	Seconds     float64
	Kills       int
	PlayerAlive bool
	Hull        float64
	Violation   error
}

// skirmish is one scripted player against a wave of enemies.
type skirmish struct {
	Config  *privateer.Config
	RunID   string
	Enemies int
	Pilot   string
	Tick    float64
	Frames  int
	Log     logrus.FieldLogger
}

func (sk skirmish) run(ctx context.Context) (result, error) {
	res := result{Seed: sk.Config.Seed, RunID: sk.RunID}
	l := sk.Log.WithFields(logrus.Fields{"run_id": sk.RunID, "seed": sk.Config.Seed})

	s := privateer.NewScene(sk.Config)
	s.OnDestroyed(func(e *privateer.Entity) {
		if e.Team == privateer.TeamEnemy {
			res.Kills++
		}
	})
	s.SpawnPlayer(mgl64.Vec2{})
	s.SpawnBuoy("Buoy Alpha", mgl64.Vec2{100, 0})
	s.SpawnWave(sk.Enemies)
	l.WithField("enemies", sk.Enemies).Info("skirmish started")

	for i := 0; i < sk.Frames; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		if s.Player() == nil {
			break
		}
		s.SetInput(pilot(s, sk.Pilot))
		s.Tick(sk.Tick)

		if err := privateer.CheckInvariants(s.Registry()); err != nil {
			res.Violation = err
			l.WithError(err).WithField("frame", s.Clock().Frames()).Error("invariant violated")
			break
		}
		if len(s.Registry().GetEntitiesWithComponents(privateer.KindAI)) == 0 {
			break
		}
	}

	res.Frames = s.Clock().Frames()
	res.Seconds = s.Clock().Seconds()
	if p := s.Player(); p != nil {
		res.PlayerAlive = true
		res.Hull = p.Health.Current
	}
	l.WithFields(logrus.Fields{
		"kills":  res.Kills,
		"alive":  res.PlayerAlive,
		"frames": res.Frames,
	}).Info("skirmish finished")
	return res, nil
}

// pilot scripts the player: lock the nearest ship, then either fly at it
// and shoot (gunner) or orbit it (orbiter). Modules are used when damaged.
func pilot(s *privateer.Scene, mode string) privateer.Input {
	var in privateer.Input
	p := s.Player()
	if p == nil || p.Targeting == nil {
		return in
	}

	m := p.Modules
	if m == nil {
		m = &privateer.Modules{}
	}
	if h := p.Health; h != nil {
		booster := m.ShieldBooster
		if booster != nil && !booster.Active && h.Shield > 0 && h.Shield < 0.3*h.ShieldMax {
			in.ShieldBooster = true
		}
		repairer := m.ArmorRepairer
		if repairer != nil && !repairer.Repairing && h.Armor < 0.5*h.ArmorMax {
			in.ArmorRepairer = true
		}
	}

	switch p.Targeting.State() {
	case privateer.NoTarget:
		if c := p.Targeting.Candidates; len(c) > 0 {
			in.Select, in.HasSelect = c[0].ID, true
		}
		return in
	case privateer.Locking:
		return in
	}

	target, ok := s.Targeting.ActiveTarget(p)
	if !ok {
		in.Unlock = true
		return in
	}

	to := target.Position.Vec().Sub(p.Position.Vec())
	diff := math.Remainder(math.Atan2(to.Y(), to.X())-p.Rotation.Heading(), 2*math.Pi)
	in.Left = diff < -0.05
	in.Right = diff > 0.05

	dist := s.Config.PixelsToMeters(to.Len())
	switch mode {
	case "orbiter":
		if p.Orbiting == nil {
			in.ToggleOrbit = true
		}
	default:
		in.Forward = dist > 0.6*p.Weapon.Range
		in.Back = dist < 1500
		if ab := m.Afterburner; dist > 20000 && ab != nil && !ab.Active && ab.CooldownLeft <= 0 {
			in.Afterburner = true
		}
	}
	in.Fire = math.Abs(diff) < 0.15
	return in
}
