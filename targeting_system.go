package privateer

import (
	"math"
	"sort"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

type LockState int

const (
	NoTarget LockState = iota
	Locking
	Locked
)

func (s LockState) String() string {
	switch s {
	case Locking:
		return "locking"
	case Locked:
		return "locked"
	}
	return "no target"
}

// TargetInfo is the derived view of one target as seen from an actor.
// Distances are meters, speeds m/s, angular velocity degrees per second.
type TargetInfo struct {
	ID    uint64
	Name  string
	Class string

	Distance        float64
	RelativeSpeed   float64
	ClosingSpeed    float64
	AngularVelocity float64

	Shield float64
	Armor  float64
	Hull   float64
}

type PointOfInterest struct {
	ID       uint64
	Name     string
	Distance float64
}

// Targeting holds one actor's lock protocol state: at most one target being
// locked and at most one locked target.
type Targeting struct {
	Candidates []TargetInfo
	POIs       []PointOfInterest

	Locking    uint64
	HasLocking bool
	LockStart  time.Time

	Active     uint64
	HasActive  bool
	ActiveInfo TargetInfo
}

func (t *Targeting) State() LockState {
	switch {
	case t.HasLocking:
		return Locking
	case t.HasActive:
		return Locked
	}
	return NoTarget
}

func (t *Targeting) clear() {
	t.Locking, t.HasLocking = 0, false
	t.LockStart = time.Time{}
	t.Active, t.HasActive = 0, false
	t.ActiveInfo = TargetInfo{}
}

// TargetingSystem refreshes candidate lists and advances target locks.
type TargetingSystem struct {
	Config *Config
	Clock  Clock

	registry *Registry
}

func NewTargetingSystem(cfg *Config, r *Registry, clock Clock) *TargetingSystem {
	if clock == nil {
		clock = WallClock{}
	}
	return &TargetingSystem{Config: cfg, Clock: clock, registry: r}
}

func (*TargetingSystem) Priority() int { return priorityTargeting }

func (ts *TargetingSystem) Update(dt float32) {
	ts.Step(float64(dt), ts.registry)
}

// Remove forgets a removed entity in every actor's lock slots.
func (ts *TargetingSystem) Remove(b ecs.BasicEntity) {
	if ts.registry == nil {
		return
	}
	id := b.ID()
	for _, actor := range ts.registry.GetEntitiesWithComponents(KindTargeting) {
		t := actor.Targeting
		if t.HasLocking && t.Locking == id {
			t.Locking, t.HasLocking = 0, false
			t.LockStart = time.Time{}
		}
		if t.HasActive && t.Active == id {
			t.Active, t.HasActive = 0, false
			t.ActiveInfo = TargetInfo{}
		}
		for i, c := range t.Candidates {
			if c.ID == id {
				t.Candidates = append(t.Candidates[:i], t.Candidates[i+1:]...)
				break
			}
		}
	}
}

func (ts *TargetingSystem) Step(dt float64, r *Registry) {
	if r == nil {
		return
	}
	ts.registry = r
	if normalizeDT(dt, ts.Config.Physics.MillisecondThreshold) <= 0 {
		return
	}
	for _, actor := range r.GetEntitiesWithComponents(KindTargeting, KindPosition) {
		ts.refresh(actor, r)
	}
}

func (ts *TargetingSystem) refresh(actor *Entity, r *Registry) {
	t := actor.Targeting
	cfg := ts.Config

	maxRange := cfg.MetersToPixels(cfg.Targeting.MaxRange)
	ships := r.Query(All(
		HasComponent(KindShip),
		HasComponent(KindPosition),
		Not(IsEntity(actor.ID())),
		Within(maxRange),
	), actor)

	t.Candidates = t.Candidates[:0]
	for _, s := range ships {
		t.Candidates = append(t.Candidates, ts.describe(actor, s))
	}
	sort.SliceStable(t.Candidates, func(i, j int) bool {
		return t.Candidates[i].Distance < t.Candidates[j].Distance
	})

	if t.HasLocking {
		if _, ok := r.Get(t.Locking); !ok {
			t.Locking, t.HasLocking = 0, false
		} else if ts.Clock.Now().Sub(t.LockStart) >= cfg.Targeting.LockDuration {
			ts.completeLock(actor)
		}
	}

	if t.HasActive {
		target, ok := r.Get(t.Active)
		if !ok || target.Position == nil {
			t.Active, t.HasActive = 0, false
			t.ActiveInfo = TargetInfo{}
		} else {
			// an out-of-range target keeps its lock
			t.ActiveInfo = ts.describe(actor, target)
		}
	}

	t.POIs = t.POIs[:0]
	for _, p := range r.Query(All(WithTag("poi"), HasComponent(KindPosition)), actor) {
		t.POIs = append(t.POIs, PointOfInterest{
			ID:       p.ID(),
			Name:     p.Name,
			Distance: cfg.PixelsToMeters(p.Position.Vec().Sub(actor.Position.Vec()).Len()),
		})
	}
	sort.SliceStable(t.POIs, func(i, j int) bool { return t.POIs[i].Distance < t.POIs[j].Distance })
}

func (ts *TargetingSystem) completeLock(actor *Entity) {
	t := actor.Targeting
	t.Active, t.HasActive = t.Locking, true
	t.Locking, t.HasLocking = 0, false
	t.LockStart = time.Time{}
	systemLog("targeting").WithFields(logrus.Fields{"actor": actor.ID(), "target": t.Active}).Info("target locked")
}

// StartTargetLock begins locking targetID. Selecting the target already
// being locked is a no-op; any existing lock is released first.
func (ts *TargetingSystem) StartTargetLock(actor *Entity, targetID uint64) bool {
	if actor == nil || actor.Targeting == nil || ts.registry == nil {
		return false
	}
	t := actor.Targeting
	if t.HasLocking && t.Locking == targetID {
		return true
	}
	target, ok := ts.registry.Get(targetID)
	if !ok || target == actor || target.Position == nil {
		return false
	}

	ts.UnlockTarget(actor)
	t.Locking, t.HasLocking = targetID, true
	t.LockStart = ts.Clock.Now()
	systemLog("targeting").WithFields(logrus.Fields{"actor": actor.ID(), "target": targetID}).Debug("locking target")
	return true
}

func (ts *TargetingSystem) UnlockTarget(actor *Entity) {
	if actor == nil || actor.Targeting == nil {
		return
	}
	actor.Targeting.clear()
}

// CycleTarget starts locking the next candidate after the current one,
// wrapping around the distance-sorted list.
func (ts *TargetingSystem) CycleTarget(actor *Entity) bool {
	if actor == nil || actor.Targeting == nil || len(actor.Targeting.Candidates) == 0 {
		return false
	}
	t := actor.Targeting
	current := -1
	for i, c := range t.Candidates {
		if (t.HasLocking && c.ID == t.Locking) || (!t.HasLocking && t.HasActive && c.ID == t.Active) {
			current = i
		}
	}
	next := current + 1
	if next >= len(t.Candidates) {
		next = 0
	}
	return ts.StartTargetLock(actor, t.Candidates[next].ID)
}

// LockState reports the actor's protocol state and the id it concerns. Locks
// complete in Step, so a lock past its duration reads Locking until the next
// tick.
func (ts *TargetingSystem) LockState(actor *Entity) (LockState, uint64) {
	if actor == nil || actor.Targeting == nil {
		return NoTarget, 0
	}
	t := actor.Targeting
	switch t.State() {
	case Locking:
		return Locking, t.Locking
	case Locked:
		return Locked, t.Active
	}
	return NoTarget, 0
}

// ActiveTarget returns the locked target if it is still registered.
func (ts *TargetingSystem) ActiveTarget(actor *Entity) (*Entity, bool) {
	if actor == nil || actor.Targeting == nil || !actor.Targeting.HasActive || ts.registry == nil {
		return nil, false
	}
	return ts.registry.Get(actor.Targeting.Active)
}

func (ts *TargetingSystem) describe(actor, target *Entity) TargetInfo {
	cfg := ts.Config
	info := TargetInfo{ID: target.ID(), Name: target.Name}
	if target.Ship != nil {
		info.Class = target.Ship.Class
	}

	los := target.Position.Vec().Sub(actor.Position.Vec())
	info.Distance = cfg.PixelsToMeters(los.Len())

	var rel mgl64.Vec2
	if target.Velocity != nil {
		rel = target.Velocity.Vec()
	}
	if actor.Velocity != nil {
		rel = rel.Sub(actor.Velocity.Vec())
	}
	info.RelativeSpeed = rel.Len()
	if los.Len() > 0 {
		info.ClosingSpeed = -rel.Dot(los.Mul(1 / los.Len()))
	}
	info.AngularVelocity = TransverseAngularRate(rel, los, info.Distance, cfg.Targeting.AngularEpsilon)

	if h := target.Health; h != nil {
		info.Hull = ratio(h.Current, h.Max)
		info.Shield = ratio(h.Shield, h.ShieldMax)
		info.Armor = ratio(h.Armor, h.ArmorMax)
	}
	return info
}

// TransverseAngularRate projects rel onto the normal of the line of sight and
// divides by distance, returning degrees per second. Distances below eps
// yield 0.
func TransverseAngularRate(rel, los mgl64.Vec2, distance, eps float64) float64 {
	l := los.Len()
	if distance < eps || l == 0 || !finite(distance) {
		return 0
	}
	normal := mgl64.Vec2{-los.Y() / l, los.X() / l}
	transverse := math.Abs(rel.Dot(normal))
	return mgl64.RadToDeg(transverse / distance)
}

func ratio(v, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return v / total
}
