package privateer

import (
	"math"
	"sort"

	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// ComponentKind identifies one slot of the entity capability table.
type ComponentKind int

const (
	KindPosition ComponentKind = iota
	KindVelocity
	KindRotation
	KindAngularVelocity
	KindHealth
	KindEnergy
	KindCollider
	KindOrbiting
	KindRenderable
	KindShip
	KindWeapon
	KindModules
	KindProjectile
	KindAI
	KindInput
	KindTargeting

	componentKindCount
)

var kindNames = [componentKindCount]string{
	"position",
	"velocity",
	"rotation",
	"angularVelocity",
	"health",
	"energy",
	"collider",
	"orbiting",
	"renderable",
	"ship",
	"weapon",
	"modules",
	"projectile",
	"ai",
	"input",
	"targeting",
}

func (k ComponentKind) valid() bool {
	return k >= 0 && k < componentKindCount
}

func (k ComponentKind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindNames[k]
}

// ParseComponentKind maps a component name to its kind.
func ParseComponentKind(name string) (ComponentKind, bool) {
	for i, n := range kindNames {
		if n == name {
			return ComponentKind(i), true
		}
	}
	return -1, false
}

// Component is implemented by every type that can occupy an entity slot.
type Component interface {
	Kind() ComponentKind
	attach(e *Entity)
}

type Team string

const (
	TeamPlayer  Team = "player"
	TeamEnemy   Team = "enemy"
	TeamNeutral Team = "neutral"
)

const (
	ColliderShip       = "ship"
	ColliderPOI        = "poi"
	ColliderProjectile = "projectile"
)

type Position struct {
	X float64
	Y float64
}

func (p *Position) Vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }
func (p *Position) Set(v mgl64.Vec2) {
	p.X, p.Y = v.X(), v.Y()
}

// Velocity is expressed in meters per second.
type Velocity struct {
	X             float64
	Y             float64
	MaxSpeed      float64
	Acceleration  float64
	RotationSpeed float64
}

func (v *Velocity) Vec() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }
func (v *Velocity) Set(vec mgl64.Vec2) {
	v.X, v.Y = vec.X(), vec.Y()
}
func (v *Velocity) Speed() float64 { return math.Hypot(v.X, v.Y) }

// Rotation stores the sprite angle. The heading is Angle - π/2.
type Rotation struct {
	Angle float64
}

func (r *Rotation) Heading() float64 { return r.Angle - math.Pi/2 }
func (r *Rotation) SetHeading(h float64) {
	r.Angle = wrapAngle(h + math.Pi/2)
}

type AngularVelocity struct {
	Speed float64
}

type Health struct {
	Current   float64
	Max       float64
	Shield    float64
	ShieldMax float64
	Armor     float64
	ArmorMax  float64

	// SinceDamage counts simulated seconds since the last hit.
	SinceDamage float64
}

func (h *Health) Fraction() float64 {
	if h.Max <= 0 {
		return 0
	}
	return h.Current / h.Max
}

type Energy struct {
	Current      float64
	Max          float64
	RechargeRate float64
}

// Spend debits amount only when it is fully available.
func (e *Energy) Spend(amount float64) bool {
	if amount < 0 || e.Current < amount {
		return false
	}
	e.Current -= amount
	return true
}

type Collider struct {
	Radius float64
	Type   string
}

// Orbiting asks physics to hold Distance meters from Target. The sign of
// Speed picks the direction; zero counts as counterclockwise.
type Orbiting struct {
	Target   uint64
	Distance float64
	Speed    float64
}

func (o *Orbiting) Direction() float64 {
	if o.Speed < 0 {
		return -1
	}
	return 1
}

type Renderable struct {
	Sprite string
	Color  string
	Z      int
}

type ShipInfo struct {
	Class       string
	Description string
}

type Weapon struct {
	Damage          float64
	FireRate        float64
	Range           float64
	ProjectileSpeed float64
	EnergyCost      float64

	LastFired float64
	Fired     bool
}

// Ready reports whether the cooldown has elapsed at simulation time now.
func (w *Weapon) Ready(now float64) bool {
	if w.FireRate <= 0 {
		return false
	}
	if !w.Fired {
		return true
	}
	return now-w.LastFired >= 1/w.FireRate
}

type Modules struct {
	ShieldBooster *ShieldBooster
	ArmorRepairer *ArmorRepairer
	Afterburner   *Afterburner
}

type Projectile struct {
	Owner    uint64
	Team     Team
	Damage   float64
	Vel      mgl64.Vec2
	Radius   float64
	Age      float64
	Lifetime float64
	Traveled float64
	Range    float64
}

type AIState string

const (
	AIIdle      AIState = "idle"
	AIAttacking AIState = "attacking"
	AIFleeing   AIState = "fleeing"
	AIOrbit     AIState = "orbit"
)

type AI struct {
	State AIState

	// DecisionTimer counts down to the next decision.
	DecisionTimer float64
	// InState is the time spent in State.
	InState float64

	DesiredOrbitDistancePixels float64
	OrbitAssignments           int
	// Handedness is +1 for counterclockwise and -1 for clockwise.
	Handedness float64

	Target    uint64
	HasTarget bool
}

type Input struct {
	Left    bool
	Right   bool
	Forward bool
	Back    bool
	Fire    bool

	ToggleOrbit   bool
	ShieldBooster bool
	ArmorRepairer bool
	Afterburner   bool

	Select    uint64
	HasSelect bool
	Cycle     bool
	Unlock    bool
}

// clearEdges resets the one-shot intents after they were applied.
func (in *Input) clearEdges() {
	in.ToggleOrbit = false
	in.ShieldBooster = false
	in.ArmorRepairer = false
	in.Afterburner = false
	in.HasSelect = false
	in.Select = 0
	in.Cycle = false
	in.Unlock = false
}

func (*Position) Kind() ComponentKind        { return KindPosition }
func (*Velocity) Kind() ComponentKind        { return KindVelocity }
func (*Rotation) Kind() ComponentKind        { return KindRotation }
func (*AngularVelocity) Kind() ComponentKind { return KindAngularVelocity }
func (*Health) Kind() ComponentKind          { return KindHealth }
func (*Energy) Kind() ComponentKind          { return KindEnergy }
func (*Collider) Kind() ComponentKind        { return KindCollider }
func (*Orbiting) Kind() ComponentKind        { return KindOrbiting }
func (*Renderable) Kind() ComponentKind      { return KindRenderable }
func (*ShipInfo) Kind() ComponentKind        { return KindShip }
func (*Weapon) Kind() ComponentKind          { return KindWeapon }
func (*Modules) Kind() ComponentKind         { return KindModules }
func (*Projectile) Kind() ComponentKind      { return KindProjectile }
func (*AI) Kind() ComponentKind              { return KindAI }
func (*Input) Kind() ComponentKind           { return KindInput }
func (*Targeting) Kind() ComponentKind       { return KindTargeting }

func (c *Position) attach(e *Entity)        { e.Position = c }
func (c *Velocity) attach(e *Entity)        { e.Velocity = c }
func (c *Rotation) attach(e *Entity)        { e.Rotation = c }
func (c *AngularVelocity) attach(e *Entity) { e.AngularVelocity = c }
func (c *Health) attach(e *Entity)          { e.Health = c }
func (c *Energy) attach(e *Entity)          { e.Energy = c }
func (c *Collider) attach(e *Entity)        { e.Collider = c }
func (c *Orbiting) attach(e *Entity)        { e.Orbiting = c }
func (c *Renderable) attach(e *Entity)      { e.Renderable = c }
func (c *ShipInfo) attach(e *Entity)        { e.Ship = c }
func (c *Weapon) attach(e *Entity)          { e.Weapon = c }
func (c *Modules) attach(e *Entity)         { e.Modules = c }
func (c *Projectile) attach(e *Entity)      { e.Projectile = c }
func (c *AI) attach(e *Entity)              { e.AI = c }
func (c *Input) attach(e *Entity)           { e.Input = c }
func (c *Targeting) attach(e *Entity)       { e.Targeting = c }

// Entity is an id plus a fixed table of optional typed components.
type Entity struct {
	ecs.BasicEntity

	Name     string
	Team     Team
	Tags     map[string]struct{}
	Behavior Behavior

	Position        *Position
	Velocity        *Velocity
	Rotation        *Rotation
	AngularVelocity *AngularVelocity
	Health          *Health
	Energy          *Energy
	Collider        *Collider
	Orbiting        *Orbiting
	Renderable      *Renderable
	Ship            *ShipInfo
	Weapon          *Weapon
	Modules         *Modules
	Projectile      *Projectile
	AI              *AI
	Input           *Input
	Targeting       *Targeting
}

// NewEntity allocates an entity with a fresh id and no components.
func NewEntity(name string, team Team) *Entity {
	return &Entity{
		BasicEntity: ecs.NewBasic(),
		Name:        name,
		Team:        team,
		Tags:        map[string]struct{}{},
	}
}

// With attaches components directly. Use Registry.AddComponent once the
// entity is registered.
func (e *Entity) With(cs ...Component) *Entity {
	for _, c := range cs {
		c.attach(e)
	}
	return e
}

func (e *Entity) Tag(tags ...string) *Entity {
	if e.Tags == nil {
		e.Tags = map[string]struct{}{}
	}
	for _, t := range tags {
		e.Tags[t] = struct{}{}
	}
	return e
}

func (e *Entity) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

func (e *Entity) TagList() []string {
	tags := make([]string, 0, len(e.Tags))
	for t := range e.Tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func (e *Entity) Has(kind ComponentKind) bool {
	switch kind {
	case KindPosition:
		return e.Position != nil
	case KindVelocity:
		return e.Velocity != nil
	case KindRotation:
		return e.Rotation != nil
	case KindAngularVelocity:
		return e.AngularVelocity != nil
	case KindHealth:
		return e.Health != nil
	case KindEnergy:
		return e.Energy != nil
	case KindCollider:
		return e.Collider != nil
	case KindOrbiting:
		return e.Orbiting != nil
	case KindRenderable:
		return e.Renderable != nil
	case KindShip:
		return e.Ship != nil
	case KindWeapon:
		return e.Weapon != nil
	case KindModules:
		return e.Modules != nil
	case KindProjectile:
		return e.Projectile != nil
	case KindAI:
		return e.AI != nil
	case KindInput:
		return e.Input != nil
	case KindTargeting:
		return e.Targeting != nil
	}
	return false
}

func (e *Entity) detach(kind ComponentKind) {
	switch kind {
	case KindPosition:
		e.Position = nil
	case KindVelocity:
		e.Velocity = nil
	case KindRotation:
		e.Rotation = nil
	case KindAngularVelocity:
		e.AngularVelocity = nil
	case KindHealth:
		e.Health = nil
	case KindEnergy:
		e.Energy = nil
	case KindCollider:
		e.Collider = nil
	case KindOrbiting:
		e.Orbiting = nil
	case KindRenderable:
		e.Renderable = nil
	case KindShip:
		e.Ship = nil
	case KindWeapon:
		e.Weapon = nil
	case KindModules:
		e.Modules = nil
	case KindProjectile:
		e.Projectile = nil
	case KindAI:
		e.AI = nil
	case KindInput:
		e.Input = nil
	case KindTargeting:
		e.Targeting = nil
	}
}

// Kinds lists the kinds currently present, in kind order.
func (e *Entity) Kinds() []ComponentKind {
	var kinds []ComponentKind
	for k := ComponentKind(0); k < componentKindCount; k++ {
		if e.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
