package privateer

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

const (
	ClockWall       = "wall"
	ClockSimulation = "simulation"
)

type Config struct {
	Seed int64 `yaml:"seed"`

	Physics   PhysicsConfig   `yaml:"physics"`
	World     WorldConfig     `yaml:"world"`
	AI        AIConfig        `yaml:"ai"`
	Targeting TargetingConfig `yaml:"targeting"`
	Combat    CombatConfig    `yaml:"combat"`
	Weapons   WeaponsConfig   `yaml:"weapons"`
	Modules   ModulesConfig   `yaml:"modules"`

	PlayerClass string               `yaml:"player_class"`
	ShipClasses map[string]ShipClass `yaml:"ship_classes"`
	Spawn       SpawnConfig          `yaml:"spawn"`
}

type PhysicsConfig struct {
	// Scale converts meters to pixels.
	Scale float64 `yaml:"scale"`
	// Drag is applied once per tick, independent of dt.
	Drag                 float64 `yaml:"drag"`
	MillisecondThreshold float64 `yaml:"millisecond_threshold"`
	OrbitCorrectionRate  float64 `yaml:"orbit_correction_rate"`
	OrbitDeadband        float64 `yaml:"orbit_deadband"`
	DefaultOrbitDistance float64 `yaml:"default_orbit_distance"`
}

// WorldConfig bounds the playfield in pixels. An empty box means unbounded.
type WorldConfig struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

func (w WorldConfig) Bounded() bool {
	return w.MaxX > w.MinX && w.MaxY > w.MinY
}

type AIConfig struct {
	DecisionInterval   float64 `yaml:"decision_interval"`
	MinDwell           float64 `yaml:"min_dwell"`
	FleeThreshold      float64 `yaml:"flee_threshold"`
	DetectionRange     float64 `yaml:"detection_range"`
	DisengageFactor    float64 `yaml:"disengage_factor"`
	DefaultState       AIState `yaml:"default_state"`
	OrbitBandMin       float64 `yaml:"orbit_band_min"`
	OrbitBandMax       float64 `yaml:"orbit_band_max"`
	OrbitBuffer        float64 `yaml:"orbit_buffer"`
	OrbitSpeedFraction float64 `yaml:"orbit_speed_fraction"`
	OrbitSmoothing     float64 `yaml:"orbit_smoothing"`
	FireArc            float64 `yaml:"fire_arc"`
	TurnThreshold      float64 `yaml:"turn_threshold"`
	FleeTurnFactor     float64 `yaml:"flee_turn_factor"`
	FleeThrustFactor   float64 `yaml:"flee_thrust_factor"`
	IdleDecay          float64 `yaml:"idle_decay"`
	IdleSpeedFraction  float64 `yaml:"idle_speed_fraction"`
	IdleTurnChance     float64 `yaml:"idle_turn_chance"`
	IdleThrustChance   float64 `yaml:"idle_thrust_chance"`

	UseAfterburnerWhenFleeing bool `yaml:"use_afterburner_when_fleeing"`
}

type TargetingConfig struct {
	LockDuration   time.Duration `yaml:"lock_duration"`
	MaxRange       float64       `yaml:"max_range"`
	Clock          string        `yaml:"clock"`
	AngularEpsilon float64       `yaml:"angular_epsilon"`
}

type CombatConfig struct {
	FriendlyFire       bool    `yaml:"friendly_fire"`
	ProjectileRadius   float64 `yaml:"projectile_radius"`
	ProjectileLifetime float64 `yaml:"projectile_lifetime"`
	MuzzleOffset       float64 `yaml:"muzzle_offset"`
	InheritVelocity    float64 `yaml:"inherit_velocity"`
}

// WeaponConfig describes a weapon. Range and speed are in meters.
type WeaponConfig struct {
	Damage          float64 `yaml:"damage"`
	FireRate        float64 `yaml:"fire_rate"`
	Range           float64 `yaml:"range"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	EnergyCost      float64 `yaml:"energy_cost"`
}

type WeaponsConfig struct {
	Player WeaponConfig `yaml:"player"`
	Enemy  WeaponConfig `yaml:"enemy"`
}

type ModulesConfig struct {
	ShieldBooster ShieldBoosterConfig `yaml:"shield_booster"`
	ArmorRepairer ArmorRepairerConfig `yaml:"armor_repairer"`
	Afterburner   AfterburnerConfig   `yaml:"afterburner"`
}

type ShieldBoosterConfig struct {
	ActivationCost float64 `yaml:"activation_cost"`
	ActiveCost     float64 `yaml:"active_cost"`
	RechargeRate   float64 `yaml:"recharge_rate"`
	RechargeDelay  float64 `yaml:"recharge_delay"`
}

type ArmorRepairerConfig struct {
	RepairRate     float64 `yaml:"repair_rate"`
	CostPerPoint   float64 `yaml:"cost_per_point"`
	RepairCooldown float64 `yaml:"repair_cooldown"`
}

type AfterburnerConfig struct {
	SpeedBoost float64 `yaml:"speed_boost"`
	Duration   float64 `yaml:"duration"`
	EnergyCost float64 `yaml:"energy_cost"`
	Cooldown   float64 `yaml:"cooldown"`
}

type ShipClass struct {
	Description    string  `yaml:"description"`
	Color          string  `yaml:"color"`
	MaxSpeed       float64 `yaml:"max_speed"`
	Acceleration   float64 `yaml:"acceleration"`
	RotationSpeed  float64 `yaml:"rotation_speed"`
	Hull           float64 `yaml:"hull"`
	Shield         float64 `yaml:"shield"`
	Armor          float64 `yaml:"armor"`
	Energy         float64 `yaml:"energy"`
	EnergyRecharge float64 `yaml:"energy_recharge"`
	ColliderRadius float64 `yaml:"collider_radius"`
}

type SpawnConfig struct {
	WaveDistance float64  `yaml:"wave_distance"`
	MinSpeed     float64  `yaml:"min_speed"`
	MaxSpeed     float64  `yaml:"max_speed"`
	EnemyClasses []string `yaml:"enemy_classes"`
	BuoyRadius   float64  `yaml:"buoy_radius"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	c, err := ParseConfig(bytes.NewReader(defaultConfigYAML))
	if err != nil {
		panic(errors.Wrap(err, "embedded defaults"))
	}
	return c
}

// ParseConfig decodes r on top of an empty config and validates it.
func ParseConfig(r io.Reader) (*Config, error) {
	var c Config
	if err := decodeInto(&c, r); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfig reads path and overlays it on the defaults. Ship classes named
// in the file replace the default entry as a whole.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config")
	}
	defer f.Close()

	c := DefaultConfig()
	if err := decodeInto(c, f); err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return c, nil
}

func decodeInto(c *Config, r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrap(err, "failed to decode config")
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.Physics.Scale <= 0:
		return errors.New("physics.scale must be positive")
	case c.Physics.Drag <= 0 || c.Physics.Drag > 1:
		return errors.Errorf("physics.drag %v out of (0, 1]", c.Physics.Drag)
	case c.Physics.DefaultOrbitDistance <= 0:
		return errors.New("physics.default_orbit_distance must be positive")
	case c.AI.DecisionInterval <= 0:
		return errors.New("ai.decision_interval must be positive")
	case c.AI.DisengageFactor < 1:
		return errors.Errorf("ai.disengage_factor %v must be at least 1", c.AI.DisengageFactor)
	case c.AI.FleeThreshold < 0 || c.AI.FleeThreshold > 1:
		return errors.Errorf("ai.flee_threshold %v out of [0, 1]", c.AI.FleeThreshold)
	case c.AI.OrbitBandMin <= 0 || c.AI.OrbitBandMax < c.AI.OrbitBandMin:
		return errors.Errorf("ai orbit band [%v, %v] is empty", c.AI.OrbitBandMin, c.AI.OrbitBandMax)
	case c.AI.OrbitSmoothing <= 0 || c.AI.OrbitSmoothing > 1:
		return errors.Errorf("ai.orbit_smoothing %v out of (0, 1]", c.AI.OrbitSmoothing)
	case c.AI.DefaultState != AIOrbit && c.AI.DefaultState != AIIdle:
		return errors.Errorf("ai.default_state %q must be orbit or idle", c.AI.DefaultState)
	case c.Targeting.LockDuration < 0:
		return errors.New("targeting.lock_duration must not be negative")
	case c.Targeting.Clock != ClockWall && c.Targeting.Clock != ClockSimulation:
		return errors.Errorf("targeting.clock %q must be wall or simulation", c.Targeting.Clock)
	case c.Combat.ProjectileLifetime <= 0:
		return errors.New("combat.projectile_lifetime must be positive")
	}
	if _, ok := c.ShipClasses[c.PlayerClass]; !ok {
		return errors.Errorf("player_class %q is not a ship class", c.PlayerClass)
	}
	for name, sc := range c.ShipClasses {
		if sc.MaxSpeed <= 0 || sc.Hull <= 0 {
			return errors.Errorf("ship class %q needs positive max_speed and hull", name)
		}
		if sc.Shield < 0 || sc.Armor < 0 || sc.Energy < 0 {
			return errors.Errorf("ship class %q has negative pools", name)
		}
	}
	for _, name := range c.Spawn.EnemyClasses {
		if _, ok := c.ShipClasses[name]; !ok {
			return errors.Errorf("spawn.enemy_classes: unknown class %q", name)
		}
	}
	return nil
}

// Class returns the named ship class, falling back to the first enemy class.
func (c *Config) Class(name string) (ShipClass, string) {
	if sc, ok := c.ShipClasses[name]; ok {
		return sc, name
	}
	if len(c.Spawn.EnemyClasses) > 0 {
		name = c.Spawn.EnemyClasses[0]
		return c.ShipClasses[name], name
	}
	return c.ShipClasses[c.PlayerClass], c.PlayerClass
}

func (c *Config) MetersToPixels(m float64) float64  { return m * c.Physics.Scale }
func (c *Config) PixelsToMeters(px float64) float64 { return px / c.Physics.Scale }
