package privateer

// ShieldBooster drains energy while active to regenerate shields quickly.
// When inactive it regenerates shields passively after a quiet period.
type ShieldBooster struct {
	ActivationCost float64
	ActiveCost     float64
	RechargeRate   float64
	RechargeDelay  float64

	Active bool
}

// ArmorRepairer converts energy into armor points while running.
type ArmorRepairer struct {
	RepairRate     float64
	CostPerPoint   float64
	RepairCooldown float64

	Repairing bool
}

// Afterburner multiplies top speed and acceleration for a short time.
type Afterburner struct {
	SpeedBoost float64
	Duration   float64
	EnergyCost float64
	Cooldown   float64

	Active       bool
	Remaining    float64
	CooldownLeft float64

	baseMaxSpeed     float64
	baseAcceleration float64
}

func newModules(cfg ModulesConfig) *Modules {
	return &Modules{
		ShieldBooster: &ShieldBooster{
			ActivationCost: cfg.ShieldBooster.ActivationCost,
			ActiveCost:     cfg.ShieldBooster.ActiveCost,
			RechargeRate:   cfg.ShieldBooster.RechargeRate,
			RechargeDelay:  cfg.ShieldBooster.RechargeDelay,
		},
		ArmorRepairer: &ArmorRepairer{
			RepairRate:     cfg.ArmorRepairer.RepairRate,
			CostPerPoint:   cfg.ArmorRepairer.CostPerPoint,
			RepairCooldown: cfg.ArmorRepairer.RepairCooldown,
		},
		Afterburner: &Afterburner{
			SpeedBoost: cfg.Afterburner.SpeedBoost,
			Duration:   cfg.Afterburner.Duration,
			EnergyCost: cfg.Afterburner.EnergyCost,
			Cooldown:   cfg.Afterburner.Cooldown,
		},
	}
}

// ActivateShieldBooster turns the booster on if the capacitor can pay the
// activation cost and the shield is not already broken.
func ActivateShieldBooster(e *Entity) bool {
	if e.Modules == nil || e.Modules.ShieldBooster == nil || e.Energy == nil || e.Health == nil {
		return false
	}
	sb := e.Modules.ShieldBooster
	if sb.Active || e.Health.Shield <= 0 {
		return false
	}
	if !e.Energy.Spend(sb.ActivationCost) {
		systemLog("modules").WithField("entity", e.ID()).Debug("shield booster: insufficient energy")
		return false
	}
	sb.Active = true
	return true
}

func DeactivateShieldBooster(e *Entity) {
	if e.Modules != nil && e.Modules.ShieldBooster != nil {
		e.Modules.ShieldBooster.Active = false
	}
}

// ActivateArmorRepair starts repairs once the post-damage cooldown passed.
func ActivateArmorRepair(e *Entity) bool {
	if e.Modules == nil || e.Modules.ArmorRepairer == nil || e.Health == nil || e.Energy == nil {
		return false
	}
	ar := e.Modules.ArmorRepairer
	if ar.Repairing || e.Health.Armor >= e.Health.ArmorMax {
		return false
	}
	if e.Health.SinceDamage < ar.RepairCooldown || e.Energy.Current <= 0 {
		return false
	}
	ar.Repairing = true
	return true
}

// ActivateAfterburner boosts the ship if energy and cooldown allow.
func ActivateAfterburner(e *Entity) bool {
	if e.Modules == nil || e.Modules.Afterburner == nil || e.Energy == nil || e.Velocity == nil {
		return false
	}
	ab := e.Modules.Afterburner
	if ab.Active || ab.CooldownLeft > 0 {
		return false
	}
	if !e.Energy.Spend(ab.EnergyCost) {
		systemLog("modules").WithField("entity", e.ID()).Debug("afterburner: insufficient energy")
		return false
	}
	ab.Active = true
	ab.Remaining = ab.Duration
	ab.baseMaxSpeed = e.Velocity.MaxSpeed
	ab.baseAcceleration = e.Velocity.Acceleration
	e.Velocity.MaxSpeed *= ab.SpeedBoost
	e.Velocity.Acceleration *= ab.SpeedBoost
	return true
}

// tickModules runs every module of e for dt seconds.
func tickModules(e *Entity, dt float64) {
	if e.Modules == nil {
		return
	}
	if sb := e.Modules.ShieldBooster; sb != nil && e.Health != nil && e.Energy != nil {
		sb.tick(e.Health, e.Energy, dt)
	}
	if ar := e.Modules.ArmorRepairer; ar != nil && e.Health != nil && e.Energy != nil {
		ar.tick(e.Health, e.Energy, dt)
	}
	if ab := e.Modules.Afterburner; ab != nil && e.Velocity != nil {
		ab.tick(e.Velocity, dt)
	}
}

func (sb *ShieldBooster) tick(h *Health, en *Energy, dt float64) {
	if sb.Active {
		if !en.Spend(sb.ActiveCost * dt) {
			sb.Active = false
			return
		}
		h.Shield = clamp(h.Shield+sb.RechargeRate*dt, 0, h.ShieldMax)
		return
	}
	if h.Shield < h.ShieldMax && h.SinceDamage >= sb.RechargeDelay {
		h.Shield = clamp(h.Shield+sb.RechargeRate*dt, 0, h.ShieldMax)
	}
}

// tick repairs armor, draining whatever energy is left when the capacitor
// cannot cover a full step.
func (ar *ArmorRepairer) tick(h *Health, en *Energy, dt float64) {
	if !ar.Repairing {
		return
	}
	if h.Armor >= h.ArmorMax {
		h.Armor = h.ArmorMax
		ar.Repairing = false
		return
	}
	repair := ar.RepairRate * dt
	cost := repair * ar.CostPerPoint
	switch {
	case en.Current >= cost:
		h.Armor = clamp(h.Armor+repair, 0, h.ArmorMax)
		en.Current -= cost
	case en.Current > 0 && ar.CostPerPoint > 0:
		h.Armor = clamp(h.Armor+en.Current/ar.CostPerPoint, 0, h.ArmorMax)
		en.Current = 0
	default:
		ar.Repairing = false
	}
}

func (ab *Afterburner) tick(v *Velocity, dt float64) {
	if ab.Active {
		ab.Remaining -= dt
		if ab.Remaining <= 0 {
			ab.Active = false
			ab.Remaining = 0
			ab.CooldownLeft = ab.Cooldown
			v.MaxSpeed = ab.baseMaxSpeed
			v.Acceleration = ab.baseAcceleration
			clampSpeed(v)
		}
		return
	}
	if ab.CooldownLeft > 0 {
		ab.CooldownLeft -= dt
		if ab.CooldownLeft < 0 {
			ab.CooldownLeft = 0
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
