package privateer

// DamageReport records how a hit was split across the three pools.
type DamageReport struct {
	Shield    float64
	Armor     float64
	Hull      float64
	Destroyed bool
}

// ApplyDamage runs amount through shield, then armor, then hull.
//
// Armor halves what reaches it. When armor runs out, the unabsorbed part is
// doubled back before it reaches the hull, so armor never mitigates more
// than it could hold.
func ApplyDamage(h *Health, amount float64) DamageReport {
	var rep DamageReport
	if h == nil || amount <= 0 || !finite(amount) {
		return rep
	}
	h.SinceDamage = 0

	remaining := amount
	if h.Shield > 0 {
		before := h.Shield
		h.Shield -= remaining
		remaining = 0
		if h.Shield < 0 {
			remaining = -h.Shield
			h.Shield = 0
		}
		rep.Shield = before - h.Shield
	}

	if remaining > 0 && h.Armor > 0 {
		before := h.Armor
		h.Armor -= remaining / 2
		remaining = 0
		if h.Armor < 0 {
			remaining = -h.Armor * 2
			h.Armor = 0
		}
		rep.Armor = before - h.Armor
	}

	if remaining > 0 {
		before := h.Current
		h.Current -= remaining
		if h.Current < 0 {
			h.Current = 0
		}
		rep.Hull = before - h.Current
	}
	rep.Destroyed = h.Current <= 0
	return rep
}
