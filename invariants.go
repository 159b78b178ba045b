package privateer

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

const invariantTolerance = 1e-9

// CheckInvariants verifies the state rules that must hold between ticks.
// It returns nil or an error listing every violation found.
func CheckInvariants(r *Registry) error {
	var problems []string
	report := func(e *Entity, format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf("entity %d (%s): ", e.ID(), e.Name)+fmt.Sprintf(format, args...))
	}

	for _, e := range r.GetEntities() {
		if p := e.Position; p != nil && (!finite(p.X) || !finite(p.Y)) {
			report(e, "non-finite position (%v, %v)", p.X, p.Y)
		}
		if v := e.Velocity; v != nil {
			if speed := v.Speed(); speed > v.MaxSpeed*(1+invariantTolerance)+invariantTolerance {
				report(e, "speed %.3f exceeds max %.3f", speed, v.MaxSpeed)
			}
		}
		if rot := e.Rotation; rot != nil && (rot.Angle < 0 || rot.Angle >= 2*math.Pi) {
			report(e, "rotation %v outside [0, 2π)", rot.Angle)
		}
		if h := e.Health; h != nil {
			if h.Current < 0 || h.Current > h.Max {
				report(e, "hull %v outside [0, %v]", h.Current, h.Max)
			}
			if h.Current <= 0 && e.Ship != nil {
				report(e, "destroyed ship still registered")
			}
			if h.Shield < 0 || h.Shield > h.ShieldMax {
				report(e, "shield %v outside [0, %v]", h.Shield, h.ShieldMax)
			}
			if h.Armor < 0 || h.Armor > h.ArmorMax {
				report(e, "armor %v outside [0, %v]", h.Armor, h.ArmorMax)
			}
		}
		if en := e.Energy; en != nil && (en.Current < 0 || en.Current > en.Max+invariantTolerance) {
			report(e, "energy %v outside [0, %v]", en.Current, en.Max)
		}
		if t := e.Targeting; t != nil {
			if t.HasLocking {
				if _, ok := r.Get(t.Locking); !ok {
					report(e, "locking unregistered entity %d", t.Locking)
				}
			}
			if t.HasActive {
				if _, ok := r.Get(t.Active); !ok {
					report(e, "locked onto unregistered entity %d", t.Active)
				}
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.Errorf("%d invariant violations: %s", len(problems), strings.Join(problems, "; "))
}
