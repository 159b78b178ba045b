package privateer

import "github.com/go-gl/mathgl/mgl64"

// Constraint selects entities. Exactly one field is expected to be set;
// a zero Constraint matches everything.
type Constraint struct {
	Sphere         *SphereConstraint
	Box            *BoxConstraint
	RelativeSphere *RelativeSphereConstraint
	EntityID       *uint64
	Component      *ComponentKind
	Tag            *string
	Team           *Team
	Not            *Constraint
	And            []Constraint
	Or             []Constraint
}

// SphereConstraint matches positions within Radius pixels of Center.
type SphereConstraint struct {
	Center mgl64.Vec2
	Radius float64
}

type BoxConstraint struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// RelativeSphereConstraint is a sphere centred on the querying entity.
type RelativeSphereConstraint struct {
	Radius float64
}

func HasComponent(k ComponentKind) Constraint { return Constraint{Component: &k} }
func WithTag(tag string) Constraint           { return Constraint{Tag: &tag} }
func OnTeam(t Team) Constraint                { return Constraint{Team: &t} }
func IsEntity(id uint64) Constraint           { return Constraint{EntityID: &id} }
func Within(radius float64) Constraint {
	return Constraint{RelativeSphere: &RelativeSphereConstraint{Radius: radius}}
}
func Not(c Constraint) Constraint     { return Constraint{Not: &c} }
func All(cs ...Constraint) Constraint { return Constraint{And: cs} }
func Any(cs ...Constraint) Constraint { return Constraint{Or: cs} }

// Match evaluates c for e. origin anchors relative constraints and may be
// nil, in which case relative constraints never match.
func (c Constraint) Match(e, origin *Entity) bool {
	switch {
	case c.Sphere != nil:
		return e.Position != nil && e.Position.Vec().Sub(c.Sphere.Center).Len() <= c.Sphere.Radius
	case c.Box != nil:
		if e.Position == nil {
			return false
		}
		p := e.Position.Vec()
		return p.X() >= c.Box.Min.X() && p.X() <= c.Box.Max.X() &&
			p.Y() >= c.Box.Min.Y() && p.Y() <= c.Box.Max.Y()
	case c.RelativeSphere != nil:
		if e.Position == nil || origin == nil || origin.Position == nil {
			return false
		}
		return e.Position.Vec().Sub(origin.Position.Vec()).Len() <= c.RelativeSphere.Radius
	case c.EntityID != nil:
		return e.ID() == *c.EntityID
	case c.Component != nil:
		return e.Has(*c.Component)
	case c.Tag != nil:
		return e.HasTag(*c.Tag)
	case c.Team != nil:
		return e.Team == *c.Team
	case c.Not != nil:
		return !c.Not.Match(e, origin)
	case c.And != nil:
		for _, sub := range c.And {
			if !sub.Match(e, origin) {
				return false
			}
		}
		return true
	case c.Or != nil:
		for _, sub := range c.Or {
			if sub.Match(e, origin) {
				return true
			}
		}
		return false
	}
	return true
}

// components gathers the kinds the constraint requires unconditionally so
// the registry can start from the smallest index.
func (c Constraint) components() []ComponentKind {
	switch {
	case c.Component != nil:
		return []ComponentKind{*c.Component}
	case c.And != nil:
		var kinds []ComponentKind
		for _, sub := range c.And {
			kinds = append(kinds, sub.components()...)
		}
		return kinds
	}
	return nil
}

// Query returns every registered entity matching c, relative to origin.
func (r *Registry) Query(c Constraint, origin *Entity) []*Entity {
	var out []*Entity
	for _, e := range r.GetEntitiesWithComponents(c.components()...) {
		if c.Match(e, origin) {
			out = append(out, e)
		}
	}
	return out
}
