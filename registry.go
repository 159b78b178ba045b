package privateer

// Registry owns the live entity set and an index per component kind.
type Registry struct {
	all    *entitySet
	byKind [componentKindCount]*entitySet

	onRemove []func(*Entity)
}

func NewRegistry() *Registry {
	r := &Registry{all: newEntitySet()}
	for i := range r.byKind {
		r.byKind[i] = newEntitySet()
	}
	return r
}

// OnEntityRemoved registers fn to run after an entity leaves the registry.
func (r *Registry) OnEntityRemoved(fn func(*Entity)) {
	r.onRemove = append(r.onRemove, fn)
}

// AddEntity registers e and indexes every component it carries. Adding an
// entity twice only resynchronises its index entries.
func (r *Registry) AddEntity(e *Entity) {
	if e == nil {
		return
	}
	r.all.add(e)
	for k := ComponentKind(0); k < componentKindCount; k++ {
		if e.Has(k) {
			r.byKind[k].add(e)
		} else {
			r.byKind[k].remove(e.ID())
		}
	}
}

// AddComponent attaches c to e, replacing any component of the same kind.
func (r *Registry) AddComponent(e *Entity, c Component) {
	if e == nil || c == nil || !c.Kind().valid() {
		return
	}
	kind := c.Kind()
	registered := r.all.has(e.ID())
	if registered && e.Has(kind) {
		r.byKind[kind].remove(e.ID())
	}
	c.attach(e)
	if registered {
		r.byKind[kind].add(e)
	}
}

// RemoveComponent detaches the kind from e. Absent components are ignored.
func (r *Registry) RemoveComponent(e *Entity, kind ComponentKind) {
	if e == nil || !kind.valid() || !e.Has(kind) {
		return
	}
	e.detach(kind)
	r.byKind[kind].remove(e.ID())
}

// RemoveEntity drops e from every index and then from the registry.
// It reports whether e was registered.
func (r *Registry) RemoveEntity(e *Entity) bool {
	if e == nil || !r.all.has(e.ID()) {
		return false
	}
	for _, set := range r.byKind {
		set.remove(e.ID())
	}
	r.all.remove(e.ID())
	for _, fn := range r.onRemove {
		fn(e)
	}
	return true
}

func (r *Registry) Contains(e *Entity) bool {
	return e != nil && r.all.has(e.ID())
}

func (r *Registry) Get(id uint64) (*Entity, bool) {
	return r.all.get(id)
}

func (r *Registry) Len() int { return r.all.len() }

func (r *Registry) GetEntities() []*Entity {
	out := make([]*Entity, len(r.all.dense))
	copy(out, r.all.dense)
	return out
}

// GetEntitiesWithComponents returns the entities carrying every listed kind.
// Unknown kinds yield an empty result.
func (r *Registry) GetEntitiesWithComponents(kinds ...ComponentKind) []*Entity {
	smallest := r.smallest(kinds)
	if smallest == nil {
		return nil
	}
	var out []*Entity
	for _, e := range smallest.dense {
		if r.matches(e, kinds) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) GetFirstEntityWithComponents(kinds ...ComponentKind) (*Entity, bool) {
	smallest := r.smallest(kinds)
	if smallest == nil {
		return nil, false
	}
	for _, e := range smallest.dense {
		if r.matches(e, kinds) {
			return e, true
		}
	}
	return nil, false
}

// GetPlayerShip returns the first ship on the player team.
func (r *Registry) GetPlayerShip() *Entity {
	for _, e := range r.byKind[KindShip].dense {
		if e.Team == TeamPlayer {
			return e
		}
	}
	return nil
}

func (r *Registry) EntitiesTagged(tag string) []*Entity {
	var out []*Entity
	for _, e := range r.all.dense {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes every entity, notifying removal listeners for each.
func (r *Registry) Clear() {
	for _, e := range r.GetEntities() {
		r.RemoveEntity(e)
	}
}

func (r *Registry) smallest(kinds []ComponentKind) *entitySet {
	if len(kinds) == 0 {
		return r.all
	}
	var best *entitySet
	for _, k := range kinds {
		if !k.valid() {
			return nil
		}
		if best == nil || r.byKind[k].len() < best.len() {
			best = r.byKind[k]
		}
	}
	return best
}

func (r *Registry) matches(e *Entity, kinds []ComponentKind) bool {
	for _, k := range kinds {
		if !r.byKind[k].has(e.ID()) {
			return false
		}
	}
	return true
}
