package privateer

type CircleEntity struct {
	*Entity

	Radius float64
}

// CircleCollisionSystem reports every overlapping pair of circles. The list
// is rebuilt by Sync, so removed entities drop out on the next sync.
type CircleCollisionSystem struct {
	Entities []CircleEntity
}

func (ccs *CircleCollisionSystem) Add(ent *Entity, radius float64) {
	ccs.Entities = append(ccs.Entities, CircleEntity{ent, radius})
}

func (ccs *CircleCollisionSystem) Reset() {
	ccs.Entities = ccs.Entities[:0]
}

// Sync rebuilds the circle list from every positioned collider in r.
func (ccs *CircleCollisionSystem) Sync(r *Registry) {
	ccs.Reset()
	for _, e := range r.GetEntitiesWithComponents(KindPosition, KindCollider) {
		ccs.Add(e, e.Collider.Radius)
	}
}

// Detect calls fn once per overlapping pair of the last Sync. Entities fn
// removes from the registry stay in the list until the next Sync.
func (ccs *CircleCollisionSystem) Detect(fn func(a, b CircleEntity)) {
	for i := 0; i < len(ccs.Entities); i++ {
		a := ccs.Entities[i]
		for j := i + 1; j < len(ccs.Entities); j++ {
			b := ccs.Entities[j]
			dist := a.Position.Vec().Sub(b.Position.Vec()).Len()
			if dist-a.Radius-b.Radius < 0 {
				fn(a, b)
			}
		}
	}
}
