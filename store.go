package privateer

// entitySet is a sparse set keyed by entity id. Add and remove are O(1);
// iteration follows the dense slice, which is stable for a given history.
type entitySet struct {
	index map[uint64]int
	dense []*Entity
}

func newEntitySet() *entitySet {
	return &entitySet{index: map[uint64]int{}}
}

func (s *entitySet) add(e *Entity) bool {
	if _, ok := s.index[e.ID()]; ok {
		return false
	}
	s.index[e.ID()] = len(s.dense)
	s.dense = append(s.dense, e)
	return true
}

func (s *entitySet) remove(id uint64) bool {
	idx, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.dense) - 1
	if idx != last {
		moved := s.dense[last]
		s.dense[idx] = moved
		s.index[moved.ID()] = idx
	}
	s.dense[last] = nil
	s.dense = s.dense[:last]
	delete(s.index, id)
	return true
}

func (s *entitySet) get(id uint64) (*Entity, bool) {
	idx, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.dense[idx], true
}

func (s *entitySet) has(id uint64) bool {
	_, ok := s.index[id]
	return ok
}

func (s *entitySet) len() int { return len(s.dense) }

func (s *entitySet) clear() {
	s.index = map[uint64]int{}
	s.dense = nil
}
