package privateer

import "math/rand"

// Behavior decides how a ship acts each tick.
type Behavior interface {
	Steer(dt float64, self *Entity, c *Controls)
}

// Controls is what a Behavior may read and act through during a tick.
type Controls struct {
	Config    *Config
	Registry  *Registry
	Player    *Entity
	Rand      *rand.Rand
	Combat    *CombatSystem
	Targeting *TargetingSystem
}

// PlayerControlled ships follow their Input component.
type PlayerControlled struct{}

// AIControlled ships run the enemy state machine.
type AIControlled struct{}

func isPlayerControlled(e *Entity) bool {
	_, ok := e.Behavior.(PlayerControlled)
	return ok
}

func isAIControlled(e *Entity) bool {
	_, ok := e.Behavior.(AIControlled)
	return ok
}
