package privateer

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const tick = 1.0 / 60

// captureLogs routes package logging into a hook for the test's duration.
func captureLogs(t *testing.T) *test.Hook {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	SetLogger(logger)
	t.Cleanup(func() { SetLogger(nil) })
	return hook
}

func testShip(name string, team Team, x, y float64) *Entity {
	return NewEntity(name, team).With(
		&Position{X: x, Y: y},
		&Velocity{MaxSpeed: 300, Acceleration: 150, RotationSpeed: 3},
		&Rotation{},
		&Health{Current: 100, Max: 100, Shield: 10, ShieldMax: 10, Armor: 10, ArmorMax: 10},
		&Collider{Radius: 10, Type: ColliderShip},
		&ShipInfo{Class: "rifter"},
	)
}
