package privateer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moduleShip(energy float64) *Entity {
	return testShip("ship", TeamPlayer, 0, 0).With(
		&Energy{Current: energy, Max: 100},
		newModules(DefaultConfig().Modules),
	)
}

func TestShieldBooster(t *testing.T) {
	t.Run("activation", func(t *testing.T) {
		e := moduleShip(100)
		e.Health.Shield = 5

		require.True(t, ActivateShieldBooster(e))
		assert.False(t, ActivateShieldBooster(e))
		assert.Equal(t, 80.0, e.Energy.Current)

		tickModules(e, 1)
		assert.Equal(t, 65.0, e.Energy.Current)
		assert.Equal(t, 10.0, e.Health.Shield)

		DeactivateShieldBooster(e)
		assert.False(t, e.Modules.ShieldBooster.Active)
	})

	t.Run("insufficient energy", func(t *testing.T) {
		e := moduleShip(10)
		assert.False(t, ActivateShieldBooster(e))
		assert.Equal(t, 10.0, e.Energy.Current)
	})

	t.Run("broken shield", func(t *testing.T) {
		e := moduleShip(100)
		e.Health.Shield = 0
		assert.False(t, ActivateShieldBooster(e))
		assert.Equal(t, 100.0, e.Energy.Current)
	})

	t.Run("shuts down when drained", func(t *testing.T) {
		e := moduleShip(10)
		e.Modules.ShieldBooster.Active = true

		tickModules(e, 1)

		assert.False(t, e.Modules.ShieldBooster.Active)
		assert.Equal(t, 10.0, e.Energy.Current)
	})

	t.Run("passive regeneration waits for delay", func(t *testing.T) {
		e := moduleShip(100)
		e.Health.Shield = 5
		e.Health.SinceDamage = 1
		tickModules(e, 0.5)
		assert.Equal(t, 5.0, e.Health.Shield)

		e.Health.SinceDamage = 6
		tickModules(e, 0.5)
		assert.Equal(t, 10.0, e.Health.Shield)
	})
}

func TestArmorRepairer(t *testing.T) {
	t.Run("waits for cooldown", func(t *testing.T) {
		e := moduleShip(100)
		e.Health.Armor = 5
		assert.False(t, ActivateArmorRepair(e))

		e.Health.SinceDamage = 3
		require.True(t, ActivateArmorRepair(e))

		tickModules(e, 0.5)
		assert.Equal(t, 7.5, e.Health.Armor)
		assert.Equal(t, 75.0, e.Energy.Current)
	})

	t.Run("drains remaining energy", func(t *testing.T) {
		e := moduleShip(10)
		e.Health.Armor = 5
		e.Health.SinceDamage = 3
		require.True(t, ActivateArmorRepair(e))

		tickModules(e, 1)
		assert.Equal(t, 6.0, e.Health.Armor)
		assert.Zero(t, e.Energy.Current)

		tickModules(e, 1)
		assert.False(t, e.Modules.ArmorRepairer.Repairing)
	})

	t.Run("stops at full armor", func(t *testing.T) {
		e := moduleShip(100)
		e.Health.Armor = 9.5
		e.Health.SinceDamage = 3
		require.True(t, ActivateArmorRepair(e))

		tickModules(e, 1)
		assert.Equal(t, 10.0, e.Health.Armor)
		tickModules(e, 1)
		assert.False(t, e.Modules.ArmorRepairer.Repairing)
		assert.False(t, ActivateArmorRepair(e))
	})
}

func TestAfterburner(t *testing.T) {
	e := moduleShip(100)
	e.Velocity.Set(mgl64.Vec2{250, 0})

	require.True(t, ActivateAfterburner(e))
	assert.False(t, ActivateAfterburner(e))
	assert.Equal(t, 80.0, e.Energy.Current)
	assert.Equal(t, 450.0, e.Velocity.MaxSpeed)
	assert.Equal(t, 225.0, e.Velocity.Acceleration)

	e.Velocity.Set(mgl64.Vec2{400, 0})
	tickModules(e, 5)

	assert.Equal(t, 300.0, e.Velocity.MaxSpeed)
	assert.Equal(t, 150.0, e.Velocity.Acceleration)
	assert.LessOrEqual(t, e.Velocity.Speed(), 300.0)
	assert.False(t, ActivateAfterburner(e))

	tickModules(e, 10)
	assert.True(t, ActivateAfterburner(e))
}
