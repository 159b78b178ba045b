package main

import (
	"context"
	"testing"

	"github.com/covertsonic/privateer"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		in      string
		want    []int64
		wantErr bool
	}{
		{in: "1", want: []int64{1}},
		{in: "1, 2,5-7", want: []int64{1, 2, 5, 6, 7}},
		{in: "-3", want: []int64{-3}},
		{in: "-3-1", want: []int64{-3, -2, -1, 0, 1}},
		{in: "9-7", wantErr: true},
		{in: "x", wantErr: true},
		{in: " , ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSeeds(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithSeedCopiesConfig(t *testing.T) {
	base := privateer.DefaultConfig()
	seed, clock := base.Seed, base.Targeting.Clock

	cfg := withSeed(base, seed+8)

	assert.NotSame(t, base, cfg)
	assert.Equal(t, seed+8, cfg.Seed)
	assert.Equal(t, privateer.ClockSimulation, cfg.Targeting.Clock)
	assert.Equal(t, seed, base.Seed)
	assert.Equal(t, clock, base.Targeting.Clock)
}

func TestSkirmishRuns(t *testing.T) {
	logger, _ := test.NewNullLogger()
	privateer.SetLogger(logger)
	t.Cleanup(func() { privateer.SetLogger(nil) })

	sk := skirmish{
		Config:  withSeed(privateer.DefaultConfig(), 3),
		RunID:   "test",
		Enemies: 2,
		Pilot:   "gunner",
		Tick:    1.0 / 60,
		Frames:  600,
		Log:     logger,
	}

	res, err := sk.run(context.Background())

	require.NoError(t, err)
	assert.NoError(t, res.Violation)
	assert.Equal(t, int64(3), res.Seed)
	assert.NotZero(t, res.Frames)
	assert.LessOrEqual(t, res.Frames, uint64(600))
}

func TestSkirmishStopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sk := skirmish{
		Config:  withSeed(privateer.DefaultConfig(), 1),
		Enemies: 1,
		Tick:    1.0 / 60,
		Frames:  10,
		Log:     logger,
	}
	_, err := sk.run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
