package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

func TestAttackDetector_TogglesOnThreshold(t *testing.T) {
	state := newTestState(t)
	detector := NewAttackDetector(state, 5, time.Second, zap.NewNop())

	for i := 0; i < 4; i++ {
		state.RecordViolation()
	}
	assert.Equal(t, domain.ModeNormal, detector.Tick())
	assert.False(t, state.UnderAttack())

	for i := 0; i < 5; i++ {
		state.RecordViolation()
	}
	assert.Equal(t, domain.ModeUnderAttack, detector.Tick())
	assert.True(t, state.UnderAttack())

	// Nothing recorded during the attack cycle lifts the mode again.
	assert.Equal(t, domain.ModeNormal, detector.Tick())
	assert.False(t, state.UnderAttack())
}

func TestAttackDetector_TickWipesPerIPState(t *testing.T) {
	state := newTestState(t)
	detector := NewAttackDetector(state, 20000, time.Second, nil)
	clock := newFakeClock()

	state.Blacklist("192.0.2.1")
	state.AcquireConnection("192.0.2.2", 6)
	state.TrackBurst("192.0.2.3", clock.Now(), time.Second, 4, 20)
	state.ScoreGap("192.0.2.4", clock.Now(), time.Second)
	state.RecordViolation()

	detector.Tick()

	snap := state.Snapshot()
	assert.Zero(t, snap.TrackedClients)
	assert.Zero(t, snap.Blacklisted)
	assert.Zero(t, snap.Violations)
}

func TestAttackDetector_RunStopsOnCancel(t *testing.T) {
	state := newTestState(t)
	detector := NewAttackDetector(state, 1, 5*time.Millisecond, zap.NewNop())
	state.Blacklist("192.0.2.1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- detector.Run(ctx) }()

	require.Eventually(t, func() bool { return !state.Blacklisted("192.0.2.1") }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("detector did not stop")
	}
}
