package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmissionState_Whitelist(t *testing.T) {
	state := newTestState(t, "127.0.0.1", "10.0.0.0/8", "::1", " ")

	assert.True(t, state.Whitelisted("127.0.0.1"))
	assert.True(t, state.Whitelisted("10.20.30.40"))
	assert.True(t, state.Whitelisted("::1"))
	assert.False(t, state.Whitelisted("192.168.0.1"))
	assert.False(t, state.Whitelisted("not-an-ip"))
}

func TestAdmissionState_InvalidWhitelist(t *testing.T) {
	_, err := NewAdmissionState([]string{"10.0.0.0/99"})
	require.Error(t, err)
}

func TestAdmissionState_ConnectionsAreCappedAndClamped(t *testing.T) {
	state := newTestState(t)

	var epoch uint64
	for i := 0; i < 3; i++ {
		e, ok := state.AcquireConnection("203.0.113.1", 3)
		require.True(t, ok, "acquire %d", i+1)
		epoch = e
	}
	_, ok := state.AcquireConnection("203.0.113.1", 3)
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		state.ReleaseConnection("203.0.113.1", epoch)
	}
	snap, _ := state.Client("203.0.113.1")
	assert.Equal(t, 0, snap.ActiveConnections)
}

func TestAdmissionState_StaleReleaseIsIgnoredAfterReset(t *testing.T) {
	state := newTestState(t)

	epoch, ok := state.AcquireConnection("203.0.113.2", 6)
	require.True(t, ok)
	state.Reset()

	next, ok := state.AcquireConnection("203.0.113.2", 6)
	require.True(t, ok)
	require.NotEqual(t, epoch, next)

	state.ReleaseConnection("203.0.113.2", epoch)
	snap, _ := state.Client("203.0.113.2")
	assert.Equal(t, 1, snap.ActiveConnections)
}

func TestAdmissionState_TrackBurst(t *testing.T) {
	state := newTestState(t)
	clock := newFakeClock()

	for i := 0; i < 4; i++ {
		assert.True(t, state.TrackBurst("198.51.100.1", clock.Now(), time.Second, 4, 20), "request %d", i+1)
		clock.Advance(100 * time.Millisecond)
	}
	assert.False(t, state.TrackBurst("198.51.100.1", clock.Now(), time.Second, 4, 20))

	clock.Advance(time.Second)
	assert.True(t, state.TrackBurst("198.51.100.1", clock.Now(), time.Second, 4, 20))
	snap, _ := state.Client("198.51.100.1")
	assert.Equal(t, 1, snap.RecentRequests)
}

func TestAdmissionState_TrackBurstCapsHistory(t *testing.T) {
	state := newTestState(t)
	clock := newFakeClock()

	for i := 0; i < 10; i++ {
		require.True(t, state.TrackBurst("198.51.100.2", clock.Now(), time.Hour, 100, 3))
		clock.Advance(time.Millisecond)
	}
	snap, _ := state.Client("198.51.100.2")
	assert.Equal(t, 3, snap.RecentRequests)
}

func TestAdmissionState_ScoreGapDecays(t *testing.T) {
	state := newTestState(t)
	clock := newFakeClock()
	gap := 40 * time.Millisecond

	assert.Equal(t, 0, state.ScoreGap("192.0.2.9", clock.Now(), gap))
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, state.ScoreGap("192.0.2.9", clock.Now(), gap))
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 2, state.ScoreGap("192.0.2.9", clock.Now(), gap))

	for _, want := range []int{1, 0, 0} {
		clock.Advance(time.Second)
		assert.Equal(t, want, state.ScoreGap("192.0.2.9", clock.Now(), gap))
	}
}

func TestAdmissionState_ResetWipesEverything(t *testing.T) {
	state := newTestState(t)
	clock := newFakeClock()

	state.Blacklist("192.0.2.1")
	state.AcquireConnection("192.0.2.2", 6)
	state.TrackBurst("192.0.2.3", clock.Now(), time.Second, 4, 20)
	state.ScoreGap("192.0.2.4", clock.Now(), time.Millisecond)
	state.RecordViolation()
	state.RecordViolation()

	assert.Equal(t, int64(2), state.Reset())

	snap := state.Snapshot()
	assert.Zero(t, snap.TrackedClients)
	assert.Zero(t, snap.Blacklisted)
	assert.Zero(t, snap.Violations)
	assert.Equal(t, uint64(1), snap.Epoch)
	assert.False(t, state.Blacklisted("192.0.2.1"))
}
