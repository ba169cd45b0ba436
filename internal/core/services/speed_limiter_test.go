package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

func TestSpeedLimiter_DelaysAfterAllowance(t *testing.T) {
	limiter, err := NewSpeedLimiter(newMockStorage(), domain.DefaultAdmissionRules().SlowDown)
	require.NoError(t, err)
	req := domain.ClientRequest{IP: "192.0.2.50"}

	var delays []time.Duration
	for i := 0; i < 18; i++ {
		v, err := limiter.Evaluate(context.Background(), req)
		require.NoError(t, err)
		delays = append(delays, v.Delay)
	}

	for i := 0; i < 6; i++ {
		assert.Zero(t, delays[i], "request %d", i+1)
	}
	assert.Equal(t, time.Second, delays[6])
	assert.Equal(t, 2*time.Second, delays[7])
	assert.Equal(t, 10*time.Second, delays[15])
	assert.Equal(t, 10*time.Second, delays[17])
}

func TestSpeedLimiter_WhitelistedNotCounted(t *testing.T) {
	storage := newMockStorage()
	limiter, err := NewSpeedLimiter(storage, domain.DefaultAdmissionRules().SlowDown)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		v, err := limiter.Evaluate(context.Background(), domain.ClientRequest{IP: "127.0.0.1", Whitelisted: true})
		require.NoError(t, err)
		assert.Zero(t, v.Delay)
	}
	assert.Empty(t, storage.counts)
}

func TestSpeedLimiter_StorageError(t *testing.T) {
	storage := newMockStorage()
	storage.err = errors.New("boom")
	limiter, err := NewSpeedLimiter(storage, domain.DefaultAdmissionRules().SlowDown)
	require.NoError(t, err)

	_, err = limiter.Evaluate(context.Background(), domain.ClientRequest{IP: "192.0.2.51"})
	require.Error(t, err)
}
