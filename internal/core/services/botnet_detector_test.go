package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/ddos-shield/internal/core/domain"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64)"

func newTestBotnetDetector(state *AdmissionState) (*BotnetDetector, *fakeClock) {
	clock := newFakeClock()
	detector := NewBotnetDetector(state, domain.DefaultAdmissionRules())
	detector.nowFn = clock.Now
	return detector, clock
}

func TestBotnetDetector_RapidFireIsBlacklisted(t *testing.T) {
	state := newTestState(t)
	detector, clock := newTestBotnetDetector(state)
	req := domain.ClientRequest{IP: "198.51.100.20", UserAgent: browserUA}

	for i := 0; i < 4; i++ {
		_, err := detector.Evaluate(context.Background(), req)
		require.NoError(t, err, "request %d", i+1)
		clock.Advance(10 * time.Millisecond)
	}

	_, err := detector.Evaluate(context.Background(), req)
	require.True(t, domain.IsForbiddenError(err))
	assert.True(t, state.Blacklisted(req.IP))
	assert.Equal(t, int64(1), state.Violations())
}

func TestBotnetDetector_SteadyTrafficPasses(t *testing.T) {
	state := newTestState(t)
	detector, clock := newTestBotnetDetector(state)
	req := domain.ClientRequest{IP: "198.51.100.21", UserAgent: browserUA}

	for i := 0; i < 50; i++ {
		_, err := detector.Evaluate(context.Background(), req)
		require.NoError(t, err, "request %d", i+1)
		clock.Advance(50 * time.Millisecond)
	}
}

func TestBotnetDetector_CrawlerUserAgents(t *testing.T) {
	for _, ua := range []string{"", "Googlebot/2.1", "SomeCrawler", "spider-man", "   "} {
		t.Run(ua, func(t *testing.T) {
			state := newTestState(t)
			detector, _ := newTestBotnetDetector(state)

			_, err := detector.Evaluate(context.Background(), domain.ClientRequest{IP: "198.51.100.22", UserAgent: ua})
			require.True(t, domain.IsForbiddenError(err))
			assert.False(t, state.Blacklisted("198.51.100.22"))
			assert.Equal(t, int64(1), state.Violations())
		})
	}
}

func TestBotnetDetector_ForwardedHops(t *testing.T) {
	state := newTestState(t)
	detector, clock := newTestBotnetDetector(state)

	_, err := detector.Evaluate(context.Background(), domain.ClientRequest{
		IP: "198.51.100.23", UserAgent: browserUA, ForwardedFor: "10.0.0.1, 10.0.0.2",
	})
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = detector.Evaluate(context.Background(), domain.ClientRequest{
		IP: "198.51.100.23", UserAgent: browserUA, ForwardedFor: "10.0.0.1, 10.0.0.2, 10.0.0.3",
	})
	require.True(t, domain.IsForbiddenError(err))
	assert.False(t, state.Blacklisted("198.51.100.23"))
}

func TestBotnetDetector_WhitelistedBypass(t *testing.T) {
	state := newTestState(t)
	detector, _ := newTestBotnetDetector(state)

	_, err := detector.Evaluate(context.Background(), domain.ClientRequest{IP: "127.0.0.1", Whitelisted: true})
	require.NoError(t, err)
	_, ok := state.Client("127.0.0.1")
	assert.False(t, ok)
}
