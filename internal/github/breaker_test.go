package github

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b := NewBreaker(BreakerConfig{FailureThreshold: 3, Cooldown: 10 * time.Second})
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		assert.True(t, b.Allow())
		b.Record(true)
	}
	assert.Equal(t, stateClosed, b.State())

	assert.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, stateOpen, b.State())
	assert.False(t, b.Allow())

	now = now.Add(11 * time.Second)
	assert.True(t, b.Allow(), "cooldown elapsed, one trial call")
	assert.Equal(t, stateHalfOpen, b.State())
	assert.False(t, b.Allow(), "only one trial in flight")

	b.Record(false)
	assert.Equal(t, stateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, stateOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.True(t, b.Allow())
	b.Record(true)

	assert.Equal(t, stateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2})

	b.Allow()
	b.Record(true)
	b.Allow()
	b.Record(false)
	b.Allow()
	b.Record(true)

	assert.Equal(t, stateClosed, b.State())
}

func TestBreakerReleaseFreesTrialSlot(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.Record(true)
	assert.Equal(t, stateOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())

	b.Release()
	assert.Equal(t, stateHalfOpen, b.State())
	assert.True(t, b.Allow(), "released trial can be retried")
}
