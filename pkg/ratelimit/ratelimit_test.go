package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinBudget(t *testing.T) {
	limiter := NewLimiter(time.Minute, 3)

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	// Separate keys have separate budgets.
	assert.True(t, limiter.Allow("b"))
}

func TestAllowAfterWindowExpires(t *testing.T) {
	limiter := NewLimiter(20*time.Millisecond, 1)

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, limiter.Allow("a"))
}
