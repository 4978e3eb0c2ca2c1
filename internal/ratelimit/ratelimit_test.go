package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	krl := New(0.001, 2) // effectively no refill during the test
	defer krl.Stop()

	assert.True(t, krl.Allow("client-a"))
	assert.True(t, krl.Allow("client-a"))
	assert.False(t, krl.Allow("client-a"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("client-a"))
	assert.False(t, krl.Allow("client-a"))
	assert.True(t, krl.Allow("client-b"))
}

func TestStop_IsIdempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
