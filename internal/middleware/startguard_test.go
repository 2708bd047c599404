package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard(ttl time.Duration) (*StartGuard, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	g := NewStartGuard(ttl)
	g.now = clock.Now
	return g, clock
}

func TestStartGuard_SuppressesWithinTTL(t *testing.T) {
	g, clock := newTestGuard(2 * time.Second)

	assert.True(t, g.Allow(1))
	assert.False(t, g.Allow(1))

	clock.Advance(1999 * time.Millisecond)
	assert.False(t, g.Allow(1))

	clock.Advance(time.Millisecond)
	assert.True(t, g.Allow(1))
}

func TestStartGuard_IndependentUsers(t *testing.T) {
	g, _ := newTestGuard(2 * time.Second)

	assert.True(t, g.Allow(1))
	assert.True(t, g.Allow(2))
	assert.False(t, g.Allow(1))
}

func TestStartGuard_SuppressedCallDoesNotExtendWindow(t *testing.T) {
	g, clock := newTestGuard(2 * time.Second)

	assert.True(t, g.Allow(1))
	clock.Advance(1500 * time.Millisecond)
	assert.False(t, g.Allow(1))
	clock.Advance(600 * time.Millisecond)
	assert.True(t, g.Allow(1))
}

func TestStartGuard_PruneAndReset(t *testing.T) {
	g, clock := newTestGuard(2 * time.Second)

	g.Allow(1)
	clock.Advance(time.Second)
	g.Allow(2)
	clock.Advance(1500 * time.Millisecond)

	assert.Equal(t, 1, g.Prune())
	assert.Equal(t, 1, g.Len())

	g.Reset()
	assert.Equal(t, 0, g.Len())
	assert.True(t, g.Allow(2))
}
