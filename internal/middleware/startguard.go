package middleware

import (
	"sync"
	"time"
)

// StartGuard подавляет повторные /start от одного пользователя в пределах TTL.
// Telegram-клиенты иногда присылают команду дважды подряд.
type StartGuard struct {
	mu       sync.Mutex
	lastSeen map[int64]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewStartGuard создает анти-дубль с заданным окном
func NewStartGuard(ttl time.Duration) *StartGuard {
	return &StartGuard{
		lastSeen: make(map[int64]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow возвращает false, если пользователь уже был пропущен менее ttl назад
func (g *StartGuard) Allow(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if prev, ok := g.lastSeen[userID]; ok && now.Sub(prev) < g.ttl {
		return false
	}

	g.lastSeen[userID] = now
	return true
}

// Prune удаляет записи старше ttl и возвращает число удаленных
func (g *StartGuard) Prune() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.ttl)
	var removed int
	for userID, seen := range g.lastSeen {
		if !seen.After(cutoff) {
			delete(g.lastSeen, userID)
			removed++
		}
	}
	return removed
}

// Len возвращает число отслеживаемых пользователей
func (g *StartGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lastSeen)
}

// Reset очищает состояние
func (g *StartGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSeen = make(map[int64]time.Time)
}
