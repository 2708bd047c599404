package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"telegram_booking_bot/pkg/logger"
)

// TokenBucket реализует алгоритм Token Bucket для rate limiting
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64 // токенов в секунду
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket создает новый TokenBucket
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow проверяет, доступен ли токен
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}

	return false
}

// RateLimiter ограничивает скорость запросов по ключу (IP или user ID)
type RateLimiter struct {
	limiters   map[string]*TokenBucket
	lastAccess map[string]time.Time
	mu         sync.Mutex
	capacity   int
	refillRate float64
	idleTTL    time.Duration
	logger     *logger.Logger
}

// NewRateLimiter создает limiter на requests запросов за duration
func NewRateLimiter(requests int, duration time.Duration, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		limiters:   make(map[string]*TokenBucket),
		lastAccess: make(map[string]time.Time),
		capacity:   requests,
		refillRate: float64(requests) / duration.Seconds(),
		idleTTL:    10 * time.Minute,
		logger:     log,
	}
}

// GetLimiter возвращает bucket для конкретного ключа
func (rl *RateLimiter) GetLimiter(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = NewTokenBucket(rl.capacity, rl.refillRate)
		rl.limiters[key] = limiter
	}

	rl.lastAccess[key] = time.Now()
	return limiter
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	return rl.GetLimiter(key).Allow()
}

// Cleanup удаляет limiters, которые не использовались дольше idleTTL.
// Вызывается периодически из планировщика.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idleTTL)
	var cleaned int

	for key, lastAccessed := range rl.lastAccess {
		if lastAccessed.Before(cutoff) {
			delete(rl.limiters, key)
			delete(rl.lastAccess, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		rl.logger.Debug("Cleaned up rate limiters",
			logger.Int("cleaned_count", cleaned),
			logger.Int("remaining_count", len(rl.limiters)),
		)
	}

	return cleaned
}

// HTTPRateLimitMiddleware создает HTTP middleware для rate limiting по IP
func HTTPRateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := RealIP(r)

			if !limiter.Allow(key) {
				limiter.logger.Warn("Rate limit exceeded",
					logger.String("ip", key),
					logger.String("user_agent", r.UserAgent()),
				)

				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SubmissionLimiter ограничивает отправку заявок из WebApp: лимит на пользователя
// и общий лимит на бота
type SubmissionLimiter struct {
	userLimiter   *RateLimiter
	globalLimiter *TokenBucket
	logger        *logger.Logger
}

// NewSubmissionLimiter создает limiter заявок
func NewSubmissionLimiter(userRequestsPerMinute, globalRequestsPerSecond int, log *logger.Logger) *SubmissionLimiter {
	return &SubmissionLimiter{
		userLimiter:   NewRateLimiter(userRequestsPerMinute, time.Minute, log),
		globalLimiter: NewTokenBucket(globalRequestsPerSecond, float64(globalRequestsPerSecond)),
		logger:        log,
	}
}

// AllowUser проверяет, может ли пользователь отправить заявку
func (sl *SubmissionLimiter) AllowUser(userID int64) bool {
	if !sl.globalLimiter.Allow() {
		sl.logger.Warn("Global submission limit exceeded", logger.Int64("user_id", userID))
		return false
	}

	if !sl.userLimiter.Allow(fmt.Sprintf("user_%d", userID)) {
		sl.logger.Warn("User submission limit exceeded", logger.Int64("user_id", userID))
		return false
	}

	return true
}

// Cleanup удаляет неактивных пользователей
func (sl *SubmissionLimiter) Cleanup() int {
	return sl.userLimiter.Cleanup()
}

// RealIP извлекает реальный IP адрес из запроса
func RealIP(r *http.Request) string {
	headers := []string{
		"CF-Connecting-IP", // Cloudflare
		"X-Forwarded-For",
		"X-Real-IP", // Nginx
	}

	for _, header := range headers {
		ip := r.Header.Get(header)
		if ip == "" {
			continue
		}
		// X-Forwarded-For может содержать несколько IP через запятую
		if header == "X-Forwarded-For" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		return ip
	}

	return r.RemoteAddr
}
