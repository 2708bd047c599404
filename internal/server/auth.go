package server

import (
	"crypto/subtle"
	"net/http"
)

// SecretTokenHeader заголовок, в котором Telegram передает secret_token из setWebhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// webhookAuthMiddleware сверяет секрет webhook. Пустой WEBHOOK_SECRET отключает проверку
func (s *Server) webhookAuthMiddleware(next http.Handler) http.Handler {
	secret := []byte(s.config.Telegram.WebhookSecret)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(secret) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		got := []byte(r.Header.Get(SecretTokenHeader))
		if subtle.ConstantTimeCompare(got, secret) != 1 {
			s.securityLogger.LogFailedAuth(r, "invalid_webhook_secret")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
