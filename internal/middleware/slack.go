package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
)

const maxSlackBody = 1 << 20

// VerifySlack rejects requests that do not carry a valid Slack signature
// for secret. The body is restored for the next handler.
func VerifySlack(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sv, err := slack.NewSecretsVerifier(r.Header, secret)
			if err != nil {
				logger.Warn("slack signature headers", "remote", RealIP(r), "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSlackBody))
			if err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			sv.Write(body)
			if err := sv.Ensure(); err != nil {
				logger.Warn("slack signature mismatch", "remote", RealIP(r))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
