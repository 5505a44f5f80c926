package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"janitorr-hq/overseer/pkg/telemetry/logging"
)

// TokenFromRequest returns the session token from the session cookie or,
// for API clients, an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// RequireSession rejects requests without a live session with 401. The
// session's identity is stored in the request context, and the user and a
// session prefix are added to log records.
func RequireSession(store *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Lookup(TokenFromRequest(r, store.CookieName()))
			if err != nil {
				slog.DebugContext(r.Context(), "session rejected",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := WithIdentity(r.Context(), sess.Identity)
			ctx = logging.WithUser(ctx, sess.Identity.Username)
			ctx = logging.WithSession(ctx, shortID(sess.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers that are not administrators with 403. It must
// run inside RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !id.Admin {
			slog.WarnContext(r.Context(), "admin access denied",
				"user", id.Username,
				"path", r.URL.Path,
			)
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
