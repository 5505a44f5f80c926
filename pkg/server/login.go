package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"janitorr-hq/overseer/pkg/security/auth"
	"janitorr-hq/overseer/pkg/telemetry/logging"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type sessionResponse struct {
	auth.Identity
	Remember  bool   `json:"remember"`
	ExpiresAt string `json:"expires_at"`
	AuthMode  string `json:"auth_mode"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeLogin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	authn, err := s.authenticator()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "authentication misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, "authentication is misconfigured")
		return
	}

	id, err := authn.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrDisabled):
		s.logger.WarnContext(r.Context(), "login failed",
			"username", req.Username,
			"method", authn.Name(),
		)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	default:
		s.logger.ErrorContext(r.Context(), "login backend unavailable",
			"username", req.Username,
			"method", authn.Name(),
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "authentication service unavailable")
		return
	}

	sess, token, err := s.opts.Sessions.Create(id, req.Remember)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, s.opts.Sessions.Cookie(token, sess))

	ctx := logging.WithUser(r.Context(), id.Username)
	s.logger.InfoContext(ctx, "login succeeded",
		"method", id.Method,
		"admin", id.Admin,
		"remember", sess.Remember,
	)
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r, s.opts.Sessions.CookieName()); token != "" {
		s.opts.Sessions.Revoke(token)
	}
	http.SetCookie(w, s.opts.Sessions.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r, s.opts.Sessions.CookieName())
	sess, err := s.opts.Sessions.Lookup(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) sessionView(sess auth.Session) sessionResponse {
	return sessionResponse{
		Identity:  sess.Identity,
		Remember:  sess.Remember,
		ExpiresAt: sess.ExpiresAt.UTC().Format(timeLayout),
		AuthMode:  s.config().Auth.Mode,
	}
}

// authenticator returns the configured authenticator, building one from
// the current auth settings when none was injected.
func (s *Server) authenticator() (auth.Authenticator, error) {
	if s.opts.Authenticator != nil {
		return s.opts.Authenticator, nil
	}
	return auth.NewAuthenticator(s.config().Auth, s.opts.Logger)
}

// decodeLogin accepts a JSON body or a form post.
func (s *Server) decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	r.Body = http.MaxBytesReader(nil, r.Body, s.config().Server.MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid login request")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, errors.New("invalid login request")
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		req.Remember = isChecked(r.PostForm.Get("remember"))
	}

	req.Username = strings.TrimSpace(req.Username)
	return req, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
