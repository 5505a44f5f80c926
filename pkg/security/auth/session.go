package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"janitorr-hq/overseer/pkg/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	// ErrNoSession is returned for a token naming no live session.
	ErrNoSession = errors.New("no session")

	// ErrInvalidToken is returned for a token that fails verification.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is a logged-in browser.
type Session struct {
	ID        string
	Identity  Identity
	Remember  bool
	CreatedAt time.Time
	LastSeen  time.Time
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// SessionStore holds sessions in memory and issues signed tokens for them.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	key        []byte
	timeout    time.Duration
	rememberMe bool
	rememberD  time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewSessionStore creates a store from the session settings. Without a
// configured secret a random one is generated, so tokens do not survive a
// restart.
func NewSessionStore(cfg config.SessionConfig) (*SessionStore, error) {
	key := []byte(cfg.SecretKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}

	s := &SessionStore{
		sessions:   make(map[string]*Session),
		key:        key,
		timeout:    cfg.Timeout,
		rememberMe: cfg.RememberMe,
		rememberD:  cfg.RememberMeDuration,
		cookieName: cfg.CookieName,
		secure:     cfg.SecureCookies,
		now:        time.Now,
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultSessionTimeout
	}
	if s.rememberD <= 0 {
		s.rememberD = config.DefaultRememberMeDuration
	}
	if s.cookieName == "" {
		s.cookieName = config.DefaultCookieName
	}
	return s, nil
}

// Create starts a session for id and returns it with its token. remember is
// ignored when remember-me is disabled.
func (s *SessionStore) Create(id Identity, remember bool) (Session, string, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Identity:  id,
		Remember:  remember && s.rememberMe,
		CreatedAt: now,
		LastSeen:  now,
	}
	sess.ExpiresAt = now.Add(s.lifetime(sess))

	claims := sessionClaims{jwt.RegisteredClaims{
		ID:       sess.ID,
		Subject:  id.Username,
		IssuedAt: jwt.NewNumericDate(now),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return Session{}, "", fmt.Errorf("sign session token: %w", err)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *sess, token, nil
}

// Lookup verifies token and returns its session, sliding the idle expiry
// forward.
func (s *SessionStore) Lookup(token string) (Session, error) {
	id, err := s.parse(token)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNoSession
	}
	now := s.now()
	if !now.Before(sess.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, ErrNoSession
	}
	sess.LastSeen = now
	sess.ExpiresAt = now.Add(s.lifetime(sess))
	return *sess, nil
}

// Revoke ends the session named by token. Unknown tokens are ignored.
func (s *SessionStore) Revoke(token string) {
	id, err := s.parse(token)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Sweep removes expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included until
// the next Sweep.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CookieName returns the session cookie name.
func (s *SessionStore) CookieName() string { return s.cookieName }

// Cookie returns the cookie carrying token. Remembered sessions get a
// persistent cookie; others end with the browser session.
func (s *SessionStore) Cookie(token string, sess Session) *http.Cookie {
	c := &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if sess.Remember {
		c.Expires = sess.ExpiresAt
		c.MaxAge = int(s.rememberD / time.Second)
	}
	return c
}

// ClearCookie returns a cookie that deletes the session cookie.
func (s *SessionStore) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

func (s *SessionStore) lifetime(sess *Session) time.Duration {
	if sess.Remember {
		return s.rememberD
	}
	return s.timeout
}

func (s *SessionStore) parse(token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
