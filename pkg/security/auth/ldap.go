package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"janitorr-hq/overseer/pkg/config"

	"github.com/go-ldap/ldap/v3"
)

// Admin group membership strategies.
const (
	GroupStrategyAuto               = "auto"
	GroupStrategyPosix              = "posix"
	GroupStrategyGroupOfNames       = "groupOfNames"
	GroupStrategyGroupOfUniqueNames = "groupOfUniqueNames"
)

// dnSpecial are the characters that would change the meaning of a DN built
// from a username.
const dnSpecial = ",=+<>#;\\\""

// Conn is the part of an LDAP connection the authenticator uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close()
}

// Dialer opens a connection to the directory.
type Dialer func(ctx context.Context, cfg config.LDAPConfig) (Conn, error)

// LDAPAuthenticator authenticates against a directory by binding as the
// user. Administrators are members of the configured admin group.
type LDAPAuthenticator struct {
	cfg    config.LDAPConfig
	dial   Dialer
	logger *slog.Logger
}

// LDAPOption configures an LDAPAuthenticator.
type LDAPOption func(*LDAPAuthenticator)

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) LDAPOption {
	return func(a *LDAPAuthenticator) { a.dial = d }
}

// NewLDAPAuthenticator creates an LDAP authenticator.
func NewLDAPAuthenticator(cfg config.LDAPConfig, logger *slog.Logger, opts ...LDAPOption) *LDAPAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &LDAPAuthenticator{cfg: cfg, dial: DialLDAP, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements Authenticator.
func (a *LDAPAuthenticator) Name() string { return MethodLDAP }

// URL returns the directory URL, ldaps:// when SSL is enabled.
func URL(cfg config.LDAPConfig) string {
	scheme := "ldap"
	if cfg.UseSSL {
		scheme = "ldaps"
	}
	return scheme + "://" + net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
}

// DialLDAP connects to the configured server.
func DialLDAP(ctx context.Context, cfg config.LDAPConfig) (Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLDAPTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: timeout})}
	if cfg.UseSSL {
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{
			ServerName:         cfg.Server,
			InsecureSkipVerify: !cfg.VerifySSL, // #nosec G402 -- operator opt-out for self-signed directories
			MinVersion:         tls.VersionTLS12,
		}))
	}

	conn, err := ldap.DialURL(URL(cfg), opts...)
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(timeout)
	return ldapConn{conn}, nil
}

type ldapConn struct {
	*ldap.Conn
}

func (c ldapConn) Close() {
	c.Conn.Close()
}

// UserDN builds the DN the user binds as when no service account is
// configured. The default filter uid={} maps to uid=<user>,ou=users,<base>.
func (a *LDAPAuthenticator) UserDN(username string) string {
	filter := a.cfg.UserFilter
	if filter == config.DefaultLDAPUserFilter || !strings.Contains(filter, "{}") {
		return fmt.Sprintf("uid=%s,ou=users,%s", username, a.cfg.BaseDN)
	}
	return strings.ReplaceAll(filter, "{}", username) + "," + a.cfg.BaseDN
}

// Authenticate implements Authenticator.
func (a *LDAPAuthenticator) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	if !a.cfg.Enabled {
		return Identity{}, ErrDisabled
	}
	// An empty password would be an unauthenticated bind, which servers accept.
	if username == "" || password == "" || strings.ContainsAny(username, dnSpecial) {
		return Identity{}, ErrInvalidCredentials
	}

	logger := a.logger.With("method", MethodLDAP, "server", URL(a.cfg))
	userDN := a.UserDN(username)

	var service Conn
	if a.cfg.BindDN != "" && a.cfg.BindPassword != "" {
		conn, err := a.dial(ctx, a.cfg)
		if err != nil {
			logger.Error("ldap connection failed", "error", err)
			return Identity{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer conn.Close()

		if err := conn.Bind(a.cfg.BindDN, a.cfg.BindPassword); err != nil {
			logger.Error("ldap service bind failed", "bind_dn", a.cfg.BindDN, "error", err)
			return Identity{}, fmt.Errorf("%w: service bind: %w", ErrUnavailable, err)
		}

		dn, err := a.findUser(conn, username)
		if err != nil {
			logger.Warn("ldap user lookup failed", "user", username, "error", err)
			return Identity{}, err
		}
		userDN = dn
		service = conn
	}

	userConn, err := a.dial(ctx, a.cfg)
	if err != nil {
		logger.Error("ldap connection failed", "error", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer userConn.Close()

	if err := userConn.Bind(userDN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			logger.Warn("ldap invalid credentials", "user", username)
			return Identity{}, ErrInvalidCredentials
		}
		logger.Error("ldap user bind failed", "user", username, "error", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	groupConn := service
	if groupConn == nil {
		groupConn = userConn
	}
	admin := a.isAdmin(groupConn, userDN, username)

	logger.Info("ldap login succeeded", "user", username, "admin", admin)
	return Identity{Username: username, Admin: admin, Method: MethodLDAP}, nil
}

func (a *LDAPAuthenticator) findUser(conn Conn, username string) (string, error) {
	req := ldap.NewSearchRequest(
		a.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		[]string{"dn"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && res != nil && len(res.Entries) > 0 {
			return res.Entries[0].DN, nil
		}
		return "", fmt.Errorf("%w: search: %w", ErrUnavailable, err)
	}
	if len(res.Entries) == 0 {
		return "", fmt.Errorf("%w: user not found", ErrInvalidCredentials)
	}
	return res.Entries[0].DN, nil
}

// isAdmin reports admin group membership. Lookup errors count as not a member.
func (a *LDAPAuthenticator) isAdmin(conn Conn, userDN, username string) bool {
	if a.cfg.AdminGroup == "" {
		return false
	}

	posix := fmt.Sprintf("(&(objectClass=posixGroup)(memberUid=%s))", ldap.EscapeFilter(username))
	names := fmt.Sprintf("(&(objectClass=groupOfNames)(member=%s))", ldap.EscapeFilter(userDN))
	unique := fmt.Sprintf("(&(objectClass=groupOfUniqueNames)(uniqueMember=%s))", ldap.EscapeFilter(userDN))

	var filters []string
	switch a.cfg.GroupStrategy {
	case GroupStrategyPosix:
		filters = []string{posix}
	case GroupStrategyGroupOfNames:
		filters = []string{names}
	case GroupStrategyGroupOfUniqueNames:
		filters = []string{unique}
	default:
		filters = []string{posix, names, unique}
	}

	for _, filter := range filters {
		ok, err := a.groupMatches(conn, filter)
		if err != nil {
			a.logger.Warn("ldap admin group check failed",
				"group", a.cfg.AdminGroup,
				"filter", filter,
				"error", err,
			)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func (a *LDAPAuthenticator) groupMatches(conn Conn, filter string) (bool, error) {
	req := ldap.NewSearchRequest(
		a.cfg.AdminGroup,
		ldap.ScopeBaseObject, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"dn"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return false, nil
		}
		return false, err
	}
	return len(res.Entries) > 0, nil
}

// IsUnavailable reports whether err means the directory could not be used,
// as opposed to the user being rejected.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
