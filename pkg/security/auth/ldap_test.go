package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"janitorr-hq/overseer/pkg/config"

	"github.com/go-ldap/ldap/v3"
)

// fakeDirectory answers binds from a password table and searches from a
// filter table.
type fakeDirectory struct {
	passwords map[string]string
	// entries maps "<base>|<filter>" to the DNs found.
	entries  map[string][]string
	dialErr  error
	dials    int
	closed   int
	searches []string
}

func (d *fakeDirectory) dialer() Dialer {
	return func(context.Context, config.LDAPConfig) (Conn, error) {
		if d.dialErr != nil {
			return nil, d.dialErr
		}
		d.dials++
		return &fakeConn{dir: d}, nil
	}
}

type fakeConn struct {
	dir *fakeDirectory
}

func (c *fakeConn) Bind(dn, password string) error {
	if want, ok := c.dir.passwords[dn]; ok && want == password {
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	key := req.BaseDN + "|" + req.Filter
	c.dir.searches = append(c.dir.searches, key)
	res := &ldap.SearchResult{}
	for _, dn := range c.dir.entries[key] {
		res.Entries = append(res.Entries, &ldap.Entry{DN: dn})
	}
	return res, nil
}

func (c *fakeConn) Close() { c.dir.closed++ }

func ldapConfig() config.LDAPConfig {
	return config.LDAPConfig{
		Enabled:       true,
		Server:        "ldap.example.org",
		Port:          389,
		BaseDN:        "dc=example,dc=org",
		UserFilter:    "uid={}",
		AdminGroup:    "cn=admins,ou=groups,dc=example,dc=org",
		GroupStrategy: GroupStrategyAuto,
	}
}

func TestUserDN(t *testing.T) {
	tests := []struct {
		filter string
		want   string
	}{
		{filter: "uid={}", want: "uid=alice,ou=users,dc=example,dc=org"},
		{filter: "cn={},ou=people", want: "cn=alice,ou=people,dc=example,dc=org"},
		{filter: "no-placeholder", want: "uid=alice,ou=users,dc=example,dc=org"},
	}
	for _, tt := range tests {
		cfg := ldapConfig()
		cfg.UserFilter = tt.filter
		got := NewLDAPAuthenticator(cfg, nil).UserDN("alice")
		if got != tt.want {
			t.Errorf("UserDN(%q) = %q, want %q", tt.filter, got, tt.want)
		}
	}
}

func TestURL(t *testing.T) {
	cfg := ldapConfig()
	if got := URL(cfg); got != "ldap://ldap.example.org:389" {
		t.Errorf("URL() = %q", got)
	}
	cfg.UseSSL = true
	cfg.Port = 636
	if got := URL(cfg); got != "ldaps://ldap.example.org:636" {
		t.Errorf("URL() = %q", got)
	}
}

func TestLDAPDirectBind(t *testing.T) {
	userDN := "uid=alice,ou=users,dc=example,dc=org"
	dir := &fakeDirectory{
		passwords: map[string]string{userDN: "pw"},
		entries: map[string][]string{
			"cn=admins,ou=groups,dc=example,dc=org|(&(objectClass=posixGroup)(memberUid=alice))": {"cn=admins,ou=groups,dc=example,dc=org"},
		},
	}
	a := NewLDAPAuthenticator(ldapConfig(), nil, WithDialer(dir.dialer()))

	id, err := a.Authenticate(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Username != "alice" || !id.Admin || id.Method != MethodLDAP {
		t.Errorf("identity = %+v", id)
	}
	if dir.dials != 1 || dir.closed != 1 {
		t.Errorf("dials = %d, closed = %d, want 1/1", dir.dials, dir.closed)
	}

	_, err = a.Authenticate(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLDAPServiceBind(t *testing.T) {
	cfg := ldapConfig()
	cfg.BindDN = "cn=svc,dc=example,dc=org"
	cfg.BindPassword = "svcpw"
	cfg.GroupStrategy = GroupStrategyGroupOfNames

	userDN := "uid=bob,ou=people,dc=example,dc=org"
	dir := &fakeDirectory{
		passwords: map[string]string{cfg.BindDN: "svcpw", userDN: "pw"},
		entries: map[string][]string{
			"dc=example,dc=org|(uid=bob)": {userDN},
		},
	}
	a := NewLDAPAuthenticator(cfg, nil, WithDialer(dir.dialer()))

	id, err := a.Authenticate(context.Background(), "bob", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Admin {
		t.Error("bob should not be admin")
	}
	if dir.dials != 2 || dir.closed != 2 {
		t.Errorf("dials = %d, closed = %d, want 2/2", dir.dials, dir.closed)
	}

	wantGroupSearch := "cn=admins,ou=groups,dc=example,dc=org|(&(objectClass=groupOfNames)(member=" + userDN + "))"
	found := false
	for _, s := range dir.searches {
		if strings.Contains(s, "objectClass=posixGroup") {
			t.Errorf("groupOfNames strategy ran a posix search: %s", s)
		}
		if s == wantGroupSearch {
			found = true
		}
	}
	if !found {
		t.Errorf("searches = %v, missing %s", dir.searches, wantGroupSearch)
	}

	_, err = a.Authenticate(context.Background(), "carol", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLDAPServiceBindFailure(t *testing.T) {
	cfg := ldapConfig()
	cfg.BindDN = "cn=svc,dc=example,dc=org"
	cfg.BindPassword = "wrong"
	dir := &fakeDirectory{passwords: map[string]string{"cn=svc,dc=example,dc=org": "svcpw"}}

	_, err := NewLDAPAuthenticator(cfg, nil, WithDialer(dir.dialer())).Authenticate(context.Background(), "alice", "pw")
	if !IsUnavailable(err) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestLDAPRejects(t *testing.T) {
	dir := &fakeDirectory{dialErr: errors.New("connection refused")}

	tests := []struct {
		name    string
		enabled bool
		user    string
		pass    string
		wantErr error
	}{
		{name: "disabled", enabled: false, user: "alice", pass: "pw", wantErr: ErrDisabled},
		{name: "empty password", enabled: true, user: "alice", pass: "", wantErr: ErrInvalidCredentials},
		{name: "dn injection", enabled: true, user: "alice,ou=admins", pass: "pw", wantErr: ErrInvalidCredentials},
		{name: "unreachable", enabled: true, user: "alice", pass: "pw", wantErr: ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ldapConfig()
			cfg.Enabled = tt.enabled
			_, err := NewLDAPAuthenticator(cfg, nil, WithDialer(dir.dialer())).Authenticate(context.Background(), tt.user, tt.pass)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLDAPNoAdminGroup(t *testing.T) {
	cfg := ldapConfig()
	cfg.AdminGroup = ""
	dir := &fakeDirectory{passwords: map[string]string{"uid=alice,ou=users,dc=example,dc=org": "pw"}}

	id, err := NewLDAPAuthenticator(cfg, nil, WithDialer(dir.dialer())).Authenticate(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Admin {
		t.Error("without an admin group nobody is admin")
	}
	if len(dir.searches) != 0 {
		t.Errorf("searches = %v, want none", dir.searches)
	}
}
