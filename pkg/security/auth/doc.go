/*
Package auth provides login, sessions and access control for the dashboard.

# Authenticators

An Authenticator checks a username and password and returns an Identity.
NewAuthenticator builds one from the auth configuration:

  - none: NoneAuthenticator, every login succeeds as an administrator
  - legacy: StaticAuthenticator, a single configured account
  - ldap: LDAPAuthenticator, a directory bind with admin group lookup
  - both: Chain of LDAP then the legacy account, so the local account still
    works when the directory is down

The legacy password may be stored as a bcrypt hash ("overseer hash-password"
prints one) or in plain text.

# Sessions

SessionStore keeps sessions in memory. The token handed to the browser is
an HS256-signed JWT carrying the session ID; the store decides expiry.
Sessions expire after the idle timeout, or after the remember-me duration
when the login asked to be remembered.

# Middleware

	mux.Handle("GET /api/schedule", auth.RequireSession(store)(scheduleHandler))
	mux.Handle("PUT /api/config", auth.RequireSession(store)(auth.RequireAdmin(configHandler)))

RequireSession answers 401 and RequireAdmin answers 403, both with a JSON
error body. Handlers read the caller with IdentityFromContext.
*/
package auth
