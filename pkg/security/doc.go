/*
Package security groups the dashboard's access-control packages.

  - auth checks logins against a static account or an LDAP directory,
    issues signed session tokens and guards routes by session and role.
  - secrets resolves ${secret:name} references in credential settings from
    a secrets directory or the environment.
  - tls serves the dashboard over HTTPS with certificates that are reloaded
    when renewed on disk.

# Sessions

	store, err := auth.NewSessionStore(cfg.Auth.Session)
	if err != nil {
		return err
	}
	mux.Handle("GET /api/schedule", auth.RequireSession(store)(scheduleHandler))

# HTTPS

	certs, err := tls.NewReloader(cfg.Server.TLS, logger)
	if err != nil {
		return err
	}
	go certs.Run(ctx)
	ln = certs.Listen(ln)
*/
package security
