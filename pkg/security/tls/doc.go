/*
Package tls serves the dashboard over HTTPS.

A Reloader holds the certificate named by server.tls and reloads it when the
files change on disk, so a renewed certificate (from certbot or a mounted
Kubernetes secret) is picked up without restarting the dashboard:

	reloader, err := tls.NewReloader(cfg.Server.TLS, logger)
	if err != nil {
		return err
	}
	go reloader.Run(ctx)

	ln = tls.NewListener(ln, reloader.Config())

The Reloader's Check method reports an error once the certificate is within
ExpiryWarning of expiring, for use as a health check.
*/
package tls
