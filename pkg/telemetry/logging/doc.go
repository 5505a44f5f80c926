// Package logging sets up structured logging for Overseer.
//
// It builds a log/slog handler from the telemetry.logging configuration and
// layers two behaviours on top of the JSON or text output:
//
//   - Request-scoped fields (request ID, user, session) stored in a
//     context.Context are added to every record logged with that context.
//   - Credentials are masked. Janitorr's configuration carries Jellyfin API
//     keys, and the dashboard handles login passwords and LDAP bind secrets,
//     so attributes named like a secret are replaced and string values are
//     scrubbed of tokens.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "schedule served", "records", 12)
//	// {"level":"INFO","msg":"schedule served","records":12,"request_id":"req-123"}
package logging
