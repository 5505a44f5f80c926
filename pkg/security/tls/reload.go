package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"janitorr-hq/overseer/pkg/config"
)

// Reloader serves a certificate that is reloaded when its files change.
type Reloader struct {
	certFile   string
	keyFile    string
	minVersion uint16
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	cert     *tls.Certificate
	leaf     *x509.Certificate
	certTime time.Time
	keyTime  time.Time
}

// NewReloader loads the certificate named by cfg. It fails if the files are
// missing or the certificate is not currently valid.
func NewReloader(cfg config.TLSConfig, logger *slog.Logger) (*Reloader, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, errors.New("tls: cert_file and key_file are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.ReloadInterval
	if interval <= 0 {
		interval = config.DefaultTLSReload
	}

	r := &Reloader{
		certFile:   cfg.CertFile,
		keyFile:    cfg.KeyFile,
		minVersion: parseMinVersion(cfg.MinVersion),
		interval:   interval,
		logger:     logger.With("component", "tls"),
		now:        time.Now,
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	r.logCertificate("certificate loaded")
	return r, nil
}

// Config returns a server TLS configuration that always presents the most
// recently loaded certificate.
func (r *Reloader) Config() *tls.Config {
	return &tls.Config{
		MinVersion: r.minVersion,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return r.Certificate(), nil
		},
	}
}

// Listen wraps ln so that it accepts TLS connections.
func (r *Reloader) Listen(ln net.Listener) net.Listener {
	return tls.NewListener(ln, r.Config())
}

// Certificate returns the current certificate.
func (r *Reloader) Certificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// NotAfter returns the current certificate's expiry.
func (r *Reloader) NotAfter() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leaf.NotAfter
}

// Run checks the files every reload interval until ctx is done. A failed
// reload keeps the previous certificate.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReloadIfChanged()
		}
	}
}

// ReloadIfChanged reloads the certificate if either file is newer than the
// loaded one. It reports whether a new certificate is in use.
func (r *Reloader) ReloadIfChanged() bool {
	if !r.changed() {
		return false
	}
	if err := r.reload(); err != nil {
		r.logger.Error("failed to reload certificate",
			"error", err,
			"cert_file", r.certFile,
			"key_file", r.keyFile,
		)
		return false
	}
	r.logCertificate("certificate reloaded")
	return true
}

// Check fails when the certificate expires within ExpiryWarning.
func (r *Reloader) Check(context.Context) error {
	notAfter := r.NotAfter()
	now := r.now()
	if now.After(notAfter) {
		return fmt.Errorf("certificate expired on %s", notAfter.Format("2006-01-02"))
	}
	if notAfter.Sub(now) < ExpiryWarning {
		return fmt.Errorf("certificate expires on %s", notAfter.Format("2006-01-02"))
	}
	return nil
}

func (r *Reloader) changed() bool {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return false
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return certInfo.ModTime().After(r.certTime) || keyInfo.ModTime().After(r.keyTime)
}

func (r *Reloader) reload() error {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("certificate file: %w", err)
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return fmt.Errorf("key file: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	leaf, err := ValidateCertificate(&cert, r.now())
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.leaf = leaf
	r.certTime = certInfo.ModTime()
	r.keyTime = keyInfo.ModTime()
	r.mu.Unlock()
	return nil
}

func (r *Reloader) logCertificate(msg string) {
	r.mu.RLock()
	leaf := r.leaf
	r.mu.RUnlock()

	days := DaysUntilExpiry(leaf, r.now())
	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"issuer", leaf.Issuer.CommonName,
		"expires_in_days", days,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if leaf.NotAfter.Sub(r.now()) < ExpiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
		return
	}
	r.logger.Info(msg, attrs...)
}
