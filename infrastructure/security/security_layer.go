package security

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const mask = "******"

type SecurityLayer struct {
	logger        *logrus.Logger
	allowInsecure bool

	mu      sync.RWMutex
	secrets []string
}

func NewSecurityLayer(logger *logrus.Logger, allowInsecure bool) *SecurityLayer {
	return &SecurityLayer{
		logger:        logger,
		allowInsecure: allowInsecure,
	}
}

// AddSecret registers a value that must never appear in logs.
func (s *SecurityLayer) AddSecret(secret string) {
	if strings.TrimSpace(secret) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, known := range s.secrets {
		if known == secret {
			return
		}
	}
	s.secrets = append(s.secrets, secret)
}

func (s *SecurityLayer) Redact(message string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, secret := range s.secrets {
		message = strings.ReplaceAll(message, secret, mask)
	}
	return message
}

func (s *SecurityLayer) CheckLoginTarget(rawURL string, creds entities.Credentials) error {
	if !creds.Complete() {
		return fmt.Errorf("%w: username and password are both required", entities.ErrLoginFailed)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid page url: %v", entities.ErrLoginFailed, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		return nil
	case "http":
		if s.allowInsecure || isLoopback(u.Hostname()) {
			s.logger.Warnf("Submitting credentials over plain http to %s", u.Host)
			return nil
		}
		return fmt.Errorf("%w: refusing to submit credentials over plain http to %s", entities.ErrLoginFailed, u.Host)
	default:
		return fmt.Errorf("%w: unsupported scheme %q", entities.ErrLoginFailed, u.Scheme)
	}
}

func isLoopback(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// Ensure SecurityLayer implements SecurityLayer interface
var _ interfaces.SecurityLayer = (*SecurityLayer)(nil)
