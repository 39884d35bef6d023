package interfaces

import "form_filler/domain/entities"

// SecurityLayer defines the checks applied around credentials
type SecurityLayer interface {
	// Redact masks secrets in a message before it is logged
	Redact(message string) string

	// CheckLoginTarget reports whether credentials may be submitted to url
	CheckLoginTarget(url string, creds entities.Credentials) error
}
