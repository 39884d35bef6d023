package entities

import "fmt"

// LoginMode selects how the session gets authenticated.
type LoginMode string

const (
	LoginManual LoginMode = "manual"
	LoginAuto   LoginMode = "auto"
	LoginNone   LoginMode = "none"
)

// ParseLoginMode validates a login mode string.
func ParseLoginMode(s string) (LoginMode, error) {
	switch m := LoginMode(s); m {
	case LoginManual, LoginAuto, LoginNone:
		return m, nil
	case "":
		return LoginManual, nil
	default:
		return "", fmt.Errorf("unknown login mode %q (want manual, auto or none)", s)
	}
}

// Credentials are used by the automatic login attempt.
type Credentials struct {
	Username         string `json:"username"`
	Password         string `json:"-"`
	UsernameSelector string `json:"username_selector"`
	PasswordSelector string `json:"password_selector"`
	SubmitSelector   string `json:"submit_selector"`
}

// Complete reports whether both username and password are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}
