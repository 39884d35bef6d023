package interfaces

import "context"

// Prompter asks the operator for input in the terminal.
type Prompter interface {
	// ConfirmLogin blocks until the operator reports the browser is logged in
	ConfirmLogin(ctx context.Context, message string) error

	// Password asks for a secret without echo
	Password(ctx context.Context, message string) (string, error)

	// Confirm asks a yes/no question
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}
