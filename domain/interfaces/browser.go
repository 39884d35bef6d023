package interfaces

import (
	"context"
	"time"

	"form_filler/domain/entities"
)

// SelectBy chooses how an option is matched in a select element.
type SelectBy string

const (
	SelectByValue SelectBy = "value"
	SelectByLabel SelectBy = "label"
)

// FormFrame is the document the filler writes into, usually an iframe.
type FormFrame interface {
	// WaitVisible waits until selector matches a visible element
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Count returns how many elements match selector
	Count(ctx context.Context, selector string) (int, error)

	// TagName returns the lower-case tag name of the element
	TagName(ctx context.Context, selector string, timeout time.Duration) (string, error)

	// Fill replaces the element value with text
	Fill(ctx context.Context, selector, text string, timeout time.Duration) error

	// SelectOption picks an option of a select element
	SelectOption(ctx context.Context, selector string, by SelectBy, value string, timeout time.Duration) error

	// URL returns the frame URL
	URL() string
}

// Session is a visible browser session that gets authenticated before filling.
type Session interface {
	// Open navigates to url and waits for the network to settle
	Open(ctx context.Context, url string) error

	// AutoLogin submits credentials on the current page, best effort
	AutoLogin(ctx context.Context, creds entities.Credentials) error

	// Settle waits for late page elements after login
	Settle(ctx context.Context, d time.Duration) error

	// Snapshot saves a screenshot and HTML dump of the page
	Snapshot(ctx context.Context, dir, name string) (string, string, error)

	// FormFrame locates the iframe whose URL contains match and waits for anchor
	FormFrame(ctx context.Context, match, anchor string) (FormFrame, error)

	// SaveState persists cookies and local storage
	SaveState() error

	// Close closes the browser
	Close() error
}
