package entities

import "errors"

var (
	ErrEmptyDataset     = errors.New("data file contains no rows")
	ErrFrameNotFound    = errors.New("form iframe not found")
	ErrAnchorNotVisible = errors.New("initial form element did not become visible")
	ErrElementNotFound  = errors.New("element not found")
	ErrElementTimeout   = errors.New("timeout interacting with element")
	ErrStopped          = errors.New("stopped by user")
	ErrLoginFailed      = errors.New("automatic login failed")
)
