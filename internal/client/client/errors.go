package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
	// ErrUnconfirmed means the remote store reported fewer changes than
	// were sent without naming which ones.
	ErrUnconfirmed  = errors.New("batch confirmed by count only")
)
