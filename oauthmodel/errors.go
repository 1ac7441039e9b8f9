package oauthmodel

import "errors"

// Session client error kinds. Detailed errors wrap one of these and can be
// matched with errors.Is.
var (
	ErrNotAuthenticated      = errors.New("not authenticated, please login first")
	ErrAuthExpired           = errors.New("authentication expired, please login again")
	ErrAuthExchange          = errors.New("authorization code exchange failed")
	ErrTimeout               = errors.New("relay did not respond in time, it may be cold-starting")
	ErrScope                 = errors.New("missing consent scope, re-authenticate with the required scopes")
	ErrInvalidResponseFormat = errors.New("invalid response format")
	ErrRelay                 = errors.New("relay request failed")
	ErrNoRefreshToken        = errors.New("no refresh token available")
	ErrStateMismatch         = errors.New("authorization state does not match")
	ErrEmptyCode             = errors.New("authorization code is empty")
	ErrUpload                = errors.New("chunk upload failed")
)
