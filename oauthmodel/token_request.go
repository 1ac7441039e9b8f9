package oauthmodel

import "time"

// TokenPair is the credential pair issued by the provider.
// Both values are opaque. Either may be absent; the pair is always replaced
// wholesale, never partially updated.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ObtainedAt   time.Time
}

// TokenRequest is the body of POST /api/tiktok/token.
type TokenRequest struct {
	// Code is the authorization code received on the redirect or from a confirmed QR login.
	// Required: Yes
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string `json:"code" validate:"required"`

	// RedirectURI must match the redirect_uri used in the authorization request.
	// Required: No (the relay falls back to its configured default)
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// RefreshRequest is the body of POST /api/tiktok/refresh.
type RefreshRequest struct {
	// RefreshToken is exchanged for a new token pair.
	// Required: Yes
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// QRCodeRequest is the body of POST /api/tiktok/qrcode/get.
type QRCodeRequest struct {
	// Scope is a comma separated scope list. The relay's configured scopes are used when empty.
	Scope string `json:"scope,omitempty"`

	// State is echoed back by the provider once the login is confirmed.
	State string `json:"state,omitempty"`
}

// QRCheckRequest is the body of POST /api/tiktok/qrcode/check.
type QRCheckRequest struct {
	// Token identifies the QR session returned by the get call.
	// Required: Yes
	Token string `json:"token" validate:"required"`
}
