package oauth2

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned when a body that should hold structured data does not.
var ErrNotJSON = errors.New("response is not valid JSON")

// TokenResponse is the canonical token endpoint response.
// The provider returns these fields either at the top level or nested under
// "data"; NormalizeTokenResponse hides that difference.
type TokenResponse struct {
	// AccessToken authorizes API calls: "Authorization: Bearer <access_token>".
	// Lifespan: Short-lived (24 hours for this provider)
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken obtains new access tokens without re-consent.
	// Lifespan: Long-lived (365 days for this provider)
	RefreshToken string `json:"refresh_token,omitempty"`

	// OpenID identifies the user within this client application.
	OpenID string `json:"open_id,omitempty"`

	// Scope is the comma separated list of scopes the user granted.
	Scope string `json:"scope,omitempty"`

	TokenType        string `json:"token_type,omitempty"`
	ExpiresIn        int64  `json:"expires_in,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`

	// Error is set when the body carried an embedded error, which the provider
	// may do with an HTTP 200 status.
	Error *ErrorResponse `json:"-"`
}

// OK reports whether the response carries a usable access token and no error.
func (t TokenResponse) OK() bool {
	return t.Error == nil && t.AccessToken != ""
}

// NormalizeTokenResponse parses a token endpoint body into its canonical shape.
func NormalizeTokenResponse(body []byte) (TokenResponse, error) {
	if !gjson.ValidBytes(body) {
		return TokenResponse{}, ErrNotJSON
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return TokenResponse{}, ErrNotJSON
	}

	get := func(field string) gjson.Result {
		if v := root.Get(field); v.Exists() && v.String() != "" {
			return v
		}
		return root.Get("data." + field)
	}

	resp := TokenResponse{
		AccessToken:      get("access_token").String(),
		RefreshToken:     get("refresh_token").String(),
		OpenID:           get("open_id").String(),
		Scope:            get("scope").String(),
		TokenType:        get("token_type").String(),
		ExpiresIn:        get("expires_in").Int(),
		RefreshExpiresIn: get("refresh_expires_in").Int(),
	}
	if e, ok := normalizeError(root, false); ok {
		resp.Error = &e
	}
	return resp, nil
}
