// Package credentials persists the session client's tokens and cached profile.
package credentials

import "errors"

// Durable keys. These three entries are the whole persisted layout.
const (
	AccessTokenKey  = "tiktok_access_token"
	RefreshTokenKey = "tiktok_refresh_token"
	UserInfoKey     = "tiktok_user_info"
)

// Session-scoped keys. They belong in a store that does not outlive the process.
const (
	AuthStateKey       = "tiktok_auth_state"
	AuthRedirectURIKey = "tiktok_auth_redirect_uri"
	QRTokenKey         = "tiktok_qr_token"
	QRClientTicketKey  = "tiktok_qr_client_ticket"
)

var ErrEmptyKey = errors.New("key cannot be empty")

// Store is a string keyed value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}
