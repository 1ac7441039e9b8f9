package oauth2

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: client_key, client_secret, code, redirect_uri
	// Returns: access_token, refresh_token, open_id, scope, expires_in
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new token pair.
	// Token request includes: client_key, client_secret, refresh_token
	// Returns: a new access_token and (possibly rotated) refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// Provider form field names. The provider names the client identifier "client_key".
const (
	ParamClientKey    = "client_key"
	ParamClientSecret = "client_secret"
	ParamCode         = "code"
	ParamGrantType    = "grant_type"
	ParamRedirectURI  = "redirect_uri"
	ParamRefreshToken = "refresh_token"
	ParamScope        = "scope"
	ParamState        = "state"
	ParamToken        = "token"

	// Redirect callback error parameters.
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)
