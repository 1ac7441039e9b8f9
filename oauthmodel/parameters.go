package oauthmodel

// AuthorizationState tracks one in-flight login attempt.
// It is written when an authorization URL is generated and read once when the
// returned code is exchanged. It lives in session-scoped storage only.
type AuthorizationState struct {
	// StateNonce is the random value sent as the "state" query parameter.
	// Security: Compared against the state echoed back on the redirect to prevent CSRF
	StateNonce string

	// RedirectURI is the exact redirect_uri used in the authorization request.
	// Required: The provider rejects an exchange whose redirect_uri differs
	RedirectURI string
}

// QRStatusType is the provider-side state of a QR login session.
// Transitions happen at the provider; the client only observes them by polling.
type QRStatusType string

const (
	// QRStatusNew means the code has been issued but not scanned yet.
	QRStatusNew QRStatusType = "new"

	// QRStatusScanned means the code was scanned and the user is reviewing consent.
	QRStatusScanned QRStatusType = "scanned"

	// QRStatusConfirmed means the user consented. The check response carries a
	// redirect_uri containing the authorization code.
	QRStatusConfirmed QRStatusType = "confirmed"

	// QRStatusExpired means the code timed out before confirmation.
	QRStatusExpired QRStatusType = "expired"

	// QRStatusUtilised means the code was already used to log in.
	QRStatusUtilised QRStatusType = "utilised"
)

// IsTerminal reports whether polling should stop without an exchange.
func (s QRStatusType) IsTerminal() bool {
	return s == QRStatusExpired || s == QRStatusUtilised
}
