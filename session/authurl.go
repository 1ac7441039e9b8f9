package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"golang.org/x/oauth2"
)

const stateNonceLength = 24

// GetAuthURL builds the provider authorization URL and records a fresh
// AuthorizationState in the session store. Every call yields a new state nonce.
func (c *Client) GetAuthURL() (string, error) {
	state := generateRandomString(stateNonceLength)

	conf := oauth2.Config{
		ClientID:    c.cfg.ClientKey,
		RedirectURL: c.cfg.RedirectURI,
		Endpoint:    oauth2.Endpoint{AuthURL: c.cfg.AuthURL},
	}
	authURL := conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("client_key", c.cfg.ClientKey),
		oauth2.SetAuthURLParam("scope", oauthmodel.JoinScopes(c.cfg.Scopes)),
	)

	if err := c.saveAuthorizationState(oauthmodel.AuthorizationState{
		StateNonce:  state,
		RedirectURI: c.cfg.RedirectURI,
	}); err != nil {
		return "", fmt.Errorf("[session GetAuthURL] save state: %w", err)
	}
	return authURL, nil
}

func (c *Client) saveAuthorizationState(st oauthmodel.AuthorizationState) error {
	if err := c.sessionStore.Set(credentials.AuthStateKey, st.StateNonce); err != nil {
		return err
	}
	return c.sessionStore.Set(credentials.AuthRedirectURIKey, st.RedirectURI)
}

// takeAuthorizationState reads and clears the pending AuthorizationState.
func (c *Client) takeAuthorizationState() (oauthmodel.AuthorizationState, bool) {
	var st oauthmodel.AuthorizationState
	nonce, ok := c.sessionStore.Get(credentials.AuthStateKey)
	st.StateNonce = nonce
	st.RedirectURI, _ = c.sessionStore.Get(credentials.AuthRedirectURIKey)
	_ = c.sessionStore.Delete(credentials.AuthStateKey)
	_ = c.sessionStore.Delete(credentials.AuthRedirectURIKey)
	return st, ok
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
