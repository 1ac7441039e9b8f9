package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/oauth2"
	"github.com/jrsteele09/creator-relay/oauthmodel"
)

const (
	relayTokenPath   = relayAPINamespace + "/token"
	relayRefreshPath = relayAPINamespace + "/refresh"
)

// ExchangeCodeForToken trades an authorization code for a token pair via the relay.
// It returns the stored pair and the relay's raw response.
//
// The redirect URI sent is the one recorded by GetAuthURL when present, else the
// configured default. The pending AuthorizationState is consumed either way.
func (c *Client) ExchangeCodeForToken(ctx context.Context, code string) (*oauthmodel.TokenPair, json.RawMessage, error) {
	if code == "" {
		return nil, nil, &APIError{Kind: oauthmodel.ErrAuthExchange, Err: oauthmodel.ErrEmptyCode}
	}
	st, _ := c.takeAuthorizationState()
	redirectURI := st.RedirectURI
	if redirectURI == "" {
		redirectURI = c.cfg.RedirectURI
	}
	return c.exchange(ctx, code, redirectURI)
}

// HandleRedirect completes a redirect login from the callback query parameters.
func (c *Client) HandleRedirect(ctx context.Context, query url.Values) (*oauthmodel.TokenPair, error) {
	if e := query.Get(oauth2.ParamError); e != "" {
		c.takeAuthorizationState()
		return nil, &APIError{Kind: oauthmodel.ErrAuthExchange, Code: e, Message: query.Get(oauth2.ParamErrorDescription)}
	}
	code := query.Get(oauth2.ParamCode)
	if code == "" {
		return nil, &APIError{Kind: oauthmodel.ErrAuthExchange, Err: oauthmodel.ErrEmptyCode}
	}

	st, ok := c.takeAuthorizationState()
	if !ok || st.StateNonce == "" || st.StateNonce != query.Get(oauth2.ParamState) {
		return nil, oauthmodel.ErrStateMismatch
	}
	redirectURI := st.RedirectURI
	if redirectURI == "" {
		redirectURI = c.cfg.RedirectURI
	}
	pair, _, err := c.exchange(ctx, code, redirectURI)
	return pair, err
}

func (c *Client) exchange(ctx context.Context, code, redirectURI string) (*oauthmodel.TokenPair, json.RawMessage, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, c.exchangeTimeout, oauthmodel.ErrTimeout)
	defer cancel()

	status, body, err := c.postRelayJSON(ctx, relayTokenPath, oauthmodel.TokenRequest{
		Code:        code,
		RedirectURI: redirectURI,
	})
	if err != nil {
		if errors.Is(context.Cause(ctx), oauthmodel.ErrTimeout) {
			return nil, nil, &APIError{Kind: oauthmodel.ErrTimeout, Err: err}
		}
		return nil, nil, &APIError{Kind: oauthmodel.ErrAuthExchange, Err: err}
	}

	pair, err := c.acceptTokenResponse(status, body, oauthmodel.ErrAuthExchange)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Info().Msg("authorization code exchanged")
	return pair, json.RawMessage(body), nil
}

// RefreshAccessToken exchanges the stored refresh token for a new pair.
// A failed exchange logs the session out before the error is returned. A
// missing refresh token leaves the stored access token in place.
func (c *Client) RefreshAccessToken(ctx context.Context) (*oauthmodel.TokenPair, error) {
	refreshToken := c.refreshToken()
	if refreshToken == "" {
		return nil, oauthmodel.ErrNoRefreshToken
	}

	pair, err := c.refresh(ctx, refreshToken)
	if err != nil {
		if logoutErr := c.Logout(); logoutErr != nil {
			c.logger.Err(logoutErr).Msg("failed to clear credentials after refresh failure")
		}
		return nil, err
	}
	return pair, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenPair, error) {
	status, body, err := c.postRelayJSON(ctx, relayRefreshPath, oauthmodel.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, &APIError{Kind: oauthmodel.ErrRelay, Err: err}
	}
	return c.acceptTokenResponse(status, body, oauthmodel.ErrAuthExpired)
}

// acceptTokenResponse validates a relay token body and stores the new pair.
func (c *Client) acceptTokenResponse(status int, body []byte, kind error) (*oauthmodel.TokenPair, error) {
	if !isSuccess(status) {
		apiErr := classifyFailure(status, body)
		apiErr.Kind = kind
		return nil, apiErr
	}
	tr, err := oauth2.NormalizeTokenResponse(body)
	if err != nil {
		return nil, &APIError{Kind: kind, Status: status, Body: body, Err: fmt.Errorf("%w: %w", oauthmodel.ErrInvalidResponseFormat, err)}
	}
	if tr.Error != nil {
		return nil, &APIError{Kind: kind, Status: status, Code: tr.Error.Code, Message: tr.Error.Message, Body: body}
	}
	if tr.AccessToken == "" {
		return nil, &APIError{Kind: kind, Status: status, Message: "no access token in response", Body: body}
	}

	pair := oauthmodel.TokenPair{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ObtainedAt:   NowTimeFunc(),
	}
	if err := c.setTokens(pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// setTokens replaces the whole pair in memory and in the store.
func (c *Client) setTokens(pair oauthmodel.TokenPair) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = pair

	if err := putOrDelete(c.store, credentials.AccessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("[session setTokens] persist access token: %w", err)
	}
	if err := putOrDelete(c.store, credentials.RefreshTokenKey, pair.RefreshToken); err != nil {
		return fmt.Errorf("[session setTokens] persist refresh token: %w", err)
	}
	return nil
}

func putOrDelete(s credentials.Store, key, value string) error {
	if value == "" {
		return s.Delete(key)
	}
	return s.Set(key, value)
}

// IsAuthenticated reports whether an access token is held, reloading it from
// the store when memory has none.
func (c *Client) IsAuthenticated() bool {
	return c.accessToken() != ""
}

// GetAccessToken returns the current access token or an empty string.
func (c *Client) GetAccessToken() string {
	return c.accessToken()
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens.AccessToken == "" {
		if tok, ok := c.store.Get(credentials.AccessTokenKey); ok && tok != "" {
			c.tokens.AccessToken = tok
			c.tokens.RefreshToken, _ = c.store.Get(credentials.RefreshTokenKey)
		}
	}
	return c.tokens.AccessToken
}

func (c *Client) refreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens.RefreshToken == "" {
		c.tokens.RefreshToken, _ = c.store.Get(credentials.RefreshTokenKey)
	}
	return c.tokens.RefreshToken
}

// Logout forgets the token pair and the cached profile. It makes no network call.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.tokens = oauthmodel.TokenPair{}
	c.mu.Unlock()

	var errs []error
	for _, key := range []string{credentials.AccessTokenKey, credentials.RefreshTokenKey, credentials.UserInfoKey} {
		if err := c.store.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("[session Logout] %w", err)
	}
	return nil
}
