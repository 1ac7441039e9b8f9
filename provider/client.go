// Package provider is the relay's only HTTP client for the upstream platform.
// It is the one place the client secret is attached to a request.
package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/creator-relay/internal/config"
	"github.com/jrsteele09/creator-relay/internal/errors"
	"github.com/jrsteele09/creator-relay/metrics"
	"github.com/jrsteele09/creator-relay/oauth2"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"

	maxResponseSize = 16 << 20
)

// Response is an upstream reply, kept verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

type Client struct {
	cfg        config.OAuthConfig
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(cfg config.OAuthConfig, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeCode performs the authorization_code grant.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Response, error) {
	form := c.credentials()
	form.Set(oauth2.ParamCode, code)
	form.Set(oauth2.ParamGrantType, string(oauth2.AuthorizationCodeGrant))
	form.Set(oauth2.ParamRedirectURI, redirectURI)
	return c.postForm(ctx, "token", c.cfg.GetTokenURL(), form)
}

// RefreshToken performs the refresh_token grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Response, error) {
	form := c.credentials()
	form.Set(oauth2.ParamRefreshToken, refreshToken)
	form.Set(oauth2.ParamGrantType, string(oauth2.RefreshTokenGrant))
	return c.postForm(ctx, "refresh", c.cfg.GetTokenURL(), form)
}

// GetQRCode requests a new QR login code. An empty scope uses the configured scopes.
func (c *Client) GetQRCode(ctx context.Context, scope, state string) (*Response, error) {
	if scope == "" {
		scope = oauthmodel.JoinScopes(c.cfg.GetScopes())
	}
	form := c.credentials()
	form.Set(oauth2.ParamScope, scope)
	if state != "" {
		form.Set(oauth2.ParamState, state)
	}
	return c.postForm(ctx, "qrcode_get", c.cfg.GetQRCodeGetURL(), form)
}

// CheckQRCode reads the status of a QR login code.
func (c *Client) CheckQRCode(ctx context.Context, token string) (*Response, error) {
	form := c.credentials()
	form.Set(oauth2.ParamToken, token)
	return c.postForm(ctx, "qrcode_check", c.cfg.GetQRCodeCheckURL(), form)
}

// Forward sends a caller's API request to <api base>/<path> with the caller's
// own bearer token. Method, query and body are passed through untouched.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery string, body io.Reader, contentType, bearer string) (*Response, error) {
	target := c.cfg.GetAPIBaseURL() + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[provider Forward] build request: %v", err)
	}
	if contentType == "" && body != nil && method != http.MethodGet {
		contentType = contentTypeJSON
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	return c.do(req, "proxy")
}

// Fetch GETs a public URL.
func (c *Client) Fetch(ctx context.Context, operation, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[provider Fetch] build request: %v", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	return c.do(req, operation)
}

func (c *Client) credentials() url.Values {
	return url.Values{
		oauth2.ParamClientKey:    {c.cfg.GetClientKey()},
		oauth2.ParamClientSecret: {c.cfg.GetClientSecret()},
	}
}

func (c *Client) postForm(ctx context.Context, operation, endpoint string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[provider %s] build request: %v", operation, err)
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("Cache-Control", "no-cache")
	return c.do(req, operation)
}

func (c *Client) do(req *http.Request, operation string) (*Response, error) {
	timer := prometheus.NewTimer(metrics.UpstreamDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUpstreamUnavailable, "[provider %s] %v", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUpstreamUnavailable, "[provider %s] read body: %v", operation, err)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
