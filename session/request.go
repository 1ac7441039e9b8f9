package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/creator-relay/oauthmodel"
)

// maxAuthRetries bounds the refresh-and-retry path of APIRequest.
const maxAuthRetries = 1

// APIRequest calls a provider endpoint through the relay's generic proxy.
//
// A 401 triggers exactly one token refresh and one retry. A second 401, or a
// failed refresh, ends the call with oauthmodel.ErrAuthExpired.
func (c *Client) APIRequest(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	if c.accessToken() == "" {
		return nil, oauthmodel.ErrNotAuthenticated
	}
	if method == "" {
		method = http.MethodPost
	}
	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("[session APIRequest] encode body: %w", err)
	}
	path := normalizeEndpoint(endpoint)

	for attempt := 0; attempt <= maxAuthRetries; attempt++ {
		status, respBody, err := c.doRelay(ctx, method, path, payload, c.accessToken())
		if err != nil {
			return nil, &APIError{Kind: oauthmodel.ErrRelay, Err: err}
		}

		if status == http.StatusUnauthorized {
			if attempt == maxAuthRetries {
				apiErr := classifyFailure(status, respBody)
				apiErr.Kind = oauthmodel.ErrAuthExpired
				return nil, apiErr
			}
			c.logger.Debug().Str("endpoint", path).Msg("access token rejected, refreshing")
			if _, err := c.RefreshAccessToken(ctx); err != nil {
				return nil, &APIError{Kind: oauthmodel.ErrAuthExpired, Status: status, Err: err}
			}
			continue
		}

		if !isSuccess(status) {
			return nil, classifyFailure(status, respBody)
		}
		if !json.Valid(respBody) {
			return nil, &APIError{
				Kind:    oauthmodel.ErrInvalidResponseFormat,
				Status:  status,
				Message: "expected JSON from relay",
				Body:    respBody,
			}
		}
		return json.RawMessage(respBody), nil
	}
	return nil, oauthmodel.ErrAuthExpired
}

// publicRequest calls an unauthenticated relay route (trend data).
func (c *Client) publicRequest(ctx context.Context, path string) (json.RawMessage, error) {
	status, body, err := c.doRelay(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, &APIError{Kind: oauthmodel.ErrRelay, Err: err}
	}
	if !isSuccess(status) {
		return nil, classifyFailure(status, body)
	}
	if !json.Valid(body) {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Status: status, Body: body}
	}
	return json.RawMessage(body), nil
}

// doRelay sends one request to the relay and reads the whole response.
func (c *Client) doRelay(ctx context.Context, method, path string, payload []byte, bearer string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.RelayURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read relay response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) postRelayJSON(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	return c.doRelay(ctx, http.MethodPost, path, payload, "")
}

// normalizeEndpoint maps a provider endpoint such as "user/info/?fields=x"
// onto the relay proxy namespace, collapsing duplicate slashes in the path.
func normalizeEndpoint(endpoint string) string {
	path, query, hasQuery := strings.Cut(endpoint, "?")
	path = strings.TrimPrefix(path, relayAPINamespace+"/")
	path = "/" + path
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	path = relayAPINamespace + path
	if hasQuery {
		path += "?" + query
	}
	return path
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(body)
	}
}
