package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/tidwall/gjson"
)

// UserInfo is the creator profile as last seen.
type UserInfo struct {
	// Profile is the raw provider user object.
	Profile json.RawMessage

	// Cached is true when Profile came from the credential store.
	Cached bool

	// Refresh is set on a cached read and tracks the background fetch that
	// updates the store. It is nil when Profile was fetched directly.
	Refresh *BackgroundTask
}

// BackgroundTask is a fire-and-forget operation the caller may still wait on.
type BackgroundTask struct {
	done chan struct{}
	err  error
}

func startBackground(fn func() error) *BackgroundTask {
	t := &BackgroundTask{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = fn()
	}()
	return t
}

// Done is closed when the task finishes.
func (t *BackgroundTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx ends.
func (t *BackgroundTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetUserInfo returns the creator profile. Unless forceRefresh is set, a
// cached profile is returned at once while a fresh copy is fetched in the
// background. Background failures are logged, never surfaced.
func (c *Client) GetUserInfo(ctx context.Context, forceRefresh bool) (*UserInfo, error) {
	if !c.IsAuthenticated() {
		return nil, oauthmodel.ErrNotAuthenticated
	}

	if !forceRefresh {
		if cached, ok := c.store.Get(credentials.UserInfoKey); ok && json.Valid([]byte(cached)) {
			bg := context.WithoutCancel(ctx)
			task := startBackground(func() error {
				if _, err := c.fetchUserInfo(bg); err != nil {
					c.logger.Warn().Err(err).Msg("background profile refresh failed")
					return err
				}
				return nil
			})
			return &UserInfo{Profile: json.RawMessage(cached), Cached: true, Refresh: task}, nil
		}
	}

	profile, err := c.fetchUserInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &UserInfo{Profile: profile}, nil
}

func (c *Client) fetchUserInfo(ctx context.Context) (json.RawMessage, error) {
	endpoint := "/user/info/?fields=" + strings.Join(c.cfg.UserInfoFields, ",")
	resp, err := c.APIRequest(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	user := gjson.GetBytes(resp, "data.user")
	if !user.IsObject() {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Message: "response has no data.user object", Body: resp}
	}
	profile := json.RawMessage(user.Raw)
	if err := c.store.Set(credentials.UserInfoKey, user.Raw); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache profile")
	}
	return profile, nil
}
