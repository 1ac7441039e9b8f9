package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/jrsteele09/creator-relay/session"
	"github.com/stretchr/testify/require"
)

func TestAPIRequest_NotAuthenticated(t *testing.T) {
	relay := newFakeRelay(t)
	c := newTestClient(t, relay, nil)

	_, err := c.APIRequest(context.Background(), "/user/info/", "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrNotAuthenticated)
	require.Zero(t, relay.calls.Load())
}

func TestAPIRequest_ForwardsBearerAndBody(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/tiktok/video/list/", r.URL.Path)
		require.Equal(t, "fields=id,title", r.URL.RawQuery)
		require.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"max_count":5}`, string(body))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"videos": []any{}}})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	resp, err := c.APIRequest(context.Background(), "video/list/?fields=id,title", "", map[string]int{"max_count": 5})
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"videos":[]}}`, string(resp))
}

func TestAPIRequest_RefreshesOnceOn401(t *testing.T) {
	relay := newFakeRelay(t)
	var (
		mu      sync.Mutex
		proxied []string
	)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		proxied = append(proxied, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.Header.Get("Authorization") == "Bearer tok1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": "access_token_invalid", "message": "expired"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": map[string]any{"open_id": "u1"}}})
	}
	relay.refresh = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "tok2", "refresh_token": "ref2"})
	}
	store := loggedInStore(t, "tok1", "ref1")
	c := newTestClient(t, relay, store)

	resp, err := c.APIRequest(context.Background(), "/user/info/", http.MethodGet, nil)
	require.NoError(t, err)
	require.Contains(t, string(resp), "u1")

	require.Equal(t, int32(1), relay.refreshes.Load())
	mu.Lock()
	require.Equal(t, []string{"Bearer tok1", "Bearer tok2"}, proxied)
	mu.Unlock()
	stored, _ := store.Get(credentials.AccessTokenKey)
	require.Equal(t, "tok2", stored)
}

func TestAPIRequest_SecondUnauthorizedIsAuthExpired(t *testing.T) {
	relay := newFakeRelay(t)
	var proxied atomic.Int32
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		proxied.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Access token required"})
	}
	relay.refresh = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "tok2", "refresh_token": "ref2"})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	_, err := c.APIRequest(context.Background(), "/user/info/", http.MethodGet, nil)
	require.ErrorIs(t, err, oauthmodel.ErrAuthExpired)
	require.Equal(t, int32(1), relay.refreshes.Load())
	require.Equal(t, int32(2), proxied.Load())
}

func TestAPIRequest_RefreshFailureIsAuthExpired(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "expired"})
	}
	relay.refresh = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	_, err := c.APIRequest(context.Background(), "/user/info/", http.MethodGet, nil)
	require.ErrorIs(t, err, oauthmodel.ErrAuthExpired)
	require.False(t, c.IsAuthenticated())
}

func TestAPIRequest_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        error
		wantText    string
	}{
		{
			name:        "json error message surfaces",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"error":{"code":"invalid_params","message":"max_count must be at most 20"}}`,
			want:        oauthmodel.ErrRelay,
			wantText:    "max_count must be at most 20",
		},
		{
			name:        "json scope error",
			status:      http.StatusForbidden,
			contentType: "application/json",
			body:        `{"error":{"code":"scope_not_authorized","message":"video.list not granted"}}`,
			want:        oauthmodel.ErrScope,
			wantText:    "video.list not granted",
		},
		{
			name:        "html scope page",
			status:      http.StatusForbidden,
			contentType: "text/html",
			body:        `<html>missing scope</html>`,
			want:        oauthmodel.ErrScope,
		},
		{
			name:        "html error page",
			status:      http.StatusBadGateway,
			contentType: "text/html",
			body:        `<html>bad gateway</html>`,
			want:        oauthmodel.ErrRelay,
		},
		{
			name:        "success that is not json",
			status:      http.StatusOK,
			contentType: "text/html",
			body:        `<html>ok</html>`,
			want:        oauthmodel.ErrInvalidResponseFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := newFakeRelay(t)
			relay.proxy = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}
			c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

			_, err := c.APIRequest(context.Background(), "/video/list/", "", nil)
			require.ErrorIs(t, err, tt.want)
			if tt.wantText != "" {
				require.Contains(t, err.Error(), tt.wantText)
			}
			var apiErr *session.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.body, string(apiErr.Body))
			require.Zero(t, relay.refreshes.Load())
		})
	}
}

func TestGetUserInfo(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiktok/user/info/", r.URL.Path)
		require.Equal(t, "open_id,union_id,avatar_url,display_name,username", r.URL.Query().Get("fields"))
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  map[string]any{"user": map[string]any{"open_id": "u1", "display_name": "fresh"}},
			"error": map[string]any{"code": "ok"},
		})
	}
	store := loggedInStore(t, "tok1", "ref1")
	c := newTestClient(t, relay, store)

	info, err := c.GetUserInfo(context.Background(), true)
	require.NoError(t, err)
	require.False(t, info.Cached)
	require.Nil(t, info.Refresh)
	require.JSONEq(t, `{"open_id":"u1","display_name":"fresh"}`, string(info.Profile))

	cached, ok := store.Get(credentials.UserInfoKey)
	require.True(t, ok)
	require.JSONEq(t, string(info.Profile), cached)
}

func TestGetUserInfo_CachedWithBackgroundRefresh(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"user": map[string]any{"open_id": "u1", "display_name": "fresh"}},
		})
	}
	store := loggedInStore(t, "tok1", "ref1")
	require.NoError(t, store.Set(credentials.UserInfoKey, `{"open_id":"u1","display_name":"stale"}`))
	c := newTestClient(t, relay, store)

	info, err := c.GetUserInfo(context.Background(), false)
	require.NoError(t, err)
	require.True(t, info.Cached)
	require.Contains(t, string(info.Profile), "stale")
	require.NotNil(t, info.Refresh)

	require.NoError(t, info.Refresh.Wait(context.Background()))
	cached, _ := store.Get(credentials.UserInfoKey)
	require.Contains(t, cached, "fresh")
}

func TestGetUserInfo_BackgroundFailureIsNotSurfaced(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "upstream down"})
	}
	store := loggedInStore(t, "tok1", "ref1")
	require.NoError(t, store.Set(credentials.UserInfoKey, `{"open_id":"u1"}`))
	c := newTestClient(t, relay, store)

	info, err := c.GetUserInfo(context.Background(), false)
	require.NoError(t, err)
	require.True(t, info.Cached)

	<-info.Refresh.Done()
	cached, _ := store.Get(credentials.UserInfoKey)
	require.JSONEq(t, `{"open_id":"u1"}`, cached)
}

func TestGetTrendingHashtags_NoLoginNeeded(t *testing.T) {
	relay := newFakeRelay(t)
	relay.trending = func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		require.Equal(t, "hashtags", r.PathValue("kind"))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"hashtags": []any{}}, "source": "fallback"})
	}
	c := newTestClient(t, relay, nil)

	resp, err := c.GetTrendingHashtags(context.Background())
	require.NoError(t, err)

	var body struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(resp, &body))
	require.Equal(t, "fallback", body.Source)
}

func TestGetPostStatus(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiktok/post/publish/status/fetch/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"publish_id":"p-1"}`, string(body))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": "PUBLISH_COMPLETE"}})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	resp, err := c.GetPostStatus(context.Background(), "p-1")
	require.NoError(t, err)
	require.Contains(t, string(resp), "PUBLISH_COMPLETE")
}

func TestGetUserVideos(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/tiktok/video/list/", r.URL.Path)
		require.Contains(t, r.URL.Query().Get("fields"), "view_count")
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"max_count":20}`, string(body))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"videos": []any{}}})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	_, err := c.GetUserVideos(context.Background(), 0)
	require.NoError(t, err)
}

func TestGetVideoInsights(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiktok/video/query/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"filters":{"video_ids":["v1","v2"]}}`, string(body))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"videos": []any{}}})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	_, err := c.GetVideoInsights(context.Background(), "v1", "v2")
	require.NoError(t, err)

	_, err = c.GetVideoInsights(context.Background())
	require.Error(t, err)
	require.EqualValues(t, 1, relay.calls.Load())
}

func TestPostPhoto(t *testing.T) {
	relay := newFakeRelay(t)
	relay.proxy = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tiktok/post/publish/content/init/", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "PHOTO", body["media_type"])
		require.Equal(t, "DIRECT_POST", body["post_mode"])
		require.Equal(t, session.PrivacySelfOnly, body["post_info"].(map[string]any)["privacy_level"])
		require.Equal(t, []any{"https://cdn.example.com/a.jpg"}, body["source_info"].(map[string]any)["photo_images"])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"publish_id": "p-9"}})
	}
	c := newTestClient(t, relay, loggedInStore(t, "tok1", "ref1"))

	res, err := c.PostPhoto(context.Background(), session.PostInfo{Title: "hi"}, []string{"https://cdn.example.com/a.jpg"})
	require.NoError(t, err)
	require.Equal(t, "p-9", res.PublishID)
}
