package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToken_MissingCode(t *testing.T) {
	f := setupFixture(t, nil)

	for _, body := range []string{`{}`, `{"code":""}`, ``} {
		rec := f.do(t, http.MethodPost, "/api/tiktok/token", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.Equal(t, "Authorization code is required", decodeBody(t, rec)["error_description"])
	}
	require.Zero(t, f.upstream.calls.Load())
}

func TestToken_InvalidJSON(t *testing.T) {
	f := setupFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/tiktok/token", `{"code":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
}

func TestToken_Success(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "key-1", r.PostForm.Get("client_key"))
		require.Equal(t, testSecret, r.PostForm.Get("client_secret"))
		require.Equal(t, "abc123", r.PostForm.Get("code"))
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, testRedirectURI, r.PostForm.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"access_token":"tok1","refresh_token":"ref1"}}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/token", `{"code":"abc123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"data":{"access_token":"tok1","refresh_token":"ref1"}}`, rec.Body.String())
	require.NotContains(t, rec.Body.String(), testSecret)
}

func TestToken_CallerRedirectURI(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "https://other.example/cb", r.PostForm.Get("redirect_uri"))
		_, _ = w.Write([]byte(`{"access_token":"tok1"}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/token", `{"code":"abc123","redirect_uri":"https://other.example/cb"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestToken_EmbeddedErrorIs400(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Authorization code is expired.","log_id":"L1"}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/token", `{"code":"stale"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "invalid_grant", body["error"])
	require.Equal(t, "Authorization code is expired.", body["error_description"])
	require.Equal(t, "L1", body["log_id"])
}

func TestToken_NoAccessTokenIs400(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/token", `{"code":"abc123"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No access token in response", decodeBody(t, rec)["error_description"])
}

func TestToken_NonJSONUpstreamIsGeneric500(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/token", `{"code":"abc123"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "maintenance")
	require.Equal(t, "server_error", decodeBody(t, rec)["error"])
}

func TestRefresh(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		if r.PostForm.Get("refresh_token") == "revoked" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"revoked"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok2","refresh_token":"ref2"}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/refresh", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Refresh token is required", decodeBody(t, rec)["error_description"])

	rec = f.do(t, http.MethodPost, "/api/tiktok/refresh", `{"refresh_token":"ref1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"access_token":"tok2","refresh_token":"ref2"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/tiktok/refresh", `{"refresh_token":"revoked"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"invalid_grant","error_description":"revoked"}`, rec.Body.String())
}

func TestQRCode(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("POST /v2/oauth/get_qrcode/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, testSecret, r.PostForm.Get("client_secret"))
		require.Equal(t, "user.info.basic", r.PostForm.Get("scope"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"token":"qr1","scan_qrcode_url":"https://scan.example/qr1"}}`))
	})
	f.upstream.mux.HandleFunc("POST /v2/oauth/check_qrcode/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "qr1", r.PostForm.Get("token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"status":"scanned"}}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/qrcode/get", `{"scope":"user.info.basic"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "qr1")

	rec = f.do(t, http.MethodPost, "/api/tiktok/qrcode/check", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/tiktok/qrcode/check", `{"token":"qr1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"status":"scanned"}}`, rec.Body.String())
}

func TestProxy_RequiresBearer(t *testing.T) {
	f := setupFixture(t, nil)

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		headers := map[string]string{}
		if header != "" {
			headers["Authorization"] = header
		}
		rec := f.do(t, http.MethodGet, "/api/tiktok/user/info/", "", headers)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
		require.Equal(t, "Access token required", decodeBody(t, rec)["error"])
	}
	require.Zero(t, f.upstream.calls.Load())
}

func TestProxy_PassesThroughUnchanged(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("/v2/video/list/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "fields=id,title", r.URL.RawQuery)
		require.Equal(t, "Bearer user-tok", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, `{"max_count":5,"cursor":null}`, string(body))
		require.NotContains(t, r.URL.String(), testSecret)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"odd":"shape"}`))
	})

	rec := f.do(t, http.MethodPost, "/api/tiktok/video/list/?fields=id,title", `{"max_count":5,"cursor":null}`, map[string]string{
		"Authorization": "Bearer user-tok",
	})
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, `{"odd":"shape"}`, rec.Body.String())
}

func TestProxy_Get(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("GET /v2/user/info/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "open_id,display_name", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"data":{"user":{"open_id":"u1"}}}`))
	})

	rec := f.do(t, http.MethodGet, "/api/tiktok/user/info/?fields=open_id,display_name", "", map[string]string{
		"Authorization": "bearer user-tok",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"user":{"open_id":"u1"}}}`, rec.Body.String())
}

func TestTrending_CachesAndFallsBack(t *testing.T) {
	f := setupFixture(t, nil)
	f.upstream.mux.HandleFunc("GET /trends/hashtags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"list":[{"hashtag_name":"fyp","publish_cnt":10,"video_views":20,"rank_diff":15}]}}`))
	})
	f.upstream.mux.HandleFunc("GET /trends/songs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := f.do(t, http.MethodGet, "/api/trending/hashtags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Hashtags []map[string]any `json:"hashtags"`
		} `json:"data"`
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "live", body.Source)
	require.Equal(t, "fyp", body.Data.Hashtags[0]["name"])
	require.Equal(t, "hot", body.Data.Hashtags[0]["trend"])

	rec = f.do(t, http.MethodGet, "/api/trending/hashtags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "cache", decodeBody(t, rec)["source"])
	require.Equal(t, int32(1), f.upstream.calls.Load())

	rec = f.do(t, http.MethodGet, "/api/trending/songs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fallback", decodeBody(t, rec)["source"])
}
