package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/session"
	"github.com/rs/zerolog"
)

const (
	testClientKey   = "test-client-key"
	testRedirectURI = "http://localhost:3000/callback.html"
)

// fakeRelay records every call the session client makes to the relay.
type fakeRelay struct {
	*httptest.Server

	token     http.HandlerFunc
	refresh   http.HandlerFunc
	qrGet     http.HandlerFunc
	qrCheck   http.HandlerFunc
	proxy     http.HandlerFunc
	trending  http.HandlerFunc
	calls     atomic.Int32
	refreshes atomic.Int32
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()
	f := &fakeRelay{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tiktok/token", f.dispatch(func() http.HandlerFunc { return f.token }))
	mux.HandleFunc("POST /api/tiktok/refresh", f.dispatch(func() http.HandlerFunc {
		f.refreshes.Add(1)
		return f.refresh
	}))
	mux.HandleFunc("POST /api/tiktok/qrcode/get", f.dispatch(func() http.HandlerFunc { return f.qrGet }))
	mux.HandleFunc("POST /api/tiktok/qrcode/check", f.dispatch(func() http.HandlerFunc { return f.qrCheck }))
	mux.HandleFunc("/api/tiktok/{path...}", f.dispatch(func() http.HandlerFunc { return f.proxy }))
	mux.HandleFunc("GET /api/trending/{kind}", f.dispatch(func() http.HandlerFunc { return f.trending }))
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRelay) dispatch(pick func() http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		h := pick()
		if h == nil {
			http.Error(w, "not configured", http.StatusNotImplemented)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, relay *fakeRelay, store credentials.Store, opts ...session.Option) *session.Client {
	t.Helper()
	if store == nil {
		store = credentials.NewInMemoryStore()
	}
	opts = append([]session.Option{session.WithLogger(zerolog.Nop())}, opts...)
	c := session.New(session.Config{
		RelayURL:    relay.URL,
		ClientKey:   testClientKey,
		RedirectURI: testRedirectURI,
		Scopes:      []string{"user.info.basic", "video.list", "user.info.basic"},
	}, store, opts...)
	t.Cleanup(c.Close)
	return c
}

func loggedInStore(t *testing.T, access, refresh string) credentials.Store {
	t.Helper()
	s := credentials.NewInMemoryStore()
	if access != "" {
		if err := s.Set(credentials.AccessTokenKey, access); err != nil {
			t.Fatal(err)
		}
	}
	if refresh != "" {
		if err := s.Set(credentials.RefreshTokenKey, refresh); err != nil {
			t.Fatal(err)
		}
	}
	return s
}
