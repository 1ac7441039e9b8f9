package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/creator-relay/internal/config"
	"github.com/stretchr/testify/require"
)

func runCreator(t *testing.T, relayURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CREATOR_RELAY_URL", relayURL)
	t.Setenv("CREATOR_TOKEN_FILE", filepath.Join(t.TempDir(), "tokens.json"))
	t.Setenv("CREATOR_TOKEN_PASSPHRASE", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatus_NotAuthenticated(t *testing.T) {
	out, err := runCreator(t, "http://127.0.0.1:1", "status")
	require.NoError(t, err)
	require.Contains(t, out, "not authenticated")
}

func TestTrending_PrintsRelayResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trending/songs", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"songs":[]},"source":"cache"}`))
	})
	relay := httptest.NewServer(mux)
	defer relay.Close()

	out, err := runCreator(t, relay.URL, "trending", "songs")
	require.NoError(t, err)
	require.Contains(t, out, `"source":"cache"`)
}

func TestTrending_RejectsUnknownKind(t *testing.T) {
	_, err := runCreator(t, "http://127.0.0.1:1", "trending", "sounds")
	require.Error(t, err)
}

func TestWhoami_RequiresLogin(t *testing.T) {
	_, err := runCreator(t, "http://127.0.0.1:1", "whoami")
	require.Error(t, err)
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestDefaultRelayURLReachesDefaultRelayPort(t *testing.T) {
	unsetEnv(t, "CREATOR_RELAY_URL", "PORT", "ENV", "TIKTOK_CLIENT_SECRET")

	var s settings
	require.NoError(t, env.Parse(&s))
	relayCfg, err := config.New()
	require.NoError(t, err)

	u, err := url.Parse(s.RelayURL)
	require.NoError(t, err)
	require.Equal(t, relayCfg.GetPort(), ":"+u.Port())
}

func TestLogin_UsesConfiguredAuthURL(t *testing.T) {
	t.Setenv("TIKTOK_AUTH_URL", "https://auth.example.com/authorize/")

	out, err := runCreator(t, "http://127.0.0.1:1", "login")
	require.Error(t, err, "no redirect URL is entered")
	require.Contains(t, out, "https://auth.example.com/authorize/?")
}
