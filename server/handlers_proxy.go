package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/creator-relay/metrics"
	"github.com/rs/zerolog/log"
)

// Proxy forwards any other call under the namespace to the provider API with
// the caller's own bearer token. Payloads are not inspected.
func (s *Server) Proxy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			metrics.ProxyRequests.WithLabelValues(r.Method, strconv.Itoa(http.StatusUnauthorized)).Inc()
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Access token required"})
			return
		}

		var body io.Reader
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
			if err != nil {
				writeJSONError(w, "invalid_request", "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			body = bytes.NewReader(raw)
		}

		path := r.PathValue("path")
		resp, err := s.upstream.Forward(r.Context(), r.Method, path, r.URL.RawQuery, body, r.Header.Get("Content-Type"), accessToken)
		if err != nil {
			metrics.ProxyRequests.WithLabelValues(r.Method, strconv.Itoa(http.StatusBadGateway)).Inc()
			log.Err(err).
				Str("request_id", requestIDFrom(r.Context())).
				Str("endpoint", path).
				Msg("proxy request failed")
			writeJSONError(w, "upstream_unavailable", "API request failed", http.StatusBadGateway)
			return
		}

		metrics.ProxyRequests.WithLabelValues(r.Method, strconv.Itoa(resp.Status)).Inc()
		writeRaw(w, resp.Status, resp.ContentType, resp.Body)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
