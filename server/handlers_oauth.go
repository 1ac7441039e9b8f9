package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/creator-relay/internal/errors"
	"github.com/jrsteele09/creator-relay/metrics"
	"github.com/jrsteele09/creator-relay/oauth2"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/jrsteele09/creator-relay/provider"
	"github.com/rs/zerolog/log"
)

const maxRequestBody = 1 << 20

// Token exchanges an authorization code for a token pair using the relay's secret.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.TokenRequest
		if err := s.decodeRequest(r, &req); err != nil {
			writeRequestError(w, err, "Authorization code is required")
			return
		}
		redirectURI := req.RedirectURI
		if redirectURI == "" {
			redirectURI = s.config.GetRedirectURI()
		}

		resp, err := s.upstream.ExchangeCode(r.Context(), req.Code, redirectURI)
		if err != nil {
			metrics.TokenGrants.WithLabelValues(string(oauth2.AuthorizationCodeGrant), "unavailable").Inc()
			log.Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("token exchange failed")
			writeJSONError(w, "server_error", "Failed to exchange token", http.StatusBadGateway)
			return
		}
		s.writeTokenResponse(w, r, oauth2.AuthorizationCodeGrant, resp, false)
	}
}

// Refresh performs the refresh_token grant. A non-2xx upstream status is
// returned to the caller unchanged.
func (s *Server) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.RefreshRequest
		if err := s.decodeRequest(r, &req); err != nil {
			writeRequestError(w, err, "Refresh token is required")
			return
		}

		resp, err := s.upstream.RefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			metrics.TokenGrants.WithLabelValues(string(oauth2.RefreshTokenGrant), "unavailable").Inc()
			log.Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("token refresh failed")
			writeJSONError(w, "server_error", "Failed to refresh token", http.StatusBadGateway)
			return
		}
		s.writeTokenResponse(w, r, oauth2.RefreshTokenGrant, resp, true)
	}
}

// writeTokenResponse relays a token endpoint reply. The provider may answer
// HTTP 200 with an embedded error, which is reported as a 400.
func (s *Server) writeTokenResponse(w http.ResponseWriter, r *http.Request, grant oauth2.GrantType, resp *provider.Response, propagateStatus bool) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	if propagateStatus && !resp.OK() {
		metrics.TokenGrants.WithLabelValues(string(grant), "rejected").Inc()
		writeRaw(w, resp.Status, resp.ContentType, resp.Body)
		return
	}

	tr, err := oauth2.NormalizeTokenResponse(resp.Body)
	if err != nil {
		metrics.TokenGrants.WithLabelValues(string(grant), "malformed").Inc()
		log.Error().
			Str("request_id", requestIDFrom(r.Context())).
			Str("grant", string(grant)).
			Int("upstream_status", resp.Status).
			Msg("token endpoint returned a non-JSON body")
		writeJSONError(w, "server_error", "Token endpoint returned an unexpected response", http.StatusInternalServerError)
		return
	}

	if !tr.OK() {
		metrics.TokenGrants.WithLabelValues(string(grant), "rejected").Inc()
		log.Warn().
			Str("request_id", requestIDFrom(r.Context())).
			Str("grant", string(grant)).
			Int("upstream_status", resp.Status).
			Msg("token grant rejected")
		writeJSON(w, http.StatusBadRequest, tokenFailureBody(resp.Body, tr.Error))
		return
	}

	metrics.TokenGrants.WithLabelValues(string(grant), "ok").Inc()
	writeRaw(w, http.StatusOK, contentTypeJSON, resp.Body)
}

// tokenFailureBody keeps the upstream body and puts the normalized error on top.
func tokenFailureBody(body []byte, e *oauth2.ErrorResponse) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(body, &out)

	code, desc := "token_exchange_failed", "No access token in response"
	if e != nil {
		if e.Code != "" {
			code = e.Code
		}
		if e.Message != "" {
			desc = e.Message
		}
	}
	out[oauth2.ParamError] = code
	out[oauth2.ParamErrorDescription] = desc
	return out
}

// QRCodeGet requests a QR login code from the provider.
func (s *Server) QRCodeGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.QRCodeRequest
		if err := s.decodeRequest(r, &req); err != nil {
			writeRequestError(w, err, "Invalid request body")
			return
		}
		resp, err := s.upstream.GetQRCode(r.Context(), req.Scope, req.State)
		if err != nil {
			log.Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("qr code request failed")
			writeJSONError(w, "server_error", "Failed to get QR code", http.StatusBadGateway)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeRaw(w, resp.Status, resp.ContentType, resp.Body)
	}
}

// QRCodeCheck reads the status of a QR login code.
func (s *Server) QRCodeCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.QRCheckRequest
		if err := s.decodeRequest(r, &req); err != nil {
			writeRequestError(w, err, "QR token is required")
			return
		}
		resp, err := s.upstream.CheckQRCode(r.Context(), req.Token)
		if err != nil {
			log.Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("qr code check failed")
			writeJSONError(w, "server_error", "Failed to check QR code", http.StatusBadGateway)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeRaw(w, resp.Status, resp.ContentType, resp.Body)
	}
}

// decodeRequest reads a JSON body into dst and validates it. An empty body
// decodes to the zero value.
func (s *Server) decodeRequest(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(errors.ErrInvalidRequest, "decode body: %v", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidRequest, err)
	}
	return nil
}

func writeRequestError(w http.ResponseWriter, err error, description string) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		description = "Invalid JSON body"
	}
	writeJSONError(w, "invalid_request", description, http.StatusBadRequest)
}

// writeJSONError writes an OAuth2 style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		oauth2.ParamError:            errorCode,
		oauth2.ParamErrorDescription: description,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, statusCode int, contentType string, body []byte) {
	if contentType == "" {
		contentType = contentTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
