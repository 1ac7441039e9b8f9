package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/creator-relay/oauth2"
	"github.com/jrsteele09/creator-relay/oauthmodel"
)

// APIError is a failed relay or upload call.
// Kind is one of the oauthmodel error kinds; errors.Is matches against it.
type APIError struct {
	Kind    error
	Status  int
	Code    string
	Message string
	Body    []byte
	Err     error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if d := e.detail(); d != "" {
		b.WriteString(": ")
		b.WriteString(d)
	}
	return b.String()
}

func (e *APIError) detail() string {
	switch {
	case e.Code != "" && e.Message != "" && e.Code != e.Message:
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	case e.Err != nil:
		return e.Err.Error()
	}
	return ""
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// classifyFailure turns a non-2xx relay response into an APIError.
// Structured bodies surface their embedded message. Anything else (an HTML
// error page from a proxy, say) is classified by sniffing its text.
func classifyFailure(status int, body []byte) *APIError {
	if json.Valid(body) {
		apiErr := &APIError{Kind: oauthmodel.ErrRelay, Status: status, Body: body}
		if e, ok := oauth2.NormalizeErrorResponse(body); ok {
			apiErr.Code = e.Code
			apiErr.Message = e.Message
		} else {
			apiErr.Message = fmt.Sprintf("API request failed: %d %s", status, http.StatusText(status))
		}
		switch {
		case strings.Contains(strings.ToLower(apiErr.Code), "scope"):
			apiErr.Kind = oauthmodel.ErrScope
		case status == http.StatusUnauthorized:
			apiErr.Kind = oauthmodel.ErrAuthExpired
		}
		return apiErr
	}

	text := strings.ToLower(string(body))
	kind := oauthmodel.ErrRelay
	switch {
	case strings.Contains(text, "scope"):
		kind = oauthmodel.ErrScope
	case strings.Contains(text, "401") || strings.Contains(text, "unauthorized"):
		kind = oauthmodel.ErrAuthExpired
	}
	return &APIError{
		Kind:    kind,
		Status:  status,
		Message: fmt.Sprintf("non-JSON %d response from relay", status),
		Body:    body,
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
