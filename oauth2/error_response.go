package oauth2

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorResponse is the canonical error shape.
// Upstream and relay errors arrive as {"error": "code", "error_description": "..."},
// as {"error": {"code": "...", "message": "..."}}, or as {"message": "..."}.
type ErrorResponse struct {
	Code    string `json:"error,omitempty"`
	Message string `json:"error_description,omitempty"`
}

func (e ErrorResponse) String() string {
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	default:
		return e.Code
	}
}

// NormalizeErrorResponse extracts the embedded error from a JSON body.
// It returns false when the body is not JSON or carries no error. A nested
// error object whose code is "ok" is the provider's success marker, not an error.
func NormalizeErrorResponse(body []byte) (ErrorResponse, bool) {
	if !gjson.ValidBytes(body) {
		return ErrorResponse{}, false
	}
	return normalizeError(gjson.ParseBytes(body), true)
}

// normalizeError reads the error fields of root. A bare top-level "message" only
// counts as an error when messageOnly is set, since success bodies may carry one too.
func normalizeError(root gjson.Result, messageOnly bool) (ErrorResponse, bool) {
	var e ErrorResponse

	errField := root.Get("error")
	if !errField.Exists() {
		errField = root.Get("data.error")
	}
	switch {
	case errField.IsObject():
		e.Code = errField.Get("code").String()
		e.Message = errField.Get("message").String()
		if strings.EqualFold(e.Code, "ok") {
			return ErrorResponse{}, false
		}
	case errField.Type == gjson.String:
		e.Code = errField.String()
	}

	if desc := root.Get("error_description").String(); desc != "" {
		e.Message = desc
	}
	if e.Message == "" && (e.Code != "" || messageOnly) {
		e.Message = root.Get("message").String()
	}
	if e.Code == "" && e.Message == "" {
		return ErrorResponse{}, false
	}
	return e, true
}
