package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/JuanJosePl/new-killaVibe-sub001/pkg/errors"
)

// errorResponse mirrors the failure shape of the commerce backend's
// envelope: {success:false, message} with an optional error string.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and
// translates it into the matching domain error via apperrors.FromStatus.
// When the body carries the backend's structured envelope, its message is
// preserved; otherwise the raw body text is used as a fallback.
//
// The caller should only invoke this when resp.StatusCode indicates an
// error (i.e. not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return apperrors.FromStatus(resp.StatusCode, "")
	}

	return apperrors.FromStatus(resp.StatusCode, extractMessage(bodyBytes))
}

// extractMessage pulls the human-readable message out of an error body.
// Non-JSON bodies are surfaced as-is so an upstream proxy's plain-text
// error still reaches the user.
func extractMessage(body []byte) string {
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// IsClientError reports whether the HTTP status code is a 4xx client
// error. Client errors mean the request itself was rejected; retrying or
// compensating is pointless.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
