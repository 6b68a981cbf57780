package remote

import (
	"strings"

	"github.com/goccy/go-json"
)

// authErrorBody covers the error shapes GoTrue has returned across versions
type authErrorBody struct {
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
}

// AuthErrorMessage extracts the human-readable text from an auth error.
// The SDK formats failures as "response status code N: <body>"; when the
// body is JSON the most specific message field wins, otherwise the error
// text is returned as is.
func AuthErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	raw := err.Error()
	body := raw
	if i := strings.Index(raw, "{"); i >= 0 {
		body = raw[i:]
	}

	var parsed authErrorBody
	if jsonErr := json.Unmarshal([]byte(body), &parsed); jsonErr != nil {
		return raw
	}

	for _, candidate := range []string{parsed.ErrorDescription, parsed.Msg, parsed.Message, parsed.Error} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return raw
}
