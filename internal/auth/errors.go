package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is an error response from the GoTrue API. It matches the package
// sentinels with errors.Is, so callers can write
//
//	if errors.Is(err, auth.ErrEmailNotConfirmed) { ... }
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(e.Status)
}

// Is maps provider error codes (and, for older servers, messages) onto the
// package sentinels.
func (e *Error) Is(target error) bool {
	msg := strings.ToLower(e.Message)
	switch target {
	case ErrInvalidCredentials:
		return e.Code == "invalid_credentials" || msg == "invalid login credentials"
	case ErrEmailNotConfirmed:
		return e.Code == "email_not_confirmed" || msg == "email not confirmed"
	case ErrUserExists:
		return e.Code == "user_already_exists" || e.Code == "email_exists" || msg == "user already registered"
	}
	return false
}

// goTrueError accepts both the legacy OAuth-style body and the current one.
type goTrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func decodeError(status int, body []byte) error {
	e := &Error{Status: status}

	var raw goTrueError
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}

	e.Code = firstNonEmpty(raw.ErrorCode, raw.Error)
	e.Message = firstNonEmpty(raw.Msg, raw.ErrorDescription, raw.Message)
	if e.Message == "" && e.Code == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
