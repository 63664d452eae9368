package psapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldError is one entry of a PowerSchool error body.
type FieldError struct {
	Resource string `json:"resource" yaml:"resource"`
	Field    string `json:"field"    yaml:"field"`
	Code     string `json:"code"     yaml:"code"`
}

// String renders the entry as "resource: field - code".
func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s - %s", e.Resource, e.Field, e.Code)
}

// ResponseError represents a decoded PowerSchool error response.
type ResponseError struct {
	StatusCode int          `json:"-"`
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d %s", e.StatusCode, http.StatusText(e.StatusCode))

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	for _, fe := range e.Errors {
		b.WriteString("\n\t")
		b.WriteString(fe.String())
	}

	return b.String()
}

// FirstError returns the first field error or nil.
func (e *ResponseError) FirstError() *FieldError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// HTTPError is a non-2xx response whose body is not a PowerSchool error.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}

	if body == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), body)
}

const maxErrorBody = 512

// NewResponseError builds the error for a non-2xx response. Bodies with a
// message or error list become a ResponseError; anything else an HTTPError.
func NewResponseError(statusCode int, body []byte) error {
	errResp, err := ParseResponseError(body)
	if err != nil || (errResp.Message == "" && len(errResp.Errors) == 0) {
		return &HTTPError{StatusCode: statusCode, Body: body}
	}

	errResp.StatusCode = statusCode

	return errResp
}

// ParseResponseError parses an error response from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		return errResp.StatusCode
	}

	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}
