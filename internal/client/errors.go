package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a structured error returned by the atelier API.
// A failed request yields either an *APIError (the server answered with a
// non-2xx status) or a plain transport error (the server never answered);
// callers distinguish the two with errors.As.
type APIError struct {
	// StatusCode is the HTTP status of the failed request.
	StatusCode int

	// Message is a human-readable summary, taken from the response body's
	// "detail" or "non_field_errors" when present.
	Message string

	// FieldErrors maps payload field names to their validation messages,
	// parsed from the DRF error body shape {"field": ["msg", ...]}.
	FieldErrors map[string][]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error (status %d)", e.StatusCode)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.FieldErrors) > 0 {
		fields := make([]string, 0, len(e.FieldErrors))
		for f := range e.FieldErrors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(&b, "; %s: %s", f, strings.Join(e.FieldErrors[f], ", "))
		}
	}
	return b.String()
}

// IsNotFound reports whether the server answered 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsValidation reports whether the server rejected the payload with
// field-level messages.
func (e *APIError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest && len(e.FieldErrors) > 0
}

// IsUnauthorized reports whether the request lacked valid credentials.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is an API "not found" error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsValidation reports whether err carries field-level validation messages.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsValidation()
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// newAPIError builds an APIError from a non-2xx response, parsing the DRF
// error body: string values, lists of strings, "detail" and
// "non_field_errors" are all recognized. Unparseable bodies degrade to the
// raw text so nothing the server said is lost.
func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body := strings.TrimSpace(string(resp.Body))
	if body == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		apiErr.Message = body
		return apiErr
	}

	for field, msg := range raw {
		values := decodeErrorValue(msg)
		if len(values) == 0 {
			continue
		}
		switch field {
		case "detail", "non_field_errors", "error", "message":
			if apiErr.Message == "" {
				apiErr.Message = strings.Join(values, ", ")
			}
		default:
			if apiErr.FieldErrors == nil {
				apiErr.FieldErrors = make(map[string][]string)
			}
			apiErr.FieldErrors[field] = values
		}
	}

	if apiErr.Message == "" && len(apiErr.FieldErrors) == 0 {
		apiErr.Message = body
	}
	return apiErr
}

// decodeErrorValue accepts "msg", ["msg", ...] or anything else DRF nests.
func decodeErrorValue(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var any interface{}
	if err := json.Unmarshal(raw, &any); err == nil {
		return []string{fmt.Sprintf("%v", any)}
	}
	return nil
}
