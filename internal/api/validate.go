// internal/api/validate.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/stats"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("request body must be a JSON object")

// body is a decoded JSON object body.
type body map[string]json.RawMessage

// decodeBody reads a JSON object body and checks that every required field
// is present. A field holding null counts as present.
func decodeBody(r *http.Request, required ...string) (body, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	b := body{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
	}
	for _, f := range required {
		if _, ok := b[f]; !ok {
			return nil, &custom_errors.ErrMissingField{Source: "body", Field: f}
		}
	}
	return b, nil
}

// truthy coerces field to a boolean. Malformed values are false.
func (b body) truthy(field string) bool {
	var v interface{}
	if err := json.Unmarshal(b[field], &v); err != nil {
		return false
	}
	return stats.Truthy(v)
}

// text returns field as a string. Non-string values are rejected.
func (b body) text(field string) (string, error) {
	var s string
	if err := json.Unmarshal(b[field], &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", errInvalidBody, field)
	}
	return s, nil
}

// requireQuery returns the query value name, failing when it is empty.
func requireQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", &custom_errors.ErrMissingField{Source: "query", Field: name}
	}
	return v, nil
}
