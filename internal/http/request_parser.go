// This file implements utilities for parsing and validating HTTP request
// data: JSON bodies, path ids and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

const maxBodyBytes = 1 << 20 // 1MB

// validator is implemented by every request schema.
type validator interface {
	Validate() error
}

// decodeJSON decodes the body into dst, rejecting unknown fields and
// trailing data, then validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst validator) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return core.Validationf("request body is empty")
		}
		return core.Validationf("invalid request body: %s", describeDecodeError(err))
	}
	if dec.More() {
		return core.Validationf("invalid request body: unexpected data after JSON object")
	}
	return dst.Validate()
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return err.Error()
	}
}

// pathID parses the positive integer path value name.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validationf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer parameter; zero means absent.
func queryInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validationf("invalid %s %q", key, v)
	}
	return n, nil
}

// queryIntPtr is queryInt that keeps absence distinct from zero.
func queryIntPtr(query url.Values, key string) (*int, error) {
	if strings.TrimSpace(query.Get(key)) == "" {
		return nil, nil
	}
	n, err := queryInt(query, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// queryBool accepts true/false and 1/0.
func queryBool(query url.Values, key string) (*bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, core.Validationf("invalid %s %q", key, v)
	}
	return &b, nil
}

// parseYearMonth reads year and month, defaulting to the current ones when
// absent. Explicit values are validated as given.
func parseYearMonth(query url.Values) (year, month int, err error) {
	now := time.Now()
	year, month = now.Year(), int(now.Month())
	y, err := queryIntPtr(query, "year")
	if err != nil {
		return 0, 0, err
	}
	if y != nil {
		year = *y
	}
	m, err := queryIntPtr(query, "month")
	if err != nil {
		return 0, 0, err
	}
	if m != nil {
		month = *m
	}
	return year, month, core.ValidateYearMonth(year, month)
}

// parseYear reads year, defaulting to the current one when absent.
func parseYear(query url.Values) (int, error) {
	y, err := queryIntPtr(query, "year")
	if err != nil {
		return 0, err
	}
	year := time.Now().Year()
	if y != nil {
		year = *y
	}
	return year, core.ValidateYear(year)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
