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
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var errInvalidRequest = errors.New("invalid request")

// invalidf returns a validation error the response mapping turns into 400.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// DecodeJSON reads a single JSON object from the body into dst. Unknown
// fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return invalidf("request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return invalidf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return invalidf("malformed JSON: %v", err)
	}
	if dec.More() {
		return invalidf("request body must contain a single JSON object")
	}
	return nil
}

// ParseLimit reads a positive integer query parameter, falling back to def
// when absent and capping at max.
func ParseLimit(query url.Values, key string, def, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, invalidf("%s must be a positive integer", key)
	}
	if n > max {
		n = max
	}
	return n, nil
}

// requireAmount rejects a missing decimal field.
func requireAmount(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Decimal{}, invalidf("%s is required", field)
	}
	return *d, nil
}

// requireText trims s, strips control characters and enforces a maximum
// length in characters.
func requireText(field, s string, maxLen int) (string, error) {
	s = sanitizeInput(s)
	if s == "" {
		return "", invalidf("%s is required", field)
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return "", invalidf("%s cannot exceed %d characters", field, maxLen)
	}
	return s, nil
}

// sanitizeInput removes control characters except tab and newlines, then
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
