// Package resource identifies the data sources shown together in one document
// and encodes groups of them to the compact string form persisted in preferences.
package resource

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrMalformed is returned when a string cannot be normalized to an identifier.
var ErrMalformed = errors.New("malformed resource identifier")

// ID is a normalized resource location in URI form.
type ID string

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// Path returns the local filesystem path for file: identifiers.
func (id ID) Path() (string, bool) {
	u, err := url.Parse(string(id))
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// Normalize converts a local path to a file: URI or validates an URI-like string.
// Strings that start with "http" or "file" and carry a known scheme pass through
// in canonical form; any other string is resolved as a local path.
func Normalize(raw string) (ID, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformed)
	}

	if strings.HasPrefix(raw, "http") || strings.HasPrefix(raw, "file") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrMalformed, raw, err)
		}
		switch u.Scheme {
		case "http", "https", "file":
			return ID(u.String()), nil
		case "":
			// plain file name such as "file1.log"
		default:
			return "", fmt.Errorf("%w: %q: unknown protocol %q", ErrMalformed, raw, u.Scheme)
		}
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformed, raw, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		// windows volume, e.g. C:/logs
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, OmitHost: true}
	return ID(u.String()), nil
}

// MustNormalize is like Normalize but panics on error. Intended for tests and constants.
func MustNormalize(raw string) ID {
	id, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return id
}
