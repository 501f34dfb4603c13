package heos

import (
	"strconv"
	"strings"
)

// Attrs holds the key/value pairs of a reply's message string or a flat payload.
type Attrs map[string]string

// ParseMessage decodes an &-joined key=value message string.
// Segments without '=' are dropped.
func ParseMessage(message string) Attrs {
	attrs := make(Attrs)
	if message == "" {
		return attrs
	}
	for _, segment := range strings.Split(message, "&") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		attrs[key] = value
	}
	return attrs
}

// Get returns the value for key, or "" when absent.
func (a Attrs) Get(key string) string {
	return a[key]
}

// Int parses the value for key as an integer.
func (a Attrs) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, ErrMissingField
	}
	return strconv.Atoi(strings.TrimSpace(v))
}
