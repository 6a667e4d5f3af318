package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// marshalHeaders converts headers to JSON TEXT for storage.
// Go's json encoder sorts map keys, so output is deterministic.
func marshalHeaders(h http.Header) (string, error) {
	if len(h) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // Header values carry <, > and & verbatim
	if err := enc.Encode(h); err != nil {
		return "", fmt.Errorf("marshal headers: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalHeaders parses JSON TEXT to headers. An empty column yields an
// empty, non-nil header.
func unmarshalHeaders(data string) (http.Header, error) {
	h := make(http.Header)
	if data == "" || data == "{}" {
		return h, nil
	}
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, fmt.Errorf("unmarshal headers: %w", err)
	}
	return h, nil
}
