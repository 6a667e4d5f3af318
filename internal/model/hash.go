package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainCall     = "dxexplorer/call/v1"
	DomainResponse = "dxexplorer/response/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallID computes the journal id of a recorded network call.
// Identical (session, seq, endpoint, body) tuples produce identical ids.
func CallID(sessionID string, seq int64, method, endpoint, responseBody string) (string, error) {
	obj := map[string]any{
		"session_id":    sessionID,
		"seq":           seq,
		"method":        method,
		"endpoint":      endpoint,
		"response_hash": ResponseHash([]byte(responseBody)),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CallID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCall, canonical), nil
}

// ResponseHash fingerprints a response body. Bodies that decode as JSON are
// hashed in canonical form so whitespace and key order do not matter.
func ResponseHash(body []byte) string {
	if v, err := DecodeJSON(body); err == nil {
		if canonical, err := MarshalCanonical(v); err == nil {
			return hashWithDomain(DomainResponse, canonical)
		}
	}
	return hashWithDomain(DomainResponse, body)
}
