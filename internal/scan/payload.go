// Package scan turns decoded QR payloads into entry decisions and drives the
// capture device through its scan cycle.
package scan

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/Flyrell/gatepass/internal/member"
)

// ErrMalformedPayload is returned when a QR payload holds no usable member id.
var ErrMalformedPayload = errors.New("malformed QR payload")

// DecodePayload extracts the member id from a QR payload. A JSON object must
// carry a non-empty "id"; a JSON string or number is the id itself; text that
// is not JSON is taken verbatim as the id.
func DecodePayload(payload string) (member.ID, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return "", ErrMalformedPayload
	}

	if s[0] == '{' {
		var obj struct {
			ID member.ID `json:"id"`
		}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return "", ErrMalformedPayload
		}
		return checkID(obj.ID)
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return checkID(member.ID(s))
	}
	switch x := v.(type) {
	case string:
		return checkID(member.ID(strings.TrimSpace(x)))
	case float64:
		var id member.ID
		if err := json.Unmarshal([]byte(s), &id); err != nil {
			return "", ErrMalformedPayload
		}
		return checkID(id)
	}
	return "", ErrMalformedPayload
}

func checkID(id member.ID) (member.ID, error) {
	if id.IsZero() {
		return "", ErrMalformedPayload
	}
	for _, r := range id.String() {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", ErrMalformedPayload
		}
	}
	return id, nil
}
