package member

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID identifies a member or a group. The backend emits numeric ids, but QR
// payloads and older records may carry them as strings, so both decode.
type ID string

// String returns the id as plain text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// numeric reports whether the id is a plain unsigned integer without leading
// zeros, which is the only form that survives a round trip as a JSON number.
func (id ID) numeric() bool {
	if id == "" || (len(id) > 1 && id[0] == '0') {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON encodes numeric ids as JSON numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, a JSON string, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	if raw := ID(n.String()); raw.numeric() {
		*id = raw
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	if f == math.Trunc(f) {
		if math.Abs(f) >= maxExactID {
			return fmt.Errorf("id %s out of range", data)
		}
		*id = ID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// maxExactID bounds whole-number float ids that still fit an int64.
const maxExactID = 1 << 63
