// Package hashutil derives short, stable references for journaled records.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// RefLen is the length of a reference in hex characters.
const RefLen = 10

// Ref hashes parts into a RefLen hex reference. Parts are separated by NUL so
// ("ab", "c") and ("a", "bc") differ.
func Ref(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])[:RefLen]
}

// ScanRef identifies one scan by station, payload and the instant it happened.
func ScanRef(station, payload string, at time.Time) string {
	return Ref(station, payload, strconv.FormatInt(at.UnixNano(), 10))
}
