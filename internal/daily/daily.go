// Package daily derives the per-date board seed used by the "daily board"
// option: every player asking for today's board at a given level gets the
// same mine layout for the same first click.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic seed for date and levelKey using
// HMAC(salt, YYYY-MM-DD|levelKey).
func Seed(date time.Time, salt, levelKey string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	h.Write([]byte{'|'})
	h.Write([]byte(levelKey))
	sum := h.Sum(nil)
	// first 8 bytes, sign bit cleared
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}
