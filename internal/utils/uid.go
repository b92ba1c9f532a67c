package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ShortID returns a 9-character lowercase alphanumeric identifier, the shape
// the editor frontend uses for file and project ids.
func ShortID() string {
	var buf [9]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// rand failure is effectively impossible; fall back to a clock id.
		return fmt.Sprintf("%09x", time.Now().UnixNano())[:9]
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf[:])
}

// RunID returns an identifier for a run, unique per process.
func RunID(prefix string) string {
	if prefix == "" {
		prefix = "run"
	}
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
