package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEvent separates event identities from any other hash in the system.
const DomainEvent = "bazaar/event/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed identity of an event. The same
// kind, arguments and sequence number always produce the same ID, so a
// replayed log can be compared entry by entry.
func EventID(kind string, args Object, seq int64) (string, error) {
	canonical, err := Marshal(Object{
		"kind": String(kind),
		"args": args,
		"seq":  Int(seq),
	})
	if err != nil {
		return "", fmt.Errorf("event id: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
