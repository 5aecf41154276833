// Package payload defines the argument values carried by ledger events and
// their canonical encoding.
//
// Event arguments are flat objects of strings, integers and booleans. There
// are no floats and no nulls: 256-bit amounts travel as base-10 strings so
// that every event serializes to exactly one byte sequence. That byte
// sequence (RFC 8785 style canonical JSON, NFC-normalized strings) is what the
// store persists and what event IDs are hashed from.
package payload
