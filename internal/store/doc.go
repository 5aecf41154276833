// Package store provides SQLite-backed durable storage for the marketplace.
//
// The database holds:
//   - meta: the market owner and genesis digest, written once by init
//   - calls: every executed call with its outcome code
//   - events: the append-only ledger event stream
//   - accounts: native-value balances, including custody
//   - contents: content-addressed product descriptions
//
// One call is one transaction: its call record, the events it emitted and
// the balances it changed are committed together or not at all.
//
// All reads order by seq, never by wall time, so replays are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
