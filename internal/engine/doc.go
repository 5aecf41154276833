// Package engine hosts the market: it restores the ledger from the store,
// applies calls one at a time, and commits each outcome atomically.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Calls are applied by one goroutine for deterministic behavior. This ensures:
// - A total order of calls and events
// - Reproducible state on replay
// - No locking inside the market core
//
// Call Processing Flow:
// 1. Submit enqueues a call to the FIFO queue (or Execute runs it directly)
// 2. Engine.Run() dequeues calls one at a time
// 3. apply() funds custody for purchases, then dispatches to the market
// 4. The call record, its events and changed balances commit in one SQLite
// transaction; a rejected call commits only its record
// 5. Observers receive the committed events in order
//
// A failed call leaves the market, the wallet journal and the event log as
// they were. A failed commit of a successful call halts the engine, since
// memory and disk may then disagree.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Events are stamped by the event log's monotonic seq counter.
// NEVER use wall-clock timestamps for ordering.
//
// Deterministic Restore:
// Open replays the stored events in seq order through the same market code
// that produced them. Verify replays them again, independently, through a
// fresh ledger and a client mirror.
package engine
