package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/wallet"
)

// CallRecord is the audit entry of one executed call.
type CallRecord struct {
	Seq     int64          `json:"seq"`
	ID      string         `json:"id"`
	Op      string         `json:"op"`
	Caller  string         `json:"caller"`
	Args    payload.Object `json:"args"`
	Value   string         `json:"value"`
	Outcome string         `json:"outcome"`
	Message string         `json:"message,omitempty"`
}

// Batch is everything one call produced. Rejected calls carry only Call.
type Batch struct {
	Call     CallRecord
	Events   []event.Event
	Accounts []wallet.Account
}

// Commit writes a batch in a single transaction.
func (s *Store) Commit(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeCall(ctx, tx, b.Call); err != nil {
		return err
	}
	for _, e := range b.Events {
		if err := writeEvent(ctx, tx, b.Call.ID, e); err != nil {
			return err
		}
	}
	for _, a := range b.Accounts {
		if err := writeAccount(ctx, tx, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func writeCall(ctx context.Context, tx *sql.Tx, c CallRecord) error {
	argsJSON, err := marshalArgs(c.Args)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	value := c.Value
	if value == "" {
		value = "0"
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO calls (id, op, caller, args, value, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Op, c.Caller, argsJSON, value, c.Outcome, c.Message)
	if err != nil {
		return fmt.Errorf("write call %s: %w", c.ID, err)
	}
	return nil
}

// writeEvent inserts one event. Unlike the other writes there is no
// ON CONFLICT clause: a duplicate seq means two writers diverged.
func writeEvent(ctx context.Context, tx *sql.Tx, callID string, e event.Event) error {
	argsJSON, err := marshalArgs(e.Args)
	if err != nil {
		return fmt.Errorf("write event %d: %w", e.Seq, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (seq, id, call_id, kind, args)
		VALUES (?, ?, ?, ?, ?)
	`, e.Seq, e.ID, callID, string(e.Kind), argsJSON)
	if err != nil {
		return fmt.Errorf("write event %d: %w", e.Seq, err)
	}
	return nil
}

func writeAccount(ctx context.Context, tx *sql.Tx, a wallet.Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (principal, balance)
		VALUES (?, ?)
		ON CONFLICT(principal) DO UPDATE SET balance = excluded.balance
	`, string(a.Principal), marshalAmount(a.Balance))
	if err != nil {
		return fmt.Errorf("write account %s: %w", a.Principal, err)
	}
	return nil
}

// SetMeta stores a metadata value. Existing keys are not overwritten;
// ErrMetaExists is returned instead.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set meta %s: rows affected: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("set meta %s: %w", key, ErrMetaExists)
	}
	return nil
}

// SeedAccounts writes initial balances outside any call. Used by init.
func (s *Store) SeedAccounts(ctx context.Context, accounts []wallet.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed accounts: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, a := range accounts {
		if err := writeAccount(ctx, tx, a); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	return nil
}

// PutContent stores data under its handle. Writing the same handle twice is
// a no-op: handles are digests of the data.
func (s *Store) PutContent(ctx context.Context, handle string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contents (handle, data) VALUES (?, ?)
		ON CONFLICT(handle) DO NOTHING
	`, handle, data)
	if err != nil {
		return fmt.Errorf("put content %s: %w", handle, err)
	}
	return nil
}
