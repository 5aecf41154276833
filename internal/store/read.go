package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/wallet"
)

// ReadEvents returns the events with seq greater than after, ordered by seq.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadEvents(ctx context.Context, after int64) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, args
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ReadCallEvents returns the events emitted by one call, ordered by seq.
func (s *Store) ReadCallEvents(ctx context.Context, callID string) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, args
		FROM events
		WHERE call_id = ?
		ORDER BY seq ASC
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("query call events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	events := []event.Event{}
	for rows.Next() {
		var (
			e        event.Event
			kind     string
			argsJSON string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &kind, &argsJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		args, err := unmarshalArgs(argsJSON)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.Seq, err)
		}
		e.Kind = event.Kind(kind)
		e.Args = args
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadCalls returns up to limit most recent calls, oldest first.
// A limit of zero or less returns every call.
func (s *Store) ReadCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	query := `
		SELECT seq, id, op, caller, args, value, outcome, message FROM (
			SELECT * FROM calls ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []CallRecord{}
	for rows.Next() {
		var (
			c        CallRecord
			argsJSON string
		)
		if err := rows.Scan(&c.Seq, &c.ID, &c.Op, &c.Caller, &argsJSON, &c.Value, &c.Outcome, &c.Message); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		if c.Args, err = unmarshalArgs(argsJSON); err != nil {
			return nil, fmt.Errorf("call %s: %w", c.ID, err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// ReadAccounts returns every stored balance ordered by principal.
func (s *Store) ReadAccounts(ctx context.Context) ([]wallet.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT principal, balance
		FROM accounts
		ORDER BY principal COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []wallet.Account{}
	for rows.Next() {
		var principal, balance string
		if err := rows.Scan(&principal, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		amount, err := unmarshalAmount(balance)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", principal, err)
		}
		accounts = append(accounts, wallet.Account{Principal: market.Principal(principal), Balance: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// Meta returns a metadata value, or ErrNotFound.
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("meta %s: %w", key, err)
	}
	return value, nil
}

// GetContent returns the data stored under handle, or ErrNotFound.
func (s *Store) GetContent(ctx context.Context, handle string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM contents WHERE handle = ?`, handle).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %s: %w", handle, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", handle, err)
	}
	return data, nil
}
