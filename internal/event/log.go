package event

import (
	"fmt"
	"sync"

	"github.com/roach88/bazaar/internal/payload"
)

// Observer receives events in sequence order.
//
// Observers run while the log is locked: they must not call back into the
// Log they are subscribed to.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Log is the ordered, append-only event stream.
//
// Append is called by the single writer (the ledger). Readers (Events, Len,
// Subscribe) are safe from any goroutine.
type Log struct {
	mu        sync.RWMutex
	clock     *Clock
	events    []Event
	observers []Observer
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{clock: NewClock()}
}

// Restore creates a log holding previously stored events. The events must be
// contiguous from seq 1 and carry the IDs their content hashes to.
func Restore(events []Event) (*Log, error) {
	for i, e := range events {
		if want := int64(i + 1); e.Seq != want {
			return nil, fmt.Errorf("restore log: event %d has seq %d, want %d", i, e.Seq, want)
		}
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("restore log: seq %d: unknown kind %q", e.Seq, e.Kind)
		}
		id, err := payload.EventID(string(e.Kind), e.Args, e.Seq)
		if err != nil {
			return nil, fmt.Errorf("restore log: seq %d: %w", e.Seq, err)
		}
		if id != e.ID {
			return nil, fmt.Errorf("restore log: seq %d: id mismatch (stored %s, computed %s)", e.Seq, e.ID, id)
		}
	}
	copied := make([]Event, len(events))
	copy(copied, events)
	return &Log{
		clock:  NewClockAt(int64(len(events))),
		events: copied,
	}, nil
}

// Append stamps r with the next sequence number, stores it and notifies
// observers.
func (l *Log) Append(r Record) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.clock.Next()
	id, err := payload.EventID(string(r.Kind), r.Args, seq)
	if err != nil {
		// Records are built from typed constructors; an unencodable one is a
		// programming error.
		panic(fmt.Sprintf("event: %v", err))
	}
	e := Event{Seq: seq, ID: id, Kind: r.Kind, Args: r.Args}
	l.events = append(l.events, e)
	for _, o := range l.observers {
		o.Observe(e)
	}
	return e
}

// Subscribe delivers the full history to o and then every later append.
func (l *Log) Subscribe(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.events {
		o.Observe(e)
	}
	l.observers = append(l.observers, o)
}

// Events returns the events with seq greater than after, in order.
func (l *Log) Events(after int64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if after < 0 {
		after = 0
	}
	if after >= int64(len(l.events)) {
		return []Event{}
	}
	out := make([]Event, int64(len(l.events))-after)
	copy(out, l.events[after:])
	return out
}

// Len returns the number of events, which is also the last seq.
func (l *Log) Len() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.events))
}
