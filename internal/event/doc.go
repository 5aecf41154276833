// Package event implements the marketplace event stream.
//
// Every successful mutating call appends exactly one Event to the Log. Events
// are stamped with a strictly increasing sequence number from a logical Clock,
// never a wall-clock time, so replaying a stored log reproduces the same
// order and the same event IDs.
//
// Observers subscribe from the beginning of history: Subscribe first replays
// every event already in the log and then delivers new appends in order. The
// client mirror and the persistence layer are both observers.
package event
