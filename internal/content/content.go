// Package content stores product descriptions by content address.
//
// A handle is the CIDv0 string of the data's sha2-256 multihash, so the
// ledger can carry handles as plain strings and any reader can check that
// fetched bytes match the handle they were fetched by.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/roach88/bazaar/internal/store"
)

// MaxSize bounds a single blob.
const MaxSize = 1 << 20

var (
	// ErrNotFound is returned by Get for an unknown handle.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidHandle is returned for a string that is not a CID.
	ErrInvalidHandle = errors.New("invalid content handle")

	// ErrTooLarge is returned by Put for data over MaxSize.
	ErrTooLarge = errors.New("content too large")

	// ErrCorrupt is returned by Get when stored bytes do not hash to the
	// handle.
	ErrCorrupt = errors.New("content does not match handle")
)

// Store is a content-addressed blob store.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, handle string) ([]byte, error)
}

// Backend persists blobs by handle. *store.Store implements it.
type Backend interface {
	PutContent(ctx context.Context, handle string, data []byte) error
	GetContent(ctx context.Context, handle string) ([]byte, error)
}

// Handle computes the handle of data.
func Handle(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return cid.NewCidV0(mh).String(), nil
}

// ParseHandle decodes handle, accepting CIDv0 and CIDv1.
func ParseHandle(handle string) (cid.Cid, error) {
	c, err := cid.Decode(handle)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w %q: %v", ErrInvalidHandle, handle, err)
	}
	return c, nil
}

// key returns the CIDv0 string blobs are stored under. A CIDv1 handle with a
// sha2-256 multihash names the same bytes as its v0 form.
func key(c cid.Cid) string {
	if c.Version() == 0 {
		return c.String()
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil || decoded.Code != multihash.SHA2_256 || decoded.Length != 32 {
		return c.String()
	}
	return cid.NewCidV0(c.Hash()).String()
}

// Check reports whether data hashes to c, using c's hash function.
func Check(c cid.Cid, data []byte) error {
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	sum, err := multihash.Sum(data, decoded.Code, decoded.Length)
	if err != nil {
		return fmt.Errorf("hash content: %w", err)
	}
	if !bytes.Equal(sum, c.Hash()) {
		return fmt.Errorf("%w: %s", ErrCorrupt, c)
	}
	return nil
}

func prepare(data []byte) (string, error) {
	if len(data) > MaxSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return Handle(data)
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, data []byte) (string, error) {
	handle, err := prepare(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[handle]; !ok {
		m.blobs[handle] = bytes.Clone(data)
	}
	return handle, nil
}

func (m *Memory) Get(_ context.Context, handle string) ([]byte, error) {
	c, err := ParseHandle(handle)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.blobs[key(c)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return bytes.Clone(data), nil
}

// Persistent is a Store over a Backend. Reads are verified against the
// handle.
type Persistent struct {
	backend Backend
}

// NewPersistent wraps b.
func NewPersistent(b Backend) *Persistent {
	return &Persistent{backend: b}
}

func (p *Persistent) Put(ctx context.Context, data []byte) (string, error) {
	handle, err := prepare(data)
	if err != nil {
		return "", err
	}
	if err := p.backend.PutContent(ctx, handle, data); err != nil {
		return "", err
	}
	return handle, nil
}

func (p *Persistent) Get(ctx context.Context, handle string) ([]byte, error) {
	c, err := ParseHandle(handle)
	if err != nil {
		return nil, err
	}
	data, err := p.backend.GetContent(ctx, key(c))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	if err := Check(c, data); err != nil {
		return nil, err
	}
	return data, nil
}
