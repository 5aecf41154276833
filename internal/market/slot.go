package market

// slot is one entry of an identifier space: either active with fields, or
// retired. Retired slots keep their position so the identifier is never
// handed out again.
type slot[T any] struct {
	retired bool
	fields  T
}

// slots is an identifier space whose allocator is its length.
type slots[T any] struct {
	items []slot[T]
}

// allocate appends an active slot and returns its identifier.
func (s *slots[T]) allocate(fields T) uint64 {
	s.items = append(s.items, slot[T]{fields: fields})
	return uint64(len(s.items) - 1)
}

// active returns the fields of an active slot for in-place mutation.
func (s *slots[T]) active(id uint64) (*T, bool) {
	if id >= uint64(len(s.items)) || s.items[id].retired {
		return nil, false
	}
	return &s.items[id].fields, true
}

// retire zeroes and retires an active slot.
func (s *slots[T]) retire(id uint64) bool {
	if _, ok := s.active(id); !ok {
		return false
	}
	var zero T
	s.items[id] = slot[T]{retired: true, fields: zero}
	return true
}

// next is the identifier the next allocate will return.
func (s *slots[T]) next() uint64 {
	return uint64(len(s.items))
}
