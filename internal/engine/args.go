package engine

import (
	"unicode/utf8"

	"github.com/holiman/uint256"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
)

// argReader decodes call arguments, keeping the first error.
type argReader struct {
	op   Op
	args payload.Object
	err  error
}

func (r *argReader) fail(format string, a ...any) {
	if r.err == nil {
		r.err = invalidCall(r.op, format, a...)
	}
}

func (r *argReader) lookup(key string) (payload.Value, bool) {
	v, ok := r.args[key]
	if !ok {
		r.fail("missing argument %q", key)
	}
	return v, ok
}

func (r *argReader) id(key string) uint64 {
	v, ok := r.lookup(key)
	if !ok {
		return 0
	}
	n, ok := v.(payload.Int)
	if !ok || n < 0 {
		r.fail("argument %q must be a non-negative integer", key)
		return 0
	}
	return uint64(n)
}

// amount accepts a base-10 string, or a non-negative integer for
// convenience in hand-written scenarios.
func (r *argReader) amount(key string) uint256.Int {
	v, ok := r.lookup(key)
	if !ok {
		return uint256.Int{}
	}
	switch x := v.(type) {
	case payload.String:
		n, err := safemath.ParseDecimal(string(x))
		if err != nil {
			r.fail("argument %q: %v", key, err)
		}
		return n
	case payload.Int:
		if x >= 0 {
			return safemath.FromUint64(uint64(x))
		}
	}
	r.fail("argument %q must be a non-negative decimal amount", key)
	return uint256.Int{}
}

func (r *argReader) str(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	s, ok := v.(payload.String)
	if !ok {
		r.fail("argument %q must be a string", key)
		return ""
	}
	if !canonicalText(string(s)) {
		r.fail("argument %q must be NFC-normalized UTF-8", key)
		return ""
	}
	return string(s)
}

// canonicalText reports whether s survives the NFC-normalized event log
// unchanged, so that a principal or name replays to the same bytes.
func canonicalText(s string) bool {
	return utf8.ValidString(s) && norm.NFC.IsNormalString(s)
}

func (r *argReader) principal() market.Principal {
	p := market.Principal(r.str(ArgPrincipal))
	if r.err == nil && p == market.NoPrincipal {
		r.fail("argument %q must not be empty", ArgPrincipal)
	}
	return p
}
