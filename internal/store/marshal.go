package store

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
)

// marshalArgs converts an argument object to canonical JSON TEXT for storage.
func marshalArgs(args payload.Object) (string, error) {
	if args == nil {
		args = payload.Object{}
	}
	data, err := payload.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses canonical JSON TEXT back into an argument object.
func unmarshalArgs(data string) (payload.Object, error) {
	if data == "" || data == "{}" {
		return payload.Object{}, nil
	}
	obj, err := payload.Unmarshal([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return obj, nil
}

// marshalAmount stores a uint256 as base-10 TEXT; SQLite integers are 64-bit.
func marshalAmount(v uint256.Int) string {
	return v.Dec()
}

func unmarshalAmount(s string) (uint256.Int, error) {
	v, err := safemath.ParseDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("unmarshal amount %q: %w", s, err)
	}
	return v, nil
}
