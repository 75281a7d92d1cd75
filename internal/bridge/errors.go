package bridge

import "errors"

// Decode failures are terminal: the caller rejects the log record and applies
// no state change, whatever the kind.
var (
	// ErrInvalidRLP marks a raw log whose upstream reconstruction failed.
	ErrInvalidRLP = errors.New("invalid rlp")
	// ErrInvalidData marks bytes the ABI grammar rejects at either layer.
	ErrInvalidData = errors.New("invalid data")
	// ErrInvalidTag marks an unrecognized message discriminant.
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidAddress marks a malformed emitting contract address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidPayload marks a structural mismatch in the decoded tokens:
	// missing token, wrong token kind, or wrong fixed-length size.
	ErrInvalidPayload = errors.New("invalid payload")
)

// ErrorKind names the taxonomy entry err belongs to, or "" for errors outside
// the decode taxonomy.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRLP):
		return "invalid_rlp"
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrInvalidTag):
		return "invalid_tag"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	default:
		return ""
	}
}
