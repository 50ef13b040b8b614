package domain

import "errors"

// Kind classifies ledger errors so callers can branch on the outcome explicitly.
type Kind uint8

// Error kinds.
const (
	KindInternal Kind = iota
	KindInvalidRequest
	KindNotFound
	KindConflict
	KindTransferFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransferFailed:
		return "transfer_failed"
	default:
		return "internal"
	}
}

var (
	// ErrInvalidRequest indicates malformed or missing caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound indicates that the referenced entity does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates that the store refused the change in the current ledger state.
	ErrConflict = errors.New("conflict")
	// ErrTransferFailed indicates a failure inside the multi-step transfer sequence.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrInternal indicates an unclassified store or server failure.
	ErrInternal = errors.New("internal")
)

// kindError is a specific error that belongs to one of the kinds above.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// KindOf reports the kind of err.
//
// TransferFailed is checked first because a TransferError also unwraps to its cause.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrTransferFailed):
		return KindTransferFailed
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
