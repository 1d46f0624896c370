package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ledger failure so callers can decide whether a
// retry is safe without string-matching remote error messages.
type ErrorKind int

const (
	// Unavailable means the remote endpoint could not be reached. Retryable.
	Unavailable ErrorKind = iota + 1
	// Timeout means no confirmation arrived within the bounded wait. The
	// operation may or may not have taken effect; confirm with a read before
	// retrying a state-changing call.
	Timeout
	// Rejected means the remote explicitly refused the operation. Not
	// retryable without changing inputs.
	Rejected
	// NotFound means the queried entity does not exist on the ledger yet,
	// which usually means "provision first". Distinct from failure.
	NotFound
	// AlreadyExists means the entity is already on the ledger. Provisioning
	// treats it as idempotent success, not an error path.
	AlreadyExists
	// AlreadyVoted means the ledger refused a cast because the voter has a
	// vote recorded. Distinct from Rejected so callers can map it to their
	// own double-vote handling without reading remote error text.
	AlreadyVoted
)

func (k ErrorKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case Timeout:
		return "timeout"
	case Rejected:
		return "rejected"
	case NotFound:
		return "not found"
	case AlreadyExists:
		return "already exists"
	case AlreadyVoted:
		return "already voted"
	}
	return "unknown"
}

// Error is a classified ledger failure. NativeID is populated for
// AlreadyExists when the remote reported the identifier of the existing
// entity, so provisioning can recover it without a follow-up query.
type Error struct {
	Kind     ErrorKind
	Op       string
	NativeID uint64
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger: %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("ledger: %s %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NewAlreadyExists(op string, nativeID uint64) *Error {
	return &Error{Kind: AlreadyExists, Op: op, NativeID: nativeID}
}

// ErrUpdateUnsupported is returned by bindings without vote-update capability.
var ErrUpdateUnsupported = errors.New("ledger: binding does not support vote updates")

func IsKind(err error, kind ErrorKind) bool {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind == kind
	}
	return false
}

func IsUnavailable(err error) bool { return IsKind(err, Unavailable) }

func IsTimeout(err error) bool { return IsKind(err, Timeout) }

func IsRejected(err error) bool { return IsKind(err, Rejected) }

func IsNotFound(err error) bool { return IsKind(err, NotFound) }

func IsAlreadyExists(err error) bool { return IsKind(err, AlreadyExists) }

func IsAlreadyVoted(err error) bool { return IsKind(err, AlreadyVoted) }

// ExistingNativeID extracts the identifier carried by an AlreadyExists error.
func ExistingNativeID(err error) (uint64, bool) {
	var lerr *Error
	if errors.As(err, &lerr) && lerr.Kind == AlreadyExists {
		return lerr.NativeID, true
	}
	return 0, false
}
