package blockchain

import "github.com/pkg/errors"

// Kind classifies an error the Block Processor or Chain Coordinator can
// raise, per spec.md §7's recovery rules: transient kinds retry on the
// triggering external event, permanent kinds are logged once and
// discarded, fatal kinds propagate to the coordinator's shutdown.
type Kind int

const (
	// UnknownParent is transient: the block is parked in the orphan pool
	// until its parent arrives.
	UnknownParent Kind = iota
	// InvalidBlock is permanent: state-transition failure, bad signature,
	// or slot ordering violation. The block bytes are discarded.
	InvalidBlock
	// FutureSlot is transient: the block is deferred until the clock
	// advances to slot - MaxFutureSlots.
	FutureSlot
	// InvalidAttestation is permanent: the attestation is discarded.
	InvalidAttestation
	// StorageFault is fatal at the subsystem level; the coordinator
	// initiates Stop.
	StorageFault
	// GenesisMismatch is fatal; the operator must wipe storage.
	GenesisMismatch
	// ConfigMismatch is fatal on startup.
	ConfigMismatch
)

func (k Kind) String() string {
	switch k {
	case UnknownParent:
		return "UnknownParent"
	case InvalidBlock:
		return "InvalidBlock"
	case FutureSlot:
		return "FutureSlot"
	case InvalidAttestation:
		return "InvalidAttestation"
	case StorageFault:
		return "StorageFault"
	case GenesisMismatch:
		return "GenesisMismatch"
	case ConfigMismatch:
		return "ConfigMismatch"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with its Kind, so callers up the stack
// (principally the Chain Coordinator) can branch on recovery strategy
// without string-matching error messages.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// newError wraps cause with kind and msg, matching the teacher's
// errors.Wrap convention.
func newError(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, cause: errors.Wrap(cause, msg)}
}

// IsFatal reports whether kind should cause the Chain Coordinator to stop
// the subsystem.
func IsFatal(kind Kind) bool {
	switch kind {
	case StorageFault, GenesisMismatch, ConfigMismatch:
		return true
	default:
		return false
	}
}

// IsTransient reports whether kind should be retried on the triggering
// external event rather than discarded.
func IsTransient(kind Kind) bool {
	switch kind {
	case UnknownParent, FutureSlot:
		return true
	default:
		return false
	}
}
