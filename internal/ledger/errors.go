package ledger

import "errors"

// Engine failure taxonomy. Handlers map these onto HTTP statuses; the
// underlying cause is logged at the boundary and never leaves the process.
var (
	// ErrInvalidInput means a request field was missing or not a finite
	// number. No storage writes were attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransactionFailed means a storage operation or the commit failed.
	// The whole unit was rolled back; no partial state is visible.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNotFound means the ledger has no entries yet.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the backing store is unreachable.
	ErrUnavailable = errors.New("storage unavailable")
)
