package types

import "github.com/pkg/errors"

// Every failed operation resolves to exactly one of these categories. The
// engine wraps them with context via pkg/errors, so callers classify with
// errors.Is and surface the wrapped message.
var (
	// ErrUnauthorized: the caller is not the seller, bidder, or admin the
	// operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrListingNotFound: the listing id was never allocated or has been
	// deleted.
	ErrListingNotFound = errors.New("listing not found")

	// ErrBidNotFound: the bid slot was never allocated or has been zeroed.
	ErrBidNotFound = errors.New("bid not found")

	// ErrInvalidState: the listing is in the wrong lifecycle phase for the
	// operation (not for sale, not on auction, already on sale, auction
	// ended, toggled away from auction mode).
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput: zero/burn address, non-future auction end time,
	// payment amount mismatch, or malformed input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransferFailed: an external asset or fund transfer did not
	// succeed; the whole operation has been rolled back.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrPaused: the marketplace admin has paused all state-mutating
	// entry points.
	ErrPaused = errors.New("marketplace paused")
)
