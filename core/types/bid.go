package types

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Bid is a bidder's escrowed offer against an auction listing. Bids live in
// an append-only sequence identified by slot position; withdrawal or
// acceptance zeroes the slot in place, it is never compacted.
type Bid struct {
	ID        uint64
	ListingID uint64
	Amount    *apd.Decimal // equals the payment escrowed at bid time
	Bidder    util.EthereumAddress
}

// ═══════════════════════════════════════════════════════════════
// INPUT TYPES - AUCTION / BID LIFECYCLE
// ═══════════════════════════════════════════════════════════════

// PlaceBidInput contains parameters for placing a bid on an auction.
type PlaceBidInput struct {
	Caller    util.EthereumAddress
	ListingID uint64
	Amount    *apd.Decimal
	Payment   *apd.Decimal // must exactly equal Amount; held by the ledger
}

// Validate checks if PlaceBidInput is valid.
func (p *PlaceBidInput) Validate() error {
	if p.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	if p.Amount == nil || !util.AmountIsPositive(p.Amount) {
		return fmt.Errorf("bid amount must be positive")
	}
	if p.Payment == nil || util.AmountIsNegative(p.Payment) {
		return fmt.Errorf("payment must be a non-negative amount")
	}
	return nil
}

// WithdrawBidInput contains parameters for withdrawing a live bid.
type WithdrawBidInput struct {
	Caller util.EthereumAddress
	BidID  uint64
}

// Validate checks if WithdrawBidInput is valid.
func (w *WithdrawBidInput) Validate() error {
	if w.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	return nil
}

// AcceptBidInput contains parameters for a seller accepting a bid. The
// seller may accept any live bid for their listing, not only the highest.
type AcceptBidInput struct {
	Caller util.EthereumAddress
	BidID  uint64
}

// Validate checks if AcceptBidInput is valid.
func (a *AcceptBidInput) Validate() error {
	if a.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	return nil
}
