package types

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Listing is an offer to sell or auction one asset. Ids are assigned from a
// monotonic counter and never reused, even after deletion.
type Listing struct {
	ID         uint64
	AssetID    uint64
	Price      *apd.Decimal // sale price, or reference value while on auction
	Collection util.EthereumAddress
	Seller     util.EthereumAddress
}

// ListingState tracks the lifecycle flags of a listing, stored separately
// from the listing record itself.
//
// ForSale and OnAuction are mutually exclusive outside the instant of an
// explicit toggle: a direct-sale listing starts ForSale, an auction listing
// starts OnAuction.
type ListingState struct {
	AuctionEndTime int64 // unix seconds; 0 when the listing is not an auction
	ForSale        bool
	OnAuction      bool
}

// ═══════════════════════════════════════════════════════════════
// INPUT TYPES - LISTING LIFECYCLE
// ═══════════════════════════════════════════════════════════════

// ListInput contains parameters for creating a listing.
type ListInput struct {
	Caller         util.EthereumAddress // seller; must hold the asset and have approved the ledger
	Collection     util.EthereumAddress // asset registry address
	AssetID        uint64
	Price          *apd.Decimal
	AuctionEndTime int64 // required non-zero and in the future when IsAuction
	IsAuction      bool
}

// Validate checks if ListInput is structurally valid. Temporal checks
// against the ledger clock happen inside the engine.
func (l *ListInput) Validate() error {
	if l.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	if l.Collection.IsZeroOrBurn() {
		return fmt.Errorf("collection must be a non-zero, non-burn address, got %s", l.Collection)
	}
	if l.Price == nil || util.AmountIsNegative(l.Price) {
		return fmt.Errorf("price must be a non-negative amount")
	}
	if l.IsAuction && l.AuctionEndTime == 0 {
		return fmt.Errorf("auction listings require a non-zero end time")
	}
	if l.AuctionEndTime < 0 {
		return fmt.Errorf("auction end time must be non-negative, got %d", l.AuctionEndTime)
	}
	return nil
}

// DelistInput contains parameters for removing a listing.
type DelistInput struct {
	Caller    util.EthereumAddress
	ListingID uint64
}

// Validate checks if DelistInput is valid.
func (d *DelistInput) Validate() error {
	if d.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	return nil
}

// PauseSaleInput contains parameters for pausing a direct sale.
type PauseSaleInput struct {
	Caller    util.EthereumAddress
	ListingID uint64
}

// Validate checks if PauseSaleInput is valid.
func (p *PauseSaleInput) Validate() error {
	if p.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	return nil
}

// UnpauseSaleInput contains parameters for resuming a direct sale.
type UnpauseSaleInput struct {
	Caller    util.EthereumAddress
	ListingID uint64
}

// Validate checks if UnpauseSaleInput is valid.
func (u *UnpauseSaleInput) Validate() error {
	if u.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	return nil
}

// ChangePriceInput contains parameters for repricing a listing.
type ChangePriceInput struct {
	Caller    util.EthereumAddress
	ListingID uint64
	NewPrice  *apd.Decimal
}

// Validate checks if ChangePriceInput is valid.
func (c *ChangePriceInput) Validate() error {
	if c.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	if c.NewPrice == nil || util.AmountIsNegative(c.NewPrice) {
		return fmt.Errorf("new price must be a non-negative amount")
	}
	return nil
}

// ToggleAuctionInput contains parameters for switching a listing between
// direct-sale and auction mode.
type ToggleAuctionInput struct {
	Caller    util.EthereumAddress
	ListingID uint64
}

// Validate checks if ToggleAuctionInput is valid.
func (t *ToggleAuctionInput) Validate() error {
	if t.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	return nil
}

// ExtendAuctionInput contains parameters for moving an auction deadline.
type ExtendAuctionInput struct {
	Caller     util.EthereumAddress
	ListingID  uint64
	NewEndTime int64 // unix seconds; must not be in the past
}

// Validate checks if ExtendAuctionInput is valid.
func (e *ExtendAuctionInput) Validate() error {
	if e.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	if e.NewEndTime <= 0 {
		return fmt.Errorf("new end time must be positive, got %d", e.NewEndTime)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════
// INPUT TYPES - DIRECT-SALE SETTLEMENT
// ═══════════════════════════════════════════════════════════════

// BuyInput contains parameters for settling a direct-sale listing.
type BuyInput struct {
	Caller    util.EthereumAddress // buyer whose funds settle the sale
	ListingID uint64
	Receiver  util.EthereumAddress // new owner of the asset
	Payment   *apd.Decimal         // must exactly equal the listing price
}

// Validate checks if BuyInput is valid.
func (b *BuyInput) Validate() error {
	if b.Caller.IsZeroOrBurn() {
		return fmt.Errorf("caller address is required")
	}
	if b.Receiver.IsZeroOrBurn() {
		return fmt.Errorf("receiver must be a non-zero, non-burn address, got %s", b.Receiver)
	}
	if b.Payment == nil || util.AmountIsNegative(b.Payment) {
		return fmt.Errorf("payment must be a non-negative amount")
	}
	return nil
}
