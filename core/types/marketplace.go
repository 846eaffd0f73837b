package types

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/relicmarket/marketplace-go/core/util"
)

// IMarketplace provides the marketplace ledger surface: listing lifecycle,
// direct-sale settlement, and the auction/bid lifecycle. Every mutator
// executes as one atomic unit — either all effects (asset transfer, fund
// transfers, record deletion, events) apply, or none do.
type IMarketplace interface {
	// ═══════════════════════════════════════════════════════════════
	// LISTING LIFECYCLE
	// ═══════════════════════════════════════════════════════════════

	// List creates a listing and returns its id. The ledger must already
	// hold transfer approval for the asset; it does not take custody.
	List(ctx context.Context, input ListInput) (uint64, error)

	// Delist deletes a listing. Seller only.
	Delist(ctx context.Context, input DelistInput) error

	// PauseSale clears ForSale. Fails if the listing is already not for sale.
	PauseSale(ctx context.Context, input PauseSaleInput) error

	// UnpauseSale sets ForSale. Fails if the listing is already for sale.
	UnpauseSale(ctx context.Context, input UnpauseSaleInput) error

	// ChangePrice updates the listing price unconditionally. Seller only.
	ChangePrice(ctx context.Context, input ChangePriceInput) error

	// ToggleAuctionMode flips a for-sale listing into auction mode and
	// vice versa. It does not touch AuctionEndTime: a listing toggled
	// into auction mode keeps whatever end time it had, so the seller
	// must call ExtendAuctionEndTime afterwards or the auction may be
	// already expired (zero or stale end time).
	ToggleAuctionMode(ctx context.Context, input ToggleAuctionInput) error

	// ExtendAuctionEndTime moves the auction deadline. Seller only;
	// listing must be on auction; the new deadline must not be in the past.
	ExtendAuctionEndTime(ctx context.Context, input ExtendAuctionInput) error

	// ═══════════════════════════════════════════════════════════════
	// DIRECT-SALE SETTLEMENT
	// ═══════════════════════════════════════════════════════════════

	// Buy settles a for-sale listing at exactly its price. Royalty is
	// routed to the rights-holder when the collection declares the
	// capability; a failed royalty payment aborts the whole purchase.
	Buy(ctx context.Context, input BuyInput) error

	// ═══════════════════════════════════════════════════════════════
	// AUCTION / BID LIFECYCLE
	// ═══════════════════════════════════════════════════════════════

	// PlaceBid escrows payment and appends a bid. Any number of live
	// bids per listing are allowed; no ordering is enforced.
	PlaceBid(ctx context.Context, input PlaceBidInput) (uint64, error)

	// WithdrawBid refunds a live bid to its bidder and zeroes the slot.
	WithdrawBid(ctx context.Context, input WithdrawBidInput) error

	// AcceptBid settles an auction listing against one live bid, chosen
	// by the seller. A zero/burn royalty receiver forfeits the royalty
	// instead of aborting.
	AcceptBid(ctx context.Context, input AcceptBidInput) error

	// ═══════════════════════════════════════════════════════════════
	// QUERIES (available while paused)
	// ═══════════════════════════════════════════════════════════════

	// GetListing returns a listing by id; found is false for deleted or
	// never-allocated ids.
	GetListing(ctx context.Context, listingID uint64) (Listing, bool)

	// GetListingState returns the lifecycle flags of a listing.
	GetListingState(ctx context.Context, listingID uint64) (ListingState, bool)

	// GetBid returns a bid by slot id; found is false for zeroed slots.
	GetBid(ctx context.Context, bidID uint64) (Bid, bool)

	// ListListings returns a page of live listings with optional filters.
	ListListings(ctx context.Context, input ListListingsInput) ([]ListingSummary, error)

	// BidsForListing returns the live bids targeting a listing, in slot order.
	BidsForListing(ctx context.Context, listingID uint64) []Bid

	// HeldBalance returns the total value the ledger currently holds in
	// escrow for live bids.
	HeldBalance(ctx context.Context) *apd.Decimal

	// ═══════════════════════════════════════════════════════════════
	// ADMINISTRATION
	// ═══════════════════════════════════════════════════════════════

	// Pause gates all state-mutating entry points. Admin only.
	Pause(ctx context.Context, caller util.EthereumAddress) error

	// Unpause reopens state-mutating entry points. Admin only.
	Unpause(ctx context.Context, caller util.EthereumAddress) error

	// TransferAdmin hands the admin role to a new address. Admin only.
	TransferAdmin(ctx context.Context, caller, newAdmin util.EthereumAddress) error

	// SubscribeEvents returns a channel of ledger events and a cancel
	// function that deregisters the subscription and closes the channel.
	SubscribeEvents() (<-chan Event, func())
}

// ListListingsInput contains parameters for paging through live listings.
type ListListingsInput struct {
	ForSale   *bool // nil=all, true=direct-sale only, false=exclude direct-sale
	OnAuction *bool // nil=all, true=auction only, false=exclude auctions
	Limit     *int  // max results (default 100, max 100)
	Offset    *int  // skip N results (default 0)
}

// Validate checks if ListListingsInput is valid.
func (l *ListListingsInput) Validate() error {
	if l.Limit != nil && (*l.Limit < 1 || *l.Limit > 100) {
		return fmt.Errorf("limit must be between 1 and 100, got %d", *l.Limit)
	}
	if l.Offset != nil && *l.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", *l.Offset)
	}
	return nil
}

// ListingSummary is a listing joined with its lifecycle state, as returned
// by ListListings.
type ListingSummary struct {
	Listing
	State ListingState
}
