package types

import (
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/relicmarket/marketplace-go/core/util"
)

// EventKind names the ledger event types.
type EventKind string

const (
	EventItemListed      EventKind = "item_listed"
	EventItemDelisted    EventKind = "item_delisted"
	EventPriceChanged    EventKind = "price_changed"
	EventSalePaused      EventKind = "sale_paused"
	EventSaleUnpaused    EventKind = "sale_unpaused"
	EventAuctionToggled  EventKind = "auction_toggled"
	EventAuctionExtended EventKind = "auction_extended"
	EventItemSold        EventKind = "item_sold"
	EventBidPlaced       EventKind = "bid_placed"
	EventBidWithdrawn    EventKind = "bid_withdrawn"
	EventPausedSet       EventKind = "paused_set"
)

// Event is one ledger state transition. Fields not meaningful for a kind
// are left at their zero values.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      EventKind `json:"kind"`
	Time      time.Time `json:"time"`
	ListingID uint64    `json:"listingId,omitempty"`
	BidID     uint64    `json:"bidId,omitempty"`
	AssetID   uint64    `json:"assetId,omitempty"`

	// Address fields always serialize; a zero address marks "not
	// applicable" for the kind.
	Collection util.EthereumAddress `json:"collection"`
	Seller     util.EthereumAddress `json:"seller"`
	Buyer      util.EthereumAddress `json:"buyer"`
	Bidder     util.EthereumAddress `json:"bidder"`

	Amount  string `json:"amount,omitempty"`  // price, bid, or sale amount
	Royalty string `json:"royalty,omitempty"` // royalty share of Amount

	AuctionEndTime int64 `json:"auctionEndTime,omitempty"`
	OnAuction      bool  `json:"onAuction,omitempty"`
	Paused         bool  `json:"paused,omitempty"`
}

// NewEvent stamps a fresh event of the given kind.
func NewEvent(kind EventKind, at time.Time) Event {
	return Event{
		ID:   uuid.New(),
		Kind: kind,
		Time: at,
	}
}

// WithAmount sets the event amount from a decimal.
func (e Event) WithAmount(a *apd.Decimal) Event {
	e.Amount = util.FormatAmount(a)
	return e
}
