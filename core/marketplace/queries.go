package marketplace

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Read-only queries. All remain available while the marketplace is paused.

// GetListing returns a listing by id. found is false for deleted or
// never-allocated ids.
func (m *Marketplace) GetListing(ctx context.Context, listingID uint64) (types.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[listingID]
	if !ok {
		return types.Listing{}, false
	}
	out := *l
	out.Price = util.CloneAmount(l.Price)
	return out, true
}

// GetListingState returns the lifecycle flags of a listing.
func (m *Marketplace) GetListingState(ctx context.Context, listingID uint64) (types.ListingState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[listingID]
	if !ok {
		return types.ListingState{}, false
	}
	return *st, true
}

// GetBid returns a bid by slot id. found is false for zeroed slots.
func (m *Marketplace) GetBid(ctx context.Context, bidID uint64) (types.Bid, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bidID == 0 || bidID > uint64(len(m.bids)) || m.bids[bidID-1] == nil {
		return types.Bid{}, false
	}
	b := *m.bids[bidID-1]
	b.Amount = util.CloneAmount(b.Amount)
	return b, true
}

// ListListings returns a page of live listings in id order, with optional
// for-sale / on-auction filters.
func (m *Marketplace) ListListings(ctx context.Context, input types.ListListingsInput) ([]types.ListingSummary, error) {
	if err := input.Validate(); err != nil {
		return nil, errors.Wrap(types.ErrInvalidInput, err.Error())
	}
	limit := 100
	if input.Limit != nil {
		limit = *input.Limit
	}
	offset := 0
	if input.Offset != nil {
		offset = *input.Offset
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.ListingSummary, 0, limit)
	skipped := 0
	for id := uint64(1); id <= m.nextListingID && len(out) < limit; id++ {
		l, ok := m.listings[id]
		if !ok {
			continue
		}
		st := m.states[id]
		if input.ForSale != nil && st.ForSale != *input.ForSale {
			continue
		}
		if input.OnAuction != nil && st.OnAuction != *input.OnAuction {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		cp := *l
		cp.Price = util.CloneAmount(l.Price)
		out = append(out, types.ListingSummary{Listing: cp, State: *st})
	}
	return out, nil
}

// BidsForListing returns the live bids targeting a listing, in slot order.
func (m *Marketplace) BidsForListing(ctx context.Context, listingID uint64) []types.Bid {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Bid
	for _, b := range m.bids {
		if b == nil || b.ListingID != listingID {
			continue
		}
		cp := *b
		cp.Amount = util.CloneAmount(b.Amount)
		out = append(out, cp)
	}
	return out
}

// HeldBalance returns the total value the ledger holds in escrow for live
// bids (its own bank balance).
func (m *Marketplace) HeldBalance(ctx context.Context) *apd.Decimal {
	return m.bank.BalanceOf(m.address)
}
