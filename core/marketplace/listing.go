package marketplace

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// List creates a listing and returns its id. The ledger must already hold
// transfer approval for the asset from its registry; the asset itself stays
// with the seller until settlement.
func (m *Marketplace) List(ctx context.Context, input types.ListInput) (uint64, error) {
	if err := input.Validate(); err != nil {
		return 0, errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return 0, err
	}

	reg, err := m.registryFor(input.Collection)
	if err != nil {
		return 0, err
	}
	if input.IsAuction && input.AuctionEndTime <= m.now().Unix() {
		return 0, errors.Wrapf(types.ErrInvalidInput,
			"auction end time %d is not in the future", input.AuctionEndTime)
	}
	approved, err := reg.IsApprovedForTransfer(ctx, input.AssetID, m.address)
	if err != nil {
		return 0, errors.Wrapf(types.ErrInvalidInput, "approval check for asset %d failed: %v", input.AssetID, err)
	}
	if !approved {
		return 0, errors.Wrapf(types.ErrInvalidState,
			"ledger lacks transfer approval for asset %d", input.AssetID)
	}

	m.nextListingID++
	id := m.nextListingID
	m.listings[id] = &types.Listing{
		ID:         id,
		AssetID:    input.AssetID,
		Price:      util.CloneAmount(input.Price),
		Collection: input.Collection,
		Seller:     input.Caller,
	}
	m.states[id] = &types.ListingState{
		AuctionEndTime: input.AuctionEndTime,
		ForSale:        !input.IsAuction,
		OnAuction:      input.IsAuction,
	}

	ev := types.NewEvent(types.EventItemListed, m.now()).WithAmount(input.Price)
	ev.ListingID = id
	ev.AssetID = input.AssetID
	ev.Collection = input.Collection
	ev.Seller = input.Caller
	ev.OnAuction = input.IsAuction
	ev.AuctionEndTime = input.AuctionEndTime
	m.emit(ev)

	m.logger.Info("item listed",
		zap.Uint64("listing_id", id),
		zap.Uint64("asset_id", input.AssetID),
		zap.String("seller", input.Caller.Address()),
		zap.String("price", util.FormatAmount(input.Price)),
		zap.Bool("auction", input.IsAuction),
	)
	return id, nil
}

// Delist deletes a listing and its state. Seller only. The id is never
// reissued.
func (m *Marketplace) Delist(ctx context.Context, input types.DelistInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	l, _, err := m.getListing(input.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may delist listing %d", l.ID)
	}

	delete(m.listings, l.ID)
	delete(m.states, l.ID)

	ev := types.NewEvent(types.EventItemDelisted, m.now())
	ev.ListingID = l.ID
	ev.AssetID = l.AssetID
	ev.Seller = l.Seller
	m.emit(ev)

	m.logger.Info("item delisted", zap.Uint64("listing_id", l.ID))
	return nil
}

// PauseSale takes a listing off direct sale. Seller only; fails if the
// listing is already not for sale.
func (m *Marketplace) PauseSale(ctx context.Context, input types.PauseSaleInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	l, st, err := m.getListing(input.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may pause listing %d", l.ID)
	}
	if !st.ForSale {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is already not for sale", l.ID)
	}
	st.ForSale = false

	ev := types.NewEvent(types.EventSalePaused, m.now())
	ev.ListingID = l.ID
	m.emit(ev)
	return nil
}

// UnpauseSale puts a listing back on direct sale. Seller only; fails if
// already for sale or while the listing is in auction mode (ForSale and
// OnAuction are never both set).
func (m *Marketplace) UnpauseSale(ctx context.Context, input types.UnpauseSaleInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	l, st, err := m.getListing(input.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may unpause listing %d", l.ID)
	}
	if st.ForSale {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is already for sale", l.ID)
	}
	if st.OnAuction {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is on auction", l.ID)
	}
	st.ForSale = true

	ev := types.NewEvent(types.EventSaleUnpaused, m.now())
	ev.ListingID = l.ID
	m.emit(ev)
	return nil
}

// ChangePrice updates the listing price unconditionally. Seller only.
func (m *Marketplace) ChangePrice(ctx context.Context, input types.ChangePriceInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	l, _, err := m.getListing(input.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may reprice listing %d", l.ID)
	}
	l.Price = util.CloneAmount(input.NewPrice)

	ev := types.NewEvent(types.EventPriceChanged, m.now()).WithAmount(input.NewPrice)
	ev.ListingID = l.ID
	m.emit(ev)
	return nil
}

// ToggleAuctionMode flips a for-sale listing into auction mode. Seller
// only; requires ForSale, so a listing already on auction cannot be toggled
// back (delist and relist instead).
//
// The auction end time is deliberately left untouched: a listing toggled
// into auction mode keeps whatever end time it was created with, which may
// be zero or stale. Callers must follow up with ExtendAuctionEndTime, or
// the auction is already expired.
func (m *Marketplace) ToggleAuctionMode(ctx context.Context, input types.ToggleAuctionInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	l, st, err := m.getListing(input.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may toggle listing %d", l.ID)
	}
	if !st.ForSale {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is not for sale", l.ID)
	}
	st.ForSale = !st.ForSale
	st.OnAuction = !st.OnAuction

	ev := types.NewEvent(types.EventAuctionToggled, m.now())
	ev.ListingID = l.ID
	ev.OnAuction = st.OnAuction
	ev.AuctionEndTime = st.AuctionEndTime
	m.emit(ev)

	m.logger.Info("listing toggled to auction mode",
		zap.Uint64("listing_id", l.ID),
		zap.Int64("auction_end_time", st.AuctionEndTime),
	)
	return nil
}

// ExtendAuctionEndTime moves the auction deadline. Seller only; the
// listing must be on auction and the new deadline must not be in the past.
func (m *Marketplace) ExtendAuctionEndTime(ctx context.Context, input types.ExtendAuctionInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	l, st, err := m.getListing(input.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may extend listing %d", l.ID)
	}
	if !st.OnAuction {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is not on auction", l.ID)
	}
	if input.NewEndTime < m.now().Unix() {
		return errors.Wrapf(types.ErrInvalidInput, "new end time %d is in the past", input.NewEndTime)
	}
	st.AuctionEndTime = input.NewEndTime

	ev := types.NewEvent(types.EventAuctionExtended, m.now())
	ev.ListingID = l.ID
	ev.AuctionEndTime = input.NewEndTime
	m.emit(ev)
	return nil
}
