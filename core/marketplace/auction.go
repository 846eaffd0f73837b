package marketplace

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// PlaceBid escrows the attached payment with the ledger and appends a bid.
// Duplicate bidders and bids below existing ones are allowed; the seller
// picks which live bid to accept.
func (m *Marketplace) PlaceBid(ctx context.Context, input types.PlaceBidInput) (uint64, error) {
	if err := input.Validate(); err != nil {
		return 0, errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return 0, err
	}

	l, st, err := m.getListing(input.ListingID)
	if err != nil {
		return 0, err
	}
	if !st.OnAuction {
		return 0, errors.Wrapf(types.ErrInvalidState, "listing %d is not on auction", l.ID)
	}
	if m.now().Unix() > st.AuctionEndTime {
		return 0, errors.Wrapf(types.ErrInvalidState,
			"auction for listing %d ended at %d", l.ID, st.AuctionEndTime)
	}
	if !util.AmountsEqual(input.Payment, input.Amount) {
		return 0, errors.Wrapf(types.ErrInvalidInput,
			"payment %s does not match bid amount %s",
			util.FormatAmount(input.Payment), util.FormatAmount(input.Amount))
	}

	if err := m.bank.Transfer(ctx, input.Caller, m.address, input.Amount); err != nil {
		return 0, errors.Wrapf(types.ErrTransferFailed, "bid escrow failed: %v", err)
	}

	bid := &types.Bid{
		ID:        uint64(len(m.bids)) + 1,
		ListingID: l.ID,
		Amount:    util.CloneAmount(input.Amount),
		Bidder:    input.Caller,
	}
	m.bids = append(m.bids, bid)

	ev := types.NewEvent(types.EventBidPlaced, m.now()).WithAmount(bid.Amount)
	ev.ListingID = l.ID
	ev.BidID = bid.ID
	ev.Bidder = bid.Bidder
	m.emit(ev)

	m.logger.Info("bid placed",
		zap.Uint64("listing_id", l.ID),
		zap.Uint64("bid_id", bid.ID),
		zap.String("bidder", bid.Bidder.Address()),
		zap.String("amount", util.FormatAmount(bid.Amount)),
	)
	return bid.ID, nil
}

// WithdrawBid refunds a live bid to its bidder and zeroes the slot. If the
// refund transfer fails the bid stays live and the funds stay held — value
// is never silently dropped.
func (m *Marketplace) WithdrawBid(ctx context.Context, input types.WithdrawBidInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	bid, err := m.getBid(input.BidID)
	if err != nil {
		return err
	}
	if input.Caller != bid.Bidder {
		return errors.Wrapf(types.ErrUnauthorized, "only the bidder may withdraw bid %d", bid.ID)
	}

	if err := m.bank.Transfer(ctx, m.address, bid.Bidder, bid.Amount); err != nil {
		return errors.Wrapf(types.ErrTransferFailed, "bid refund failed: %v", err)
	}
	m.bids[bid.ID-1] = nil

	ev := types.NewEvent(types.EventBidWithdrawn, m.now()).WithAmount(bid.Amount)
	ev.ListingID = bid.ListingID
	ev.BidID = bid.ID
	ev.Bidder = bid.Bidder
	m.emit(ev)

	m.logger.Info("bid withdrawn",
		zap.Uint64("bid_id", bid.ID),
		zap.String("bidder", bid.Bidder.Address()),
	)
	return nil
}

// AcceptBid settles an auction listing against one live bid chosen by the
// seller. The listing must still be on auction: a seller who toggled the
// listing away is refused, and the bid stays withdrawable.
//
// Royalty here is best-effort, unlike Buy: a zero/burn rights-holder — or a
// failing royalty transfer — forfeits the royalty to the ledger vault
// rather than aborting the sale.
func (m *Marketplace) AcceptBid(ctx context.Context, input types.AcceptBidInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(types.ErrInvalidInput, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireOpen(); err != nil {
		return err
	}

	bid, err := m.getBid(input.BidID)
	if err != nil {
		return err
	}
	l, st, err := m.getListing(bid.ListingID)
	if err != nil {
		return err
	}
	if input.Caller != l.Seller {
		return errors.Wrapf(types.ErrUnauthorized, "only the seller may accept bids on listing %d", l.ID)
	}
	if !st.OnAuction {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is no longer on auction", l.ID)
	}

	reg, err := m.registryFor(l.Collection)
	if err != nil {
		return err
	}
	royaltyTo, royalty, err := m.royaltyFor(ctx, reg, l.AssetID, bid.Amount)
	if err != nil {
		return err
	}
	sellerShare, err := util.SubAmounts(bid.Amount, royalty)
	if err != nil {
		return errors.WithStack(err)
	}

	// The bid's escrow is consumed from the vault: seller share first,
	// then the best-effort royalty. The asset transfer runs last so any
	// hard failure unwinds to the pre-call state.
	var j journal
	if err := m.bank.Transfer(ctx, m.address, l.Seller, sellerShare); err != nil {
		return errors.Wrapf(types.ErrTransferFailed,
			"payment to seller %s failed: %v", l.Seller, err)
	}
	j.record(func() { _ = m.bank.Transfer(ctx, l.Seller, m.address, sellerShare) })

	royaltyPaid := false
	if util.AmountIsPositive(royalty) && !royaltyTo.IsZeroOrBurn() {
		if err := m.bank.Transfer(ctx, m.address, royaltyTo, royalty); err != nil {
			// Forfeited: the royalty stays in the vault.
			m.logger.Warn("royalty payment forfeited",
				zap.Uint64("listing_id", l.ID),
				zap.String("receiver", royaltyTo.Address()),
				zap.String("royalty", util.FormatAmount(royalty)),
			)
		} else {
			royaltyPaid = true
			j.record(func() { _ = m.bank.Transfer(ctx, royaltyTo, m.address, royalty) })
		}
	}

	m.deleteListing(&j, l.ID)

	slot := bid.ID - 1
	m.bids[slot] = nil
	j.record(func() { m.bids[slot] = bid })

	if err := reg.TransferOwnership(ctx, m.address, l.Seller, bid.Bidder, l.AssetID); err != nil {
		j.rollback()
		return errors.Wrapf(types.ErrTransferFailed,
			"asset %d transfer failed: %v", l.AssetID, err)
	}

	sold := types.NewEvent(types.EventItemSold, m.now()).WithAmount(bid.Amount)
	sold.ListingID = l.ID
	sold.AssetID = l.AssetID
	sold.Collection = l.Collection
	sold.Seller = l.Seller
	sold.Buyer = bid.Bidder
	if royaltyPaid {
		sold.Royalty = util.FormatAmount(royalty)
	}
	m.emit(sold)

	// The accepted bid's funds are consumed by the sale, no longer
	// separately withdrawable.
	gone := types.NewEvent(types.EventBidWithdrawn, m.now()).WithAmount(bid.Amount)
	gone.ListingID = l.ID
	gone.BidID = bid.ID
	gone.Bidder = bid.Bidder
	m.emit(gone)

	m.logger.Info("bid accepted",
		zap.Uint64("listing_id", l.ID),
		zap.Uint64("bid_id", bid.ID),
		zap.String("seller", l.Seller.Address()),
		zap.String("bidder", bid.Bidder.Address()),
		zap.String("amount", util.FormatAmount(bid.Amount)),
		zap.Bool("royalty_paid", royaltyPaid),
	)
	return nil
}
