package marketplace

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// royaltyFor asks the collection registry for its royalty cut of salePrice.
// Zero when the registry declares no royalty capability. The cut may never
// exceed the sale price.
func (m *Marketplace) royaltyFor(ctx context.Context, reg types.AssetRegistry, assetID uint64, salePrice *apd.Decimal) (util.EthereumAddress, *apd.Decimal, error) {
	rp, ok := reg.(types.RoyaltyProvider)
	if !ok || !rp.SupportsRoyalty() {
		return util.ZeroAddress, util.NewAmount(0), nil
	}
	receiver, amount, err := rp.RoyaltyInfo(ctx, assetID, salePrice)
	if err != nil {
		return util.ZeroAddress, nil, errors.Wrapf(types.ErrTransferFailed,
			"royalty query for asset %d failed: %v", assetID, err)
	}
	if amount == nil {
		amount = util.NewAmount(0)
	}
	if util.AmountIsNegative(amount) || amount.Cmp(salePrice) > 0 {
		return util.ZeroAddress, nil, errors.Wrapf(types.ErrInvalidState,
			"royalty %s for asset %d exceeds sale price %s",
			util.FormatAmount(amount), assetID, util.FormatAmount(salePrice))
	}
	return receiver, amount, nil
}

// Buy settles a for-sale listing at exactly its price.
//
// Exactly Price leaves the buyer, split between the royalty receiver and
// the seller, and the asset moves once from seller to receiver. Any failed
// step — royalty payment included — rolls the whole purchase back.
func (m *Marketplace) Buy(ctx context.Context, input types.BuyInput) error {
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
	if !st.ForSale {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is not for sale", l.ID)
	}
	if st.OnAuction {
		return errors.Wrapf(types.ErrInvalidState, "listing %d is on auction, use PlaceBid", l.ID)
	}
	if !util.AmountsEqual(input.Payment, l.Price) {
		return errors.Wrapf(types.ErrInvalidInput,
			"payment %s does not match price %s", util.FormatAmount(input.Payment), util.FormatAmount(l.Price))
	}

	reg, err := m.registryFor(l.Collection)
	if err != nil {
		return err
	}
	royaltyTo, royalty, err := m.royaltyFor(ctx, reg, l.AssetID, l.Price)
	if err != nil {
		return err
	}
	sellerShare, err := util.SubAmounts(l.Price, royalty)
	if err != nil {
		return errors.WithStack(err)
	}

	// Fund movements and table mutations are journaled; the asset
	// transfer runs last so any failure unwinds to the pre-call state.
	var j journal
	if util.AmountIsPositive(royalty) {
		if err := m.bank.Transfer(ctx, input.Caller, royaltyTo, royalty); err != nil {
			j.rollback()
			return errors.Wrapf(types.ErrTransferFailed,
				"royalty payment to %s failed: %v", royaltyTo, err)
		}
		j.record(func() { _ = m.bank.Transfer(ctx, royaltyTo, input.Caller, royalty) })
	}
	if err := m.bank.Transfer(ctx, input.Caller, l.Seller, sellerShare); err != nil {
		j.rollback()
		return errors.Wrapf(types.ErrTransferFailed,
			"payment to seller %s failed: %v", l.Seller, err)
	}
	j.record(func() { _ = m.bank.Transfer(ctx, l.Seller, input.Caller, sellerShare) })

	m.deleteListing(&j, l.ID)

	if err := reg.TransferOwnership(ctx, m.address, l.Seller, input.Receiver, l.AssetID); err != nil {
		j.rollback()
		return errors.Wrapf(types.ErrTransferFailed,
			"asset %d transfer failed: %v", l.AssetID, err)
	}

	ev := types.NewEvent(types.EventItemSold, m.now()).WithAmount(l.Price)
	ev.ListingID = l.ID
	ev.AssetID = l.AssetID
	ev.Collection = l.Collection
	ev.Seller = l.Seller
	ev.Buyer = input.Receiver
	ev.Royalty = util.FormatAmount(royalty)
	m.emit(ev)

	m.logger.Info("item sold",
		zap.Uint64("listing_id", l.ID),
		zap.Uint64("asset_id", l.AssetID),
		zap.String("seller", l.Seller.Address()),
		zap.String("buyer", input.Receiver.Address()),
		zap.String("price", util.FormatAmount(l.Price)),
		zap.String("royalty", util.FormatAmount(royalty)),
	)
	return nil
}
