package marketplace_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicmarket/marketplace-go/core/registry"
	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// brokenRegistry wraps a real registry but fails every ownership transfer,
// for exercising settlement rollback.
type brokenRegistry struct {
	*registry.SingleEdition
}

func (b *brokenRegistry) TransferOwnership(ctx context.Context, caller, from, to util.EthereumAddress, assetID uint64) error {
	return errors.New("registry offline")
}

func TestBuyRoyaltySplit(t *testing.T) {
	f := newFixture(t, 1000, rights) // 10%
	asset := f.mintApproved(alice)
	id := f.listDirect(alice, asset, 100)
	f.fund(bob, 100)

	require.NoError(t, f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(100),
	}))

	// Exactly the price leaves the buyer, split 90/10.
	f.requireBalance(bob, "0")
	f.requireBalance(alice, "90")
	f.requireBalance(rights, "10")
	f.requireOwner(asset, bob)

	_, ok := f.market.GetListing(f.ctx, id)
	assert.False(t, ok)
}

func TestBuyWithoutRoyalty(t *testing.T) {
	f := newFixture(t, 0, rights)
	asset := f.mintApproved(alice)
	id := f.listDirect(alice, asset, 100)
	f.fund(bob, 150)

	require.NoError(t, f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(100),
	}))

	f.requireBalance(bob, "50")
	f.requireBalance(alice, "100")
	f.requireBalance(rights, "0")
}

func TestBuyToThirdPartyReceiver(t *testing.T) {
	f := newFixture(t, 0, rights)
	asset := f.mintApproved(alice)
	id := f.listDirect(alice, asset, 100)
	f.fund(bob, 100)

	// Bob pays, Carol receives the asset.
	require.NoError(t, f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: id, Receiver: carol, Payment: util.NewAmount(100),
	}))
	f.requireOwner(asset, carol)
	f.requireBalance(bob, "0")
}

func TestBuyRejections(t *testing.T) {
	f := newFixture(t, 0, rights)
	asset := f.mintApproved(alice)
	id := f.listDirect(alice, asset, 100)
	f.fund(bob, 1000)

	t.Run("payment must match price exactly", func(t *testing.T) {
		err := f.market.Buy(f.ctx, types.BuyInput{
			Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(99),
		})
		assert.ErrorIs(t, err, types.ErrInvalidInput)

		err = f.market.Buy(f.ctx, types.BuyInput{
			Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(101),
		})
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("unknown listing", func(t *testing.T) {
		err := f.market.Buy(f.ctx, types.BuyInput{
			Caller: bob, ListingID: 9999, Receiver: bob, Payment: util.NewAmount(100),
		})
		assert.ErrorIs(t, err, types.ErrListingNotFound)
	})

	t.Run("auction listings cannot be bought", func(t *testing.T) {
		auctionAsset := f.mintApproved(alice)
		auctionID := f.listAuction(alice, auctionAsset, 100, baseTime+3600)

		err := f.market.Buy(f.ctx, types.BuyInput{
			Caller: bob, ListingID: auctionID, Receiver: bob, Payment: util.NewAmount(100),
		})
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("insufficient funds abort cleanly", func(t *testing.T) {
		err := f.market.Buy(f.ctx, types.BuyInput{
			Caller: carol, ListingID: id, Receiver: carol, Payment: util.NewAmount(100),
		})
		assert.ErrorIs(t, err, types.ErrTransferFailed)

		// Listing survives the failed purchase.
		_, ok := f.market.GetListing(f.ctx, id)
		assert.True(t, ok)
	})
}

func TestBuyAbortsWhenRoyaltyUnpayable(t *testing.T) {
	// A direct sale never forfeits royalty: an unroutable rights-holder
	// aborts the whole purchase.
	f := newFixture(t, 1000, util.ZeroAddress)
	asset := f.mintApproved(alice)
	id := f.listDirect(alice, asset, 100)
	f.fund(bob, 100)

	err := f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(100),
	})
	require.ErrorIs(t, err, types.ErrTransferFailed)

	f.requireBalance(bob, "100")
	f.requireBalance(alice, "0")
	f.requireOwner(asset, alice)
	_, ok := f.market.GetListing(f.ctx, id)
	assert.True(t, ok)
}

func TestBuyRollsBackOnAssetTransferFailure(t *testing.T) {
	f := newFixture(t, 0, rights)

	// A registry that accepts listings but fails settlement transfers.
	broken := &brokenRegistry{SingleEdition: registry.NewSingleEdition()}
	brokenAddr := util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000b1")
	require.NoError(t, f.fac.RegisterCollection(brokenAddr, broken))

	asset, err := broken.Mint(f.ctx, alice)
	require.NoError(t, err)
	require.NoError(t, broken.Approve(f.ctx, alice, f.market.Address(), asset))

	id, err := f.market.List(f.ctx, types.ListInput{
		Caller: alice, Collection: brokenAddr, AssetID: asset, Price: util.NewAmount(100),
	})
	require.NoError(t, err)
	f.fund(bob, 100)

	err = f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(100),
	})
	require.ErrorIs(t, err, types.ErrTransferFailed)

	// Every effect unwound: funds back, listing live, asset untouched.
	f.requireBalance(bob, "100")
	f.requireBalance(alice, "0")
	_, ok := f.market.GetListing(f.ctx, id)
	assert.True(t, ok)
	owner, err := broken.OwnerOf(f.ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
}

func TestBuyFullRoyaltyRate(t *testing.T) {
	// 100% royalty routes the whole price to the rights-holder.
	f := newFixture(t, 10000, rights)
	asset := f.mintApproved(alice)
	id := f.listDirect(alice, asset, 100)
	f.fund(bob, 100)

	require.NoError(t, f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: id, Receiver: bob, Payment: util.NewAmount(100),
	}))
	f.requireBalance(rights, "100")
	f.requireBalance(alice, "0")
	f.requireOwner(asset, bob)
}
