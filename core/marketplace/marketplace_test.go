package marketplace_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/bank"
	"github.com/relicmarket/marketplace-go/core/factory"
	"github.com/relicmarket/marketplace-go/core/marketplace"
	"github.com/relicmarket/marketplace-go/core/registry"
	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

var (
	admin  = util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000a1")
	alice  = util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000a2")
	bob    = util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000a3")
	carol  = util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000a4")
	dave   = util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000a5")
	rights = util.MustNewEthereumAddressFromString("0x00000000000000000000000000000000000000a6")
)

// baseTime anchors the fake clock; auction deadlines in tests are offsets
// from it.
const baseTime int64 = 1_000_000

type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.now, 0)
}

func (c *fakeClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	bank     *bank.Ledger
	fac      *factory.Factory
	market   *marketplace.Marketplace
	coll     *registry.Collection
	collAddr util.EthereumAddress
	clock    *fakeClock
}

// newFixture wires a bank, a factory, a royalty-bearing collection, and a
// marketplace around a fake clock pinned at baseTime.
func newFixture(t *testing.T, royaltyBps int64, royaltyReceiver util.EthereumAddress) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		bank:  bank.NewLedger(),
		clock: &fakeClock{now: baseTime},
	}

	var err error
	f.fac, err = factory.New(admin)
	require.NoError(t, err)

	f.collAddr, f.coll, err = f.fac.DeployCollection([32]byte{1}, 100, royaltyReceiver, royaltyBps)
	require.NoError(t, err)

	_, f.market, err = f.fac.DeployMarketplace([32]byte{2}, admin, f.bank,
		marketplace.WithClock(f.clock.Now),
		marketplace.WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	return f
}

// mintApproved mints a collection asset to owner with transfer approval
// already granted to the ledger.
func (f *fixture) mintApproved(owner util.EthereumAddress) uint64 {
	f.t.Helper()
	id, err := f.coll.Mint(f.ctx, owner)
	require.NoError(f.t, err)
	require.NoError(f.t, f.coll.Approve(f.ctx, owner, f.market.Address(), id))
	return id
}

func (f *fixture) fund(addr util.EthereumAddress, amount int64) {
	f.t.Helper()
	require.NoError(f.t, f.bank.Mint(addr, util.NewAmount(amount)))
}

func (f *fixture) listDirect(seller util.EthereumAddress, assetID uint64, price int64) uint64 {
	f.t.Helper()
	id, err := f.market.List(f.ctx, types.ListInput{
		Caller:     seller,
		Collection: f.collAddr,
		AssetID:    assetID,
		Price:      util.NewAmount(price),
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) listAuction(seller util.EthereumAddress, assetID uint64, price, endTime int64) uint64 {
	f.t.Helper()
	id, err := f.market.List(f.ctx, types.ListInput{
		Caller:         seller,
		Collection:     f.collAddr,
		AssetID:        assetID,
		Price:          util.NewAmount(price),
		AuctionEndTime: endTime,
		IsAuction:      true,
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) requireBalance(addr util.EthereumAddress, want string) {
	f.t.Helper()
	require.Equal(f.t, want, util.FormatAmount(f.bank.BalanceOf(addr)))
}

func (f *fixture) requireOwner(assetID uint64, want util.EthereumAddress) {
	f.t.Helper()
	owner, err := f.coll.OwnerOf(f.ctx, assetID)
	require.NoError(f.t, err)
	require.Equal(f.t, want, owner)
}

// ═══════════════════════════════════════════════════════════════
// ADMINISTRATION
// ═══════════════════════════════════════════════════════════════

func TestPauseGatesMutators(t *testing.T) {
	f := newFixture(t, 0, rights)
	asset := f.mintApproved(alice)
	listingID := f.listDirect(alice, asset, 100)
	f.fund(bob, 100)

	require.NoError(t, f.market.Pause(f.ctx, admin))

	t.Run("mutators are refused", func(t *testing.T) {
		_, err := f.market.List(f.ctx, types.ListInput{
			Caller: alice, Collection: f.collAddr, AssetID: asset, Price: util.NewAmount(1),
		})
		assert.ErrorIs(t, err, types.ErrPaused)

		err = f.market.Buy(f.ctx, types.BuyInput{
			Caller: bob, ListingID: listingID, Receiver: bob, Payment: util.NewAmount(100),
		})
		assert.ErrorIs(t, err, types.ErrPaused)

		_, err = f.market.PlaceBid(f.ctx, types.PlaceBidInput{
			Caller: bob, ListingID: listingID, Amount: util.NewAmount(10), Payment: util.NewAmount(10),
		})
		assert.ErrorIs(t, err, types.ErrPaused)

		err = f.market.Delist(f.ctx, types.DelistInput{Caller: alice, ListingID: listingID})
		assert.ErrorIs(t, err, types.ErrPaused)
	})

	t.Run("queries stay available", func(t *testing.T) {
		l, ok := f.market.GetListing(f.ctx, listingID)
		require.True(t, ok)
		assert.Equal(t, asset, l.AssetID)

		summaries, err := f.market.ListListings(f.ctx, types.ListListingsInput{})
		require.NoError(t, err)
		assert.Len(t, summaries, 1)
	})

	t.Run("double pause fails", func(t *testing.T) {
		assert.ErrorIs(t, f.market.Pause(f.ctx, admin), types.ErrInvalidState)
	})

	t.Run("unpause reopens the ledger", func(t *testing.T) {
		require.NoError(t, f.market.Unpause(f.ctx, admin))
		err := f.market.Buy(f.ctx, types.BuyInput{
			Caller: bob, ListingID: listingID, Receiver: bob, Payment: util.NewAmount(100),
		})
		require.NoError(t, err)
		f.requireOwner(asset, bob)
	})

	t.Run("unpause when open fails", func(t *testing.T) {
		assert.ErrorIs(t, f.market.Unpause(f.ctx, admin), types.ErrInvalidState)
	})
}

func TestPauseAdminOnly(t *testing.T) {
	f := newFixture(t, 0, rights)

	assert.ErrorIs(t, f.market.Pause(f.ctx, alice), types.ErrUnauthorized)
	require.NoError(t, f.market.Pause(f.ctx, admin))
	assert.ErrorIs(t, f.market.Unpause(f.ctx, alice), types.ErrUnauthorized)
}

func TestTransferAdmin(t *testing.T) {
	f := newFixture(t, 0, rights)

	t.Run("non-admin cannot hand over", func(t *testing.T) {
		assert.ErrorIs(t, f.market.TransferAdmin(f.ctx, alice, bob), types.ErrUnauthorized)
	})

	t.Run("zero successor is refused", func(t *testing.T) {
		assert.ErrorIs(t, f.market.TransferAdmin(f.ctx, admin, util.ZeroAddress), types.ErrInvalidInput)
	})

	t.Run("new admin takes over the pause gate", func(t *testing.T) {
		require.NoError(t, f.market.TransferAdmin(f.ctx, admin, bob))
		assert.ErrorIs(t, f.market.Pause(f.ctx, admin), types.ErrUnauthorized)
		require.NoError(t, f.market.Pause(f.ctx, bob))
	})
}

// ═══════════════════════════════════════════════════════════════
// EVENTS
// ═══════════════════════════════════════════════════════════════

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t, 1000, rights)
	asset := f.mintApproved(alice)
	f.fund(bob, 100)

	events, cancel := f.market.SubscribeEvents()
	defer cancel()

	listingID := f.listDirect(alice, asset, 100)
	require.NoError(t, f.market.Buy(f.ctx, types.BuyInput{
		Caller: bob, ListingID: listingID, Receiver: bob, Payment: util.NewAmount(100),
	}))

	listed := <-events
	require.Equal(t, types.EventItemListed, listed.Kind)
	assert.Equal(t, listingID, listed.ListingID)
	assert.Equal(t, asset, listed.AssetID)
	assert.Equal(t, alice, listed.Seller)
	assert.Equal(t, "100", listed.Amount)
	assert.NotEqual(t, "", listed.ID.String())

	sold := <-events
	require.Equal(t, types.EventItemSold, sold.Kind)
	assert.Equal(t, listingID, sold.ListingID)
	assert.Equal(t, bob, sold.Buyer)
	assert.Equal(t, "10", sold.Royalty)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	f := newFixture(t, 0, rights)

	// A full channel must not block settlement.
	events, cancel := f.market.SubscribeEvents()
	defer cancel()
	for i := 0; i < 100; i++ {
		asset := f.mintApproved(alice)
		f.listDirect(alice, asset, 1)
	}
	assert.Len(t, events, cap(events))
}

func TestCancelledSubscriptionStopsReceiving(t *testing.T) {
	f := newFixture(t, 0, rights)

	events, cancel := f.market.SubscribeEvents()

	asset := f.mintApproved(alice)
	f.listDirect(alice, asset, 1)
	ev := <-events
	require.Equal(t, types.EventItemListed, ev.Kind)

	cancel()

	// Events after cancellation never reach the channel; it is closed
	// once drained.
	next := f.mintApproved(alice)
	f.listDirect(alice, next, 1)
	_, open := <-events
	assert.False(t, open)

	// Cancelling twice is harmless, and fresh subscribers still receive.
	cancel()
	again, cancelAgain := f.market.SubscribeEvents()
	defer cancelAgain()
	last := f.mintApproved(alice)
	f.listDirect(alice, last, 1)
	got := <-again
	assert.Equal(t, types.EventItemListed, got.Kind)
}
