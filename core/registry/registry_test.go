package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

var (
	alice  = util.MustNewEthereumAddressFromString("0x1111111111111111111111111111111111111111")
	bob    = util.MustNewEthereumAddressFromString("0x2222222222222222222222222222222222222222")
	vault  = util.MustNewEthereumAddressFromString("0x3333333333333333333333333333333333333333")
	rights = util.MustNewEthereumAddressFromString("0x4444444444444444444444444444444444444444")
)

func TestSingleEditionMint(t *testing.T) {
	ctx := context.Background()
	reg := NewSingleEdition()

	id1, err := reg.Mint(ctx, alice)
	require.NoError(t, err)
	id2, err := reg.Mint(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)

	owner, err := reg.OwnerOf(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	_, err = reg.OwnerOf(ctx, 99)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = reg.Mint(ctx, util.ZeroAddress)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestApprovals(t *testing.T) {
	ctx := context.Background()
	reg := NewSingleEdition()
	id, err := reg.Mint(ctx, alice)
	require.NoError(t, err)

	t.Run("owner is always approved", func(t *testing.T) {
		ok, err := reg.IsApprovedForTransfer(ctx, id, alice)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("third party starts unapproved", func(t *testing.T) {
		ok, err := reg.IsApprovedForTransfer(ctx, id, vault)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("only the owner may approve", func(t *testing.T) {
		err := reg.Approve(ctx, bob, vault, id)
		assert.ErrorIs(t, err, types.ErrUnauthorized)
	})

	t.Run("approve then clear with zero operator", func(t *testing.T) {
		require.NoError(t, reg.Approve(ctx, alice, vault, id))
		ok, err := reg.IsApprovedForTransfer(ctx, id, vault)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, reg.Approve(ctx, alice, util.ZeroAddress, id))
		ok, err = reg.IsApprovedForTransfer(ctx, id, vault)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, err := reg.IsApprovedForTransfer(ctx, 99, vault)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("approved operator moves the asset and loses approval", func(t *testing.T) {
		reg := NewSingleEdition()
		id, err := reg.Mint(ctx, alice)
		require.NoError(t, err)
		require.NoError(t, reg.Approve(ctx, alice, vault, id))

		require.NoError(t, reg.TransferOwnership(ctx, vault, alice, bob, id))
		owner, err := reg.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, bob, owner)

		// Approval does not survive the transfer.
		err = reg.TransferOwnership(ctx, vault, bob, alice, id)
		assert.ErrorIs(t, err, types.ErrTransferFailed)
	})

	t.Run("unapproved caller is refused", func(t *testing.T) {
		reg := NewSingleEdition()
		id, err := reg.Mint(ctx, alice)
		require.NoError(t, err)
		err = reg.TransferOwnership(ctx, bob, alice, bob, id)
		assert.ErrorIs(t, err, types.ErrTransferFailed)
	})

	t.Run("wrong from is refused", func(t *testing.T) {
		reg := NewSingleEdition()
		id, err := reg.Mint(ctx, alice)
		require.NoError(t, err)
		err = reg.TransferOwnership(ctx, alice, bob, vault, id)
		assert.ErrorIs(t, err, types.ErrTransferFailed)
	})

	t.Run("zero receiver is refused", func(t *testing.T) {
		reg := NewSingleEdition()
		id, err := reg.Mint(ctx, alice)
		require.NoError(t, err)
		err = reg.TransferOwnership(ctx, alice, alice, util.ZeroAddress, id)
		assert.ErrorIs(t, err, types.ErrTransferFailed)
	})
}

func TestCollectionSupplyCap(t *testing.T) {
	ctx := context.Background()
	coll, err := NewCollection(2, rights, 500)
	require.NoError(t, err)

	_, err = coll.Mint(ctx, alice)
	require.NoError(t, err)
	_, err = coll.Mint(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), coll.TotalSupply())
	assert.Equal(t, uint64(2), coll.MaxSupply())

	_, err = coll.Mint(ctx, alice)
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestNewCollectionValidation(t *testing.T) {
	_, err := NewCollection(0, rights, 500)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = NewCollection(10, rights, -1)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = NewCollection(10, rights, 10001)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	// A zero royalty receiver is allowed; the marketplace decides what a
	// sale does with an unroutable royalty.
	_, err = NewCollection(10, util.ZeroAddress, 500)
	assert.NoError(t, err)
}

func TestRoyaltyInfo(t *testing.T) {
	ctx := context.Background()
	coll, err := NewCollection(10, rights, 1000)
	require.NoError(t, err)
	id, err := coll.Mint(ctx, alice)
	require.NoError(t, err)

	assert.True(t, coll.SupportsRoyalty())

	t.Run("ten percent of 100", func(t *testing.T) {
		to, share, err := coll.RoyaltyInfo(ctx, id, util.NewAmount(100))
		require.NoError(t, err)
		assert.Equal(t, rights, to)
		assert.Equal(t, "10", util.FormatAmount(share))
	})

	t.Run("rounds down", func(t *testing.T) {
		_, share, err := coll.RoyaltyInfo(ctx, id, util.NewAmount(99))
		require.NoError(t, err)
		assert.Equal(t, "9", util.FormatAmount(share))
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, _, err := coll.RoyaltyInfo(ctx, 99, util.NewAmount(100))
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})
}
