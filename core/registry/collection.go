package registry

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Collection issues assets out of a bounded supply and declares the royalty
// capability: a fixed basis-point share of every sale routed to one
// rights-holder.
type Collection struct {
	table      assetTable
	maxSupply  uint64
	royaltyTo  util.EthereumAddress
	royaltyBps int64
}

var (
	_ types.AssetRegistry   = (*Collection)(nil)
	_ types.RoyaltyProvider = (*Collection)(nil)
)

// NewCollection creates a collection capped at maxSupply assets, routing
// royaltyBps (0-10000) of every sale to receiver.
func NewCollection(maxSupply uint64, receiver util.EthereumAddress, royaltyBps int64) (*Collection, error) {
	if maxSupply == 0 {
		return nil, errors.Wrap(types.ErrInvalidInput, "max supply must be positive")
	}
	if royaltyBps < 0 || royaltyBps > 10000 {
		return nil, errors.Wrapf(types.ErrInvalidInput, "royalty must be between 0 and 10000 basis points, got %d", royaltyBps)
	}
	return &Collection{
		table:      newAssetTable(),
		maxSupply:  maxSupply,
		royaltyTo:  receiver,
		royaltyBps: royaltyBps,
	}, nil
}

// Mint issues the next asset in the collection to the caller. Fails once
// the supply cap is reached.
func (c *Collection) Mint(ctx context.Context, caller util.EthereumAddress) (uint64, error) {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	if c.table.nextID >= c.maxSupply {
		return 0, errors.Wrapf(types.ErrInvalidState, "collection supply cap of %d reached", c.maxSupply)
	}
	return c.table.mint(caller)
}

// TotalSupply returns the number of assets minted so far.
func (c *Collection) TotalSupply() uint64 {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	return c.table.nextID
}

// MaxSupply returns the supply cap.
func (c *Collection) MaxSupply() uint64 {
	return c.maxSupply
}

// OwnerOf returns the current owner of an asset.
func (c *Collection) OwnerOf(ctx context.Context, assetID uint64) (util.EthereumAddress, error) {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	return c.table.ownerOf(assetID)
}

// Approve grants operator transfer rights over one asset. Owner only.
func (c *Collection) Approve(ctx context.Context, caller, operator util.EthereumAddress, assetID uint64) error {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	return c.table.approve(caller, operator, assetID)
}

// IsApprovedForTransfer reports whether operator may transfer the asset.
func (c *Collection) IsApprovedForTransfer(ctx context.Context, assetID uint64, operator util.EthereumAddress) (bool, error) {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	return c.table.isApproved(assetID, operator)
}

// TransferOwnership moves an asset and clears its approval.
func (c *Collection) TransferOwnership(ctx context.Context, caller, from, to util.EthereumAddress, assetID uint64) error {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	return c.table.transfer(caller, from, to, assetID)
}

// SupportsRoyalty reports the royalty capability.
func (c *Collection) SupportsRoyalty() bool {
	return true
}

// RoyaltyInfo returns the rights-holder and their share of salePrice,
// rounded down.
func (c *Collection) RoyaltyInfo(ctx context.Context, assetID uint64, salePrice *apd.Decimal) (util.EthereumAddress, *apd.Decimal, error) {
	c.table.mu.Lock()
	defer c.table.mu.Unlock()
	if _, ok := c.table.owners[assetID]; !ok {
		return util.EthereumAddress{}, nil, errors.Wrapf(types.ErrInvalidInput, "asset %d does not exist", assetID)
	}
	share, err := util.MulDivBps(salePrice, c.royaltyBps)
	if err != nil {
		return util.EthereumAddress{}, nil, err
	}
	return c.royaltyTo, share, nil
}
