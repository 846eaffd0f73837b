package registry

import (
	"context"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// SingleEdition issues one-off assets with sequential ids. It declares no
// royalty capability.
type SingleEdition struct {
	table assetTable
}

var _ types.AssetRegistry = (*SingleEdition)(nil)

// NewSingleEdition creates an empty single-edition registry.
func NewSingleEdition() *SingleEdition {
	return &SingleEdition{table: newAssetTable()}
}

// Mint issues a new asset owned by the caller and returns its id.
func (r *SingleEdition) Mint(ctx context.Context, caller util.EthereumAddress) (uint64, error) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	return r.table.mint(caller)
}

// OwnerOf returns the current owner of an asset.
func (r *SingleEdition) OwnerOf(ctx context.Context, assetID uint64) (util.EthereumAddress, error) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	return r.table.ownerOf(assetID)
}

// Approve grants operator transfer rights over one asset. Owner only;
// approving the zero address clears any grant.
func (r *SingleEdition) Approve(ctx context.Context, caller, operator util.EthereumAddress, assetID uint64) error {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	return r.table.approve(caller, operator, assetID)
}

// IsApprovedForTransfer reports whether operator may transfer the asset.
func (r *SingleEdition) IsApprovedForTransfer(ctx context.Context, assetID uint64, operator util.EthereumAddress) (bool, error) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	return r.table.isApproved(assetID, operator)
}

// TransferOwnership moves an asset and clears its approval.
func (r *SingleEdition) TransferOwnership(ctx context.Context, caller, from, to util.EthereumAddress, assetID uint64) error {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	return r.table.transfer(caller, from, to, assetID)
}
