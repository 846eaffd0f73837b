package types

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/relicmarket/marketplace-go/core/util"
)

// AssetRegistry is the boundary the ledger consumes from an asset issuance
// component. Registry calls are synchronous sub-calls made from within the
// ledger's atomic unit; their failure unwinds the whole operation.
type AssetRegistry interface {
	// OwnerOf returns the current owner of an asset.
	OwnerOf(ctx context.Context, assetID uint64) (util.EthereumAddress, error)

	// TransferOwnership moves an asset. It fails if from is not the
	// current owner or the caller lacks approval.
	TransferOwnership(ctx context.Context, caller, from, to util.EthereumAddress, assetID uint64) error

	// IsApprovedForTransfer reports whether operator may transfer the asset.
	IsApprovedForTransfer(ctx context.Context, assetID uint64, operator util.EthereumAddress) (bool, error)
}

// RoyaltyProvider is the optional capability a registry declares to route a
// share of secondary-sale proceeds to a rights-holder. The ledger discovers
// it by interface assertion on the resolved registry.
type RoyaltyProvider interface {
	// SupportsRoyalty reports whether the registry declares the royalty
	// capability at all.
	SupportsRoyalty() bool

	// RoyaltyInfo returns the rights-holder and amount owed for selling
	// the asset at salePrice.
	RoyaltyInfo(ctx context.Context, assetID uint64, salePrice *apd.Decimal) (util.EthereumAddress, *apd.Decimal, error)
}

// Bank moves fungible value between accounts. A transfer either succeeds
// fully or leaves both balances untouched.
type Bank interface {
	// BalanceOf returns the current balance of an account, zero for
	// unknown accounts.
	BalanceOf(addr util.EthereumAddress) *apd.Decimal

	// Transfer moves amount from one account to the other.
	Transfer(ctx context.Context, from, to util.EthereumAddress, amount *apd.Decimal) error
}

// CollectionResolver maps a collection address to its asset registry.
type CollectionResolver interface {
	Registry(collection util.EthereumAddress) (AssetRegistry, bool)
}
