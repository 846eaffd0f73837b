// Package factory deploys marketplace and registry instances at
// deterministic addresses, and resolves collection addresses back to their
// registries for the ledger.
package factory

import (
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/relicmarket/marketplace-go/core/marketplace"
	"github.com/relicmarket/marketplace-go/core/registry"
	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Instance kinds feed the address derivation, so the same salt yields
// distinct addresses for distinct kinds.
const (
	KindSingleEdition = "single-edition"
	KindCollection    = "collection"
	KindMarketplace   = "marketplace"
)

// Factory derives instance addresses as
// keccak256(0xff ‖ deployer ‖ salt ‖ keccak256(kind))[12:], the CREATE2
// scheme. Deploying twice to the same address fails.
type Factory struct {
	deployer util.EthereumAddress

	mu         sync.Mutex
	registries map[util.EthereumAddress]types.AssetRegistry
	markets    map[util.EthereumAddress]*marketplace.Marketplace
}

var _ types.CollectionResolver = (*Factory)(nil)

// New creates a factory owned by deployer.
func New(deployer util.EthereumAddress) (*Factory, error) {
	if deployer.IsZeroOrBurn() {
		return nil, errors.Wrap(types.ErrInvalidInput, "deployer must be a non-zero, non-burn address")
	}
	return &Factory{
		deployer:   deployer,
		registries: make(map[util.EthereumAddress]types.AssetRegistry),
		markets:    make(map[util.EthereumAddress]*marketplace.Marketplace),
	}, nil
}

// DeterministicAddress returns the address a deployment of kind with salt
// would land on, without deploying.
func (f *Factory) DeterministicAddress(salt [32]byte, kind string) util.EthereumAddress {
	h := ethcrypto.Keccak256(
		[]byte{0xff},
		f.deployer.Bytes(),
		salt[:],
		ethcrypto.Keccak256([]byte(kind)),
	)
	addr, err := util.NewEthereumAddressFromBytes(h[12:])
	if err != nil {
		// keccak256 output is always 32 bytes; h[12:] is always 20.
		panic(err)
	}
	return addr
}

// DeploySingleEdition creates a single-edition registry at its
// deterministic address.
func (f *Factory) DeploySingleEdition(salt [32]byte) (util.EthereumAddress, *registry.SingleEdition, error) {
	addr := f.DeterministicAddress(salt, KindSingleEdition)
	reg := registry.NewSingleEdition()
	if err := f.bindRegistry(addr, reg); err != nil {
		return util.EthereumAddress{}, nil, err
	}
	return addr, reg, nil
}

// DeployCollection creates a bounded collection registry at its
// deterministic address.
func (f *Factory) DeployCollection(salt [32]byte, maxSupply uint64, royaltyReceiver util.EthereumAddress, royaltyBps int64) (util.EthereumAddress, *registry.Collection, error) {
	addr := f.DeterministicAddress(salt, KindCollection)
	reg, err := registry.NewCollection(maxSupply, royaltyReceiver, royaltyBps)
	if err != nil {
		return util.EthereumAddress{}, nil, err
	}
	if err := f.bindRegistry(addr, reg); err != nil {
		return util.EthereumAddress{}, nil, err
	}
	return addr, reg, nil
}

// DeployMarketplace creates a marketplace ledger at its deterministic
// address, wired to this factory for collection resolution.
func (f *Factory) DeployMarketplace(salt [32]byte, admin util.EthereumAddress, bank types.Bank, opts ...marketplace.Option) (util.EthereumAddress, *marketplace.Marketplace, error) {
	addr := f.DeterministicAddress(salt, KindMarketplace)

	f.mu.Lock()
	if _, taken := f.markets[addr]; taken {
		f.mu.Unlock()
		return util.EthereumAddress{}, nil, errors.Wrapf(types.ErrInvalidState,
			"address %s already deployed", addr)
	}
	f.mu.Unlock()

	mkt, err := marketplace.New(addr, admin, bank, f, opts...)
	if err != nil {
		return util.EthereumAddress{}, nil, err
	}

	f.mu.Lock()
	f.markets[addr] = mkt
	f.mu.Unlock()
	return addr, mkt, nil
}

// Registry resolves a collection address to its asset registry.
func (f *Factory) Registry(collection util.EthereumAddress) (types.AssetRegistry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registries[collection]
	return reg, ok
}

// Marketplace returns a deployed marketplace by address.
func (f *Factory) Marketplace(addr util.EthereumAddress) (*marketplace.Marketplace, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mkt, ok := f.markets[addr]
	return mkt, ok
}

// RegisterCollection binds an externally constructed registry to an
// address, for collections not deployed through this factory.
func (f *Factory) RegisterCollection(addr util.EthereumAddress, reg types.AssetRegistry) error {
	if addr.IsZeroOrBurn() {
		return errors.Wrap(types.ErrInvalidInput, "collection address must be non-zero and non-burn")
	}
	if reg == nil {
		return errors.Wrap(types.ErrInvalidInput, "registry is required")
	}
	return f.bindRegistry(addr, reg)
}

func (f *Factory) bindRegistry(addr util.EthereumAddress, reg types.AssetRegistry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.registries[addr]; taken {
		return errors.Wrapf(types.ErrInvalidState, "address %s already deployed", addr)
	}
	f.registries[addr] = reg
	return nil
}
