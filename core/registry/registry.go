// Package registry implements the two asset issuance components the
// marketplace settles against: a single-edition minter and a bounded-supply
// collection with the royalty capability.
package registry

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// assetTable is the shared ownership and approval state. One approved
// operator per asset; approvals clear on transfer.
type assetTable struct {
	mu        sync.Mutex
	owners    map[uint64]util.EthereumAddress
	approvals map[uint64]util.EthereumAddress
	nextID    uint64
}

func newAssetTable() assetTable {
	return assetTable{
		owners:    make(map[uint64]util.EthereumAddress),
		approvals: make(map[uint64]util.EthereumAddress),
	}
}

func (t *assetTable) mint(owner util.EthereumAddress) (uint64, error) {
	if owner.IsZeroOrBurn() {
		return 0, errors.Wrap(types.ErrInvalidInput, "cannot mint to the zero or burn address")
	}
	t.nextID++
	t.owners[t.nextID] = owner
	return t.nextID, nil
}

func (t *assetTable) ownerOf(assetID uint64) (util.EthereumAddress, error) {
	owner, ok := t.owners[assetID]
	if !ok {
		return util.EthereumAddress{}, errors.Wrapf(types.ErrInvalidInput, "asset %d does not exist", assetID)
	}
	return owner, nil
}

func (t *assetTable) approve(caller, operator util.EthereumAddress, assetID uint64) error {
	owner, ok := t.owners[assetID]
	if !ok {
		return errors.Wrapf(types.ErrInvalidInput, "asset %d does not exist", assetID)
	}
	if caller != owner {
		return errors.Wrapf(types.ErrUnauthorized, "only the owner of asset %d may approve", assetID)
	}
	if operator.IsZero() {
		delete(t.approvals, assetID)
		return nil
	}
	t.approvals[assetID] = operator
	return nil
}

func (t *assetTable) isApproved(assetID uint64, operator util.EthereumAddress) (bool, error) {
	owner, ok := t.owners[assetID]
	if !ok {
		return false, errors.Wrapf(types.ErrInvalidInput, "asset %d does not exist", assetID)
	}
	if operator == owner {
		return true, nil
	}
	return t.approvals[assetID] == operator, nil
}

func (t *assetTable) transfer(caller, from, to util.EthereumAddress, assetID uint64) error {
	owner, ok := t.owners[assetID]
	if !ok {
		return errors.Wrapf(types.ErrTransferFailed, "asset %d does not exist", assetID)
	}
	if owner != from {
		return errors.Wrapf(types.ErrTransferFailed, "%s is not the owner of asset %d", from, assetID)
	}
	if to.IsZero() {
		return errors.Wrap(types.ErrTransferFailed, "cannot transfer to the zero address")
	}
	if caller != owner && t.approvals[assetID] != caller {
		return errors.Wrapf(types.ErrTransferFailed, "caller %s lacks approval for asset %d", caller, assetID)
	}
	t.owners[assetID] = to
	delete(t.approvals, assetID)
	return nil
}
