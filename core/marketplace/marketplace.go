// Package marketplace implements the marketplace ledger: listing lifecycle,
// direct-sale settlement, and the auction/bid lifecycle, with royalty
// routing to rights-holders declared by asset registries.
package marketplace

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/logging"
	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Marketplace is the ledger engine. One mutex serializes every mutator end
// to end: reads, collaborator sub-calls, and writes form a single atomic
// unit. Ledger-local mutations are journaled and the external asset
// transfer is sequenced last, so a failing step unwinds the whole
// operation.
//
// Collaborators (registries, bank) must not call back into the ledger from
// within a sub-call.
type Marketplace struct {
	address  util.EthereumAddress // the ledger's own account; holds bid escrow
	bank     types.Bank
	resolver types.CollectionResolver
	logger   *zap.Logger
	now      func() time.Time

	mu            sync.Mutex
	admin         util.EthereumAddress
	paused        bool
	nextListingID uint64
	listings      map[uint64]*types.Listing
	states        map[uint64]*types.ListingState
	bids          []*types.Bid // slot i holds bid id i+1; nil = zeroed
	subscribers   []chan types.Event
	eventBuf      int
}

var _ types.IMarketplace = (*Marketplace)(nil)

// Option configures a Marketplace.
type Option func(*Marketplace)

// WithLogger replaces the default shared logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Marketplace) { m.logger = l }
}

// WithClock replaces the wall clock, for deterministic deadline tests.
func WithClock(now func() time.Time) Option {
	return func(m *Marketplace) { m.now = now }
}

// WithEventBuffer sets the per-subscriber event channel capacity.
func WithEventBuffer(n int) Option {
	return func(m *Marketplace) {
		if n > 0 {
			m.eventBuf = n
		}
	}
}

// New creates a marketplace ledger. address is the ledger's own bank
// account (bid escrow vault), admin gates the global pause.
func New(address, admin util.EthereumAddress, bank types.Bank, resolver types.CollectionResolver, opts ...Option) (*Marketplace, error) {
	if address.IsZeroOrBurn() {
		return nil, errors.Wrap(types.ErrInvalidInput, "marketplace address must be non-zero and non-burn")
	}
	if admin.IsZeroOrBurn() {
		return nil, errors.Wrap(types.ErrInvalidInput, "admin address must be non-zero and non-burn")
	}
	if bank == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "bank is required")
	}
	if resolver == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "collection resolver is required")
	}
	m := &Marketplace{
		address:  address,
		admin:    admin,
		bank:     bank,
		resolver: resolver,
		logger:   logging.Logger,
		now:      time.Now,
		listings: make(map[uint64]*types.Listing),
		states:   make(map[uint64]*types.ListingState),
		eventBuf: 64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Address returns the ledger's own account address.
func (m *Marketplace) Address() util.EthereumAddress {
	return m.address
}

// ═══════════════════════════════════════════════════════════════
// ADMINISTRATION
// ═══════════════════════════════════════════════════════════════

// Pause gates all state-mutating entry points. Admin only. Read-only
// queries remain available while paused.
func (m *Marketplace) Pause(ctx context.Context, caller util.EthereumAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.admin {
		return errors.Wrap(types.ErrUnauthorized, "only the admin may pause")
	}
	if m.paused {
		return errors.Wrap(types.ErrInvalidState, "already paused")
	}
	m.paused = true
	ev := types.NewEvent(types.EventPausedSet, m.now())
	ev.Paused = true
	m.emit(ev)
	m.logger.Info("marketplace paused", zap.String("admin", caller.Address()))
	return nil
}

// Unpause reopens state-mutating entry points. Admin only.
func (m *Marketplace) Unpause(ctx context.Context, caller util.EthereumAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.admin {
		return errors.Wrap(types.ErrUnauthorized, "only the admin may unpause")
	}
	if !m.paused {
		return errors.Wrap(types.ErrInvalidState, "not paused")
	}
	m.paused = false
	ev := types.NewEvent(types.EventPausedSet, m.now())
	ev.Paused = false
	m.emit(ev)
	m.logger.Info("marketplace unpaused", zap.String("admin", caller.Address()))
	return nil
}

// TransferAdmin hands the admin role to a new address. Admin only.
func (m *Marketplace) TransferAdmin(ctx context.Context, caller, newAdmin util.EthereumAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.admin {
		return errors.Wrap(types.ErrUnauthorized, "only the admin may transfer the admin role")
	}
	if newAdmin.IsZeroOrBurn() {
		return errors.Wrap(types.ErrInvalidInput, "new admin must be a non-zero, non-burn address")
	}
	m.admin = newAdmin
	m.logger.Info("admin transferred",
		zap.String("from", caller.Address()),
		zap.String("to", newAdmin.Address()),
	)
	return nil
}

// requireOpen fails mutators while the global pause is set. Caller holds
// the lock.
func (m *Marketplace) requireOpen() error {
	if m.paused {
		return errors.WithStack(types.ErrPaused)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════
// EVENTS
// ═══════════════════════════════════════════════════════════════

// SubscribeEvents returns a channel receiving every ledger event, plus a
// cancel function that deregisters the subscription and closes the channel.
// Slow subscribers drop events rather than blocking settlement.
func (m *Marketplace) SubscribeEvents() (<-chan types.Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan types.Event, m.eventBuf)
	m.subscribers = append(m.subscribers, ch)
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub == ch {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// emit fans an event out to subscribers. Caller holds the lock.
func (m *Marketplace) emit(ev types.Event) {
	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ═══════════════════════════════════════════════════════════════
// INTERNAL HELPERS
// ═══════════════════════════════════════════════════════════════

// journal collects undo steps for the operation in flight. rollback runs
// them in reverse so a failed late step restores the pre-operation state.
type journal struct {
	undos []func()
}

func (j *journal) record(undo func()) {
	j.undos = append(j.undos, undo)
}

func (j *journal) rollback() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
}

// getListing fetches a live listing and its state. Caller holds the lock.
func (m *Marketplace) getListing(listingID uint64) (*types.Listing, *types.ListingState, error) {
	l, ok := m.listings[listingID]
	if !ok {
		return nil, nil, errors.Wrapf(types.ErrListingNotFound, "listing %d", listingID)
	}
	return l, m.states[listingID], nil
}

// getBid fetches a live bid by slot id. Caller holds the lock.
func (m *Marketplace) getBid(bidID uint64) (*types.Bid, error) {
	if bidID == 0 || bidID > uint64(len(m.bids)) || m.bids[bidID-1] == nil {
		return nil, errors.Wrapf(types.ErrBidNotFound, "bid %d", bidID)
	}
	return m.bids[bidID-1], nil
}

// registryFor resolves the collection's asset registry.
func (m *Marketplace) registryFor(collection util.EthereumAddress) (types.AssetRegistry, error) {
	reg, ok := m.resolver.Registry(collection)
	if !ok {
		return nil, errors.Wrapf(types.ErrInvalidInput, "collection %s is not a known asset registry", collection)
	}
	return reg, nil
}

// deleteListing removes a listing and its state, journaling restoration.
// Caller holds the lock.
func (m *Marketplace) deleteListing(j *journal, listingID uint64) {
	l := m.listings[listingID]
	st := m.states[listingID]
	delete(m.listings, listingID)
	delete(m.states, listingID)
	j.record(func() {
		m.listings[listingID] = l
		m.states[listingID] = st
	})
}
