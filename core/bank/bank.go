// Package bank holds the in-memory fund ledger the marketplace settles
// against. A transfer either succeeds fully or leaves balances untouched,
// matching the synchronous sub-call semantics the marketplace relies on.
package bank

import (
	"context"
	"sync"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Ledger is an account table of address -> balance.
type Ledger struct {
	mu       sync.Mutex
	balances map[util.EthereumAddress]*apd.Decimal
}

var _ types.Bank = (*Ledger)(nil)

// NewLedger creates an empty fund ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[util.EthereumAddress]*apd.Decimal),
	}
}

// Mint credits an account out of thin air. Bootstrap and test use only.
func (l *Ledger) Mint(addr util.EthereumAddress, amount *apd.Decimal) error {
	if addr.IsZeroOrBurn() {
		return errors.Wrap(types.ErrInvalidInput, "cannot mint to the zero or burn address")
	}
	if amount == nil || util.AmountIsNegative(amount) {
		return errors.Wrap(types.ErrInvalidInput, "mint amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
	return nil
}

// BalanceOf returns a copy of the account balance, zero for unknown accounts.
func (l *Ledger) BalanceOf(addr util.EthereumAddress) *apd.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return util.CloneAmount(l.balances[addr])
}

// Transfer moves amount between accounts. It fails on zero/burn receivers,
// negative amounts, and insufficient balance, without touching either side.
func (l *Ledger) Transfer(ctx context.Context, from, to util.EthereumAddress, amount *apd.Decimal) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if amount == nil || util.AmountIsNegative(amount) {
		return errors.Wrap(types.ErrInvalidInput, "transfer amount must be non-negative")
	}
	if to.IsZeroOrBurn() {
		return errors.Wrapf(types.ErrTransferFailed, "receiver %s cannot hold funds", to)
	}
	if from.IsZeroOrBurn() {
		return errors.Wrapf(types.ErrTransferFailed, "sender %s cannot hold funds", from)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	have := l.balances[from]
	if have == nil || have.Cmp(amount) < 0 {
		return errors.Wrapf(types.ErrTransferFailed,
			"insufficient balance: %s has %s, needs %s", from, util.FormatAmount(have), util.FormatAmount(amount))
	}

	remaining, err := util.SubAmounts(have, amount)
	if err != nil {
		return errors.WithStack(err)
	}
	l.balances[from] = remaining
	l.credit(to, amount)
	return nil
}

// credit adds amount to an account. Caller holds the lock.
func (l *Ledger) credit(addr util.EthereumAddress, amount *apd.Decimal) {
	cur := l.balances[addr]
	if cur == nil {
		l.balances[addr] = util.CloneAmount(amount)
		return
	}
	sum, err := util.AddAmounts(cur, amount)
	if err != nil {
		// Addition of two finite non-negative 78-digit integers cannot
		// overflow the context.
		panic(err)
	}
	l.balances[addr] = sum
}
