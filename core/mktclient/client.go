// Package mktclient wraps the marketplace ledger behind a signing identity:
// every operation is issued as the wallet the signer controls.
package mktclient

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kwilteam/kwil-db/core/crypto"
	"github.com/kwilteam/kwil-db/core/crypto/auth"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/logging"
	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// Client issues marketplace operations on behalf of one signer.
type Client struct {
	Signer auth.Signer        `validate:"required"`
	market types.IMarketplace `validate:"required"`
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSigner sets the signing identity.
func WithSigner(signer auth.Signer) Option {
	return func(c *Client) { c.Signer = signer }
}

// WithLogger replaces the default shared logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client bound to a marketplace ledger.
func NewClient(market types.IMarketplace, options ...Option) (*Client, error) {
	c := &Client{market: market, logger: logging.Logger}
	for _, option := range options {
		option(c)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	return c, nil
}

// NewClientFromPrivateKey creates a client from a secp256k1 private key in
// hex form.
func NewClientFromPrivateKey(market types.IMarketplace, hexKey string, options ...Option) (*Client, error) {
	pk, err := crypto.Secp256k1PrivateKeyFromHex(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	options = append([]Option{WithSigner(&auth.EthPersonalSigner{Key: *pk})}, options...)
	return NewClient(market, options...)
}

// Validate checks the client wiring.
func (c *Client) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Address returns the wallet address the signer controls.
func (c *Client) Address() util.EthereumAddress {
	addr, err := auth.EthSecp256k1Authenticator{}.Identifier(c.Signer.Identity())
	if err != nil {
		// should never happen
		logging.Logger.Panic("failed to get address from signer", zap.Error(err))
	}
	address, err := util.NewEthereumAddressFromString(addr)
	if err != nil {
		logging.Logger.Panic("failed to create address from string", zap.Error(err))
	}
	return address
}

// ═══════════════════════════════════════════════════════════════
// LISTING LIFECYCLE
// ═══════════════════════════════════════════════════════════════

// List creates a listing owned by the signer's wallet.
func (c *Client) List(ctx context.Context, input types.ListInput) (uint64, error) {
	input.Caller = c.Address()
	return c.market.List(ctx, input)
}

// Delist removes one of the signer's listings.
func (c *Client) Delist(ctx context.Context, input types.DelistInput) error {
	input.Caller = c.Address()
	return c.market.Delist(ctx, input)
}

// PauseSale takes one of the signer's listings off sale.
func (c *Client) PauseSale(ctx context.Context, input types.PauseSaleInput) error {
	input.Caller = c.Address()
	return c.market.PauseSale(ctx, input)
}

// UnpauseSale puts one of the signer's listings back on sale.
func (c *Client) UnpauseSale(ctx context.Context, input types.UnpauseSaleInput) error {
	input.Caller = c.Address()
	return c.market.UnpauseSale(ctx, input)
}

// ChangePrice reprices one of the signer's listings.
func (c *Client) ChangePrice(ctx context.Context, input types.ChangePriceInput) error {
	input.Caller = c.Address()
	return c.market.ChangePrice(ctx, input)
}

// ToggleAuctionMode flips one of the signer's listings into auction mode.
func (c *Client) ToggleAuctionMode(ctx context.Context, input types.ToggleAuctionInput) error {
	input.Caller = c.Address()
	return c.market.ToggleAuctionMode(ctx, input)
}

// ExtendAuctionEndTime moves the deadline of one of the signer's auctions.
func (c *Client) ExtendAuctionEndTime(ctx context.Context, input types.ExtendAuctionInput) error {
	input.Caller = c.Address()
	return c.market.ExtendAuctionEndTime(ctx, input)
}

// ═══════════════════════════════════════════════════════════════
// SETTLEMENT
// ═══════════════════════════════════════════════════════════════

// Buy settles a direct-sale listing with the signer's funds. An empty
// receiver defaults to the signer's own wallet.
func (c *Client) Buy(ctx context.Context, input types.BuyInput) error {
	input.Caller = c.Address()
	if input.Receiver.IsZero() {
		input.Receiver = input.Caller
	}
	return c.market.Buy(ctx, input)
}

// PlaceBid escrows the signer's funds against an auction listing. An unset
// payment defaults to the bid amount.
func (c *Client) PlaceBid(ctx context.Context, input types.PlaceBidInput) (uint64, error) {
	input.Caller = c.Address()
	if input.Payment == nil {
		input.Payment = input.Amount
	}
	return c.market.PlaceBid(ctx, input)
}

// WithdrawBid refunds one of the signer's live bids.
func (c *Client) WithdrawBid(ctx context.Context, input types.WithdrawBidInput) error {
	input.Caller = c.Address()
	return c.market.WithdrawBid(ctx, input)
}

// AcceptBid accepts a bid on one of the signer's listings.
func (c *Client) AcceptBid(ctx context.Context, input types.AcceptBidInput) error {
	input.Caller = c.Address()
	return c.market.AcceptBid(ctx, input)
}

// ═══════════════════════════════════════════════════════════════
// QUERIES
// ═══════════════════════════════════════════════════════════════

// GetListing returns a listing by id.
func (c *Client) GetListing(ctx context.Context, listingID uint64) (types.Listing, bool) {
	return c.market.GetListing(ctx, listingID)
}

// GetListingState returns a listing's lifecycle flags.
func (c *Client) GetListingState(ctx context.Context, listingID uint64) (types.ListingState, bool) {
	return c.market.GetListingState(ctx, listingID)
}

// GetBid returns a bid by id.
func (c *Client) GetBid(ctx context.Context, bidID uint64) (types.Bid, bool) {
	return c.market.GetBid(ctx, bidID)
}

// ListListings pages through live listings.
func (c *Client) ListListings(ctx context.Context, input types.ListListingsInput) ([]types.ListingSummary, error) {
	return c.market.ListListings(ctx, input)
}
