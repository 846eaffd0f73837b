package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/relicmarket/marketplace-go/core/types"
	"github.com/relicmarket/marketplace-go/core/util"
)

// pathID extracts the {id} route variable.
func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(types.ErrInvalidInput, "invalid id")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(types.ErrInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

func parseCaller(s string) (util.EthereumAddress, error) {
	addr, err := util.NewEthereumAddressFromString(s)
	if err != nil {
		return util.EthereumAddress{}, errors.Wrapf(types.ErrInvalidInput, "caller: %v", err)
	}
	return addr, nil
}

func parseAmountField(name, s string) (*apd.Decimal, error) {
	a, err := util.ParseAmount(s)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidInput, "%s: %v", name, err)
	}
	return a, nil
}

// ═══════════════════════════════════════════════════════════════
// LISTING RESOURCES
// ═══════════════════════════════════════════════════════════════

type listingResponse struct {
	ID             uint64 `json:"listingId"`
	AssetID        uint64 `json:"assetId"`
	Price          string `json:"price"`
	Collection     string `json:"collection"`
	Seller         string `json:"seller"`
	ForSale        bool   `json:"forSale"`
	OnAuction      bool   `json:"onAuction"`
	AuctionEndTime int64  `json:"auctionEndTime"`
}

func listingToResponse(l types.Listing, st types.ListingState) listingResponse {
	return listingResponse{
		ID:             l.ID,
		AssetID:        l.AssetID,
		Price:          util.FormatAmount(l.Price),
		Collection:     l.Collection.Address(),
		Seller:         l.Seller.Address(),
		ForSale:        st.ForSale,
		OnAuction:      st.OnAuction,
		AuctionEndTime: st.AuctionEndTime,
	}
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	var input types.ListListingsInput
	q := r.URL.Query()
	if v := q.Get("forSale"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, errors.Wrap(types.ErrInvalidInput, "forSale must be a boolean"))
			return
		}
		input.ForSale = &b
	}
	if v := q.Get("onAuction"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, errors.Wrap(types.ErrInvalidInput, "onAuction must be a boolean"))
			return
		}
		input.OnAuction = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, errors.Wrap(types.ErrInvalidInput, "limit must be an integer"))
			return
		}
		input.Limit = &n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, errors.Wrap(types.ErrInvalidInput, "offset must be an integer"))
			return
		}
		input.Offset = &n
	}

	summaries, err := s.market.ListListings(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, listingToResponse(sum.Listing, sum.State))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, ok := s.market.GetListing(r.Context(), id)
	if !ok {
		writeError(w, errors.Wrapf(types.ErrListingNotFound, "listing %d", id))
		return
	}
	st, _ := s.market.GetListingState(r.Context(), id)
	writeJSON(w, http.StatusOK, listingToResponse(l, st))
}

type createListingRequest struct {
	Caller         string `json:"caller"`
	Collection     string `json:"collection"`
	AssetID        uint64 `json:"assetId"`
	Price          string `json:"price"`
	AuctionEndTime int64  `json:"auctionEndTime"`
	IsAuction      bool   `json:"isAuction"`
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	collection, err := util.NewEthereumAddressFromString(req.Collection)
	if err != nil {
		writeError(w, errors.Wrapf(types.ErrInvalidInput, "collection: %v", err))
		return
	}
	price, err := parseAmountField("price", req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.market.List(r.Context(), types.ListInput{
		Caller:         caller,
		Collection:     collection,
		AssetID:        req.AssetID,
		Price:          price,
		AuctionEndTime: req.AuctionEndTime,
		IsAuction:      req.IsAuction,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"listingId": id})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) callerOp(w http.ResponseWriter, r *http.Request, op func(id uint64, caller util.EthereumAddress) error) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req callerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(id, caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDelist(w http.ResponseWriter, r *http.Request) {
	s.callerOp(w, r, func(id uint64, caller util.EthereumAddress) error {
		return s.market.Delist(r.Context(), types.DelistInput{Caller: caller, ListingID: id})
	})
}

func (s *Server) handlePauseSale(w http.ResponseWriter, r *http.Request) {
	s.callerOp(w, r, func(id uint64, caller util.EthereumAddress) error {
		return s.market.PauseSale(r.Context(), types.PauseSaleInput{Caller: caller, ListingID: id})
	})
}

func (s *Server) handleUnpauseSale(w http.ResponseWriter, r *http.Request) {
	s.callerOp(w, r, func(id uint64, caller util.EthereumAddress) error {
		return s.market.UnpauseSale(r.Context(), types.UnpauseSaleInput{Caller: caller, ListingID: id})
	})
}

func (s *Server) handleToggleAuction(w http.ResponseWriter, r *http.Request) {
	s.callerOp(w, r, func(id uint64, caller util.EthereumAddress) error {
		return s.market.ToggleAuctionMode(r.Context(), types.ToggleAuctionInput{Caller: caller, ListingID: id})
	})
}

type changePriceRequest struct {
	Caller   string `json:"caller"`
	NewPrice string `json:"newPrice"`
}

func (s *Server) handleChangePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req changePriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	price, err := parseAmountField("newPrice", req.NewPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.market.ChangePrice(r.Context(), types.ChangePriceInput{
		Caller: caller, ListingID: id, NewPrice: price,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extendAuctionRequest struct {
	Caller     string `json:"caller"`
	NewEndTime int64  `json:"newEndTime"`
}

func (s *Server) handleExtendAuction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req extendAuctionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.market.ExtendAuctionEndTime(r.Context(), types.ExtendAuctionInput{
		Caller: caller, ListingID: id, NewEndTime: req.NewEndTime,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ═══════════════════════════════════════════════════════════════
// SETTLEMENT
// ═══════════════════════════════════════════════════════════════

type buyRequest struct {
	Caller   string `json:"caller"`
	Receiver string `json:"receiver"`
	Payment  string `json:"payment"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req buyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	receiver := caller
	if req.Receiver != "" {
		receiver, err = util.NewEthereumAddressFromString(req.Receiver)
		if err != nil {
			writeError(w, errors.Wrapf(types.ErrInvalidInput, "receiver: %v", err))
			return
		}
	}
	payment, err := parseAmountField("payment", req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.market.Buy(r.Context(), types.BuyInput{
		Caller: caller, ListingID: id, Receiver: receiver, Payment: payment,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sold"})
}

// ═══════════════════════════════════════════════════════════════
// BID RESOURCES
// ═══════════════════════════════════════════════════════════════

type bidResponse struct {
	ID        uint64 `json:"bidId"`
	ListingID uint64 `json:"listingId"`
	Amount    string `json:"amount"`
	Bidder    string `json:"bidder"`
}

func bidToResponse(b types.Bid) bidResponse {
	return bidResponse{
		ID:        b.ID,
		ListingID: b.ListingID,
		Amount:    util.FormatAmount(b.Amount),
		Bidder:    b.Bidder.Address(),
	}
}

func (s *Server) handleGetBid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	b, ok := s.market.GetBid(r.Context(), id)
	if !ok {
		writeError(w, errors.Wrapf(types.ErrBidNotFound, "bid %d", id))
		return
	}
	writeJSON(w, http.StatusOK, bidToResponse(b))
}

func (s *Server) handleBidsForListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	bids := s.market.BidsForListing(r.Context(), id)
	out := make([]bidResponse, 0, len(bids))
	bidders := make([]util.EthereumAddress, 0, len(bids))
	for _, b := range bids {
		out = append(out, bidToResponse(b))
		bidders = append(bidders, b.Bidder)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bids":    out,
		"bidders": util.EthereumAddressesToStrings(bidders),
	})
}

type placeBidRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req placeBidRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmountField("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	bidID, err := s.market.PlaceBid(r.Context(), types.PlaceBidInput{
		Caller: caller, ListingID: id, Amount: amount, Payment: amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"bidId": bidID})
}

func (s *Server) handleWithdrawBid(w http.ResponseWriter, r *http.Request) {
	s.callerOp(w, r, func(id uint64, caller util.EthereumAddress) error {
		return s.market.WithdrawBid(r.Context(), types.WithdrawBidInput{Caller: caller, BidID: id})
	})
}

func (s *Server) handleAcceptBid(w http.ResponseWriter, r *http.Request) {
	s.callerOp(w, r, func(id uint64, caller util.EthereumAddress) error {
		return s.market.AcceptBid(r.Context(), types.AcceptBidInput{Caller: caller, BidID: id})
	})
}
