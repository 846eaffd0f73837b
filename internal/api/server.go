// Package api exposes the marketplace ledger over HTTP plus a websocket
// event feed.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relicmarket/marketplace-go/core/types"
)

// Server routes HTTP requests into the ledger.
type Server struct {
	market types.IMarketplace
	logger *zap.Logger
	router *mux.Router
}

// NewServer builds the router.
func NewServer(market types.IMarketplace, logger *zap.Logger) *Server {
	s := &Server{
		market: market,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.requestLogging)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1.HandleFunc("/listings", s.handleListListings).Methods(http.MethodGet)
	v1.HandleFunc("/listings", s.handleCreateListing).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}", s.handleGetListing).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{id:[0-9]+}/delist", s.handleDelist).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/price", s.handleChangePrice).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/pause", s.handlePauseSale).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/unpause", s.handleUnpauseSale).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/toggle", s.handleToggleAuction).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/extend", s.handleExtendAuction).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/buy", s.handleBuy).Methods(http.MethodPost)
	v1.HandleFunc("/listings/{id:[0-9]+}/bids", s.handleBidsForListing).Methods(http.MethodGet)
	v1.HandleFunc("/listings/{id:[0-9]+}/bids", s.handlePlaceBid).Methods(http.MethodPost)
	v1.HandleFunc("/bids/{id:[0-9]+}", s.handleGetBid).Methods(http.MethodGet)
	v1.HandleFunc("/bids/{id:[0-9]+}/withdraw", s.handleWithdrawBid).Methods(http.MethodPost)
	v1.HandleFunc("/bids/{id:[0-9]+}/accept", s.handleAcceptBid).Methods(http.MethodPost)

	s.router.HandleFunc("/ws", s.handleFeed).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogging tags each request with an id and logs its route.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		s.logger.Debug("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error categories to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrListingNotFound), errors.Is(err, types.ErrBidNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, types.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrTransferFailed):
		status = http.StatusBadGateway
	case errors.Is(err, types.ErrPaused):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
