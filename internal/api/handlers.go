package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mintflow/internal/models"
	"mintflow/internal/store"
)

// Starter drives a purchase operation to a terminal outcome
type Starter interface {
	Start(ctx context.Context, itemID string, kind models.OperationKind) models.PurchaseState
}

// WalletService is the wallet surface exposed to the UI layer
type WalletService interface {
	Available() bool
	NeedsSelection() bool
	Kind() models.WalletKind
	Address() string
	Installed() []string
	Select(name string) error
}

// History reads journaled operation outcomes
type History interface {
	OutcomesByAddress(ctx context.Context, walletAddress string, limit, offset int) ([]models.OperationRecord, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	coordinator Starter
	states      *store.StateStore
	items       *store.ItemStore
	wallet      WalletService
	history     History
	logger      *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	coordinator Starter,
	states *store.StateStore,
	items *store.ItemStore,
	wallet WalletService,
	history History,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		coordinator: coordinator,
		states:      states,
		items:       items,
		wallet:      wallet,
		history:     history,
		logger:      logger,
	}
}

// ==================== Health Check ====================

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	respondJSON(w, http.StatusOK, response)
}

// ==================== Purchase Operations ====================

// HandleStartCollect handles POST /api/v1/items/{itemId}/collect
func (h *Handler) HandleStartCollect(w http.ResponseWriter, r *http.Request) {
	h.startOperation(w, r, models.KindCollect)
}

// HandleStartPurchase handles POST /api/v1/items/{itemId}/purchase
func (h *Handler) HandleStartPurchase(w http.ResponseWriter, r *http.Request) {
	h.startOperation(w, r, models.KindEdition)
}

// HandleStartTip handles POST /api/v1/items/{itemId}/tip
func (h *Handler) HandleStartTip(w http.ResponseWriter, r *http.Request) {
	h.startOperation(w, r, models.KindTip)
}

// startOperation kicks off the flow and responds immediately with the
// current state. The pipeline runs detached from the request context so a
// dropped connection cannot cancel a submit already in flight.
func (h *Handler) startOperation(w http.ResponseWriter, r *http.Request, kind models.OperationKind) {
	vars := mux.Vars(r)
	itemID := vars["itemId"]

	if itemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required", nil)
		return
	}

	h.logger.Info("Operation requested",
		zap.String("item_id", itemID),
		zap.String("kind", string(kind)))

	go h.coordinator.Start(context.Background(), itemID, kind)

	response := StartResponse{
		ItemID: itemID,
		Kind:   kind,
		State:  stateView(h.states.Get(models.ItemKey{ItemID: itemID, Kind: kind})),
	}
	respondJSON(w, http.StatusAccepted, response)
}

// HandleGetItemState handles GET /api/v1/items/{itemId}/state
func (h *Handler) HandleGetItemState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID := vars["itemId"]

	if itemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required", nil)
		return
	}

	kinds := []models.OperationKind{models.KindCollect, models.KindEdition, models.KindTip}
	states := make(map[models.OperationKind]StateView, len(kinds))
	for _, kind := range kinds {
		states[kind] = stateView(h.states.Get(models.ItemKey{ItemID: itemID, Kind: kind}))
	}

	respondJSON(w, http.StatusOK, ItemStateResponse{ItemID: itemID, States: states})
}

// HandleGetItem handles GET /api/v1/items/{itemId}
func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID := vars["itemId"]

	if itemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required", nil)
		return
	}

	item, ok := h.items.Get(itemID)
	if !ok {
		respondError(w, http.StatusNotFound, "Item not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// ==================== Wallet ====================

// HandleGetWallet handles GET /api/v1/wallet
func (h *Handler) HandleGetWallet(w http.ResponseWriter, r *http.Request) {
	response := WalletResponse{
		Kind:           h.wallet.Kind(),
		Address:        h.wallet.Address(),
		Available:      h.wallet.Available(),
		NeedsSelection: h.wallet.NeedsSelection(),
	}
	respondJSON(w, http.StatusOK, response)
}

// HandleGetAdapters handles GET /api/v1/wallet/adapters
func (h *Handler) HandleGetAdapters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, AdaptersResponse{Adapters: h.wallet.Installed()})
}

// HandleSelectWallet handles POST /api/v1/wallet/select
func (h *Handler) HandleSelectWallet(w http.ResponseWriter, r *http.Request) {
	var req SelectWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	if err := h.wallet.Select(req.Name); err != nil {
		h.logger.Warn("Wallet selection failed",
			zap.String("name", req.Name),
			zap.Error(err))
		respondError(w, http.StatusBadRequest, "Unknown wallet adapter", err)
		return
	}

	h.HandleGetWallet(w, r)
}

// ==================== History ====================

// HandleGetHistory handles GET /api/v1/history/{address}
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]

	if address == "" {
		respondError(w, http.StatusBadRequest, "address is required", nil)
		return
	}

	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	records, err := h.history.OutcomesByAddress(r.Context(), address, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get history",
			zap.String("address", address),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get history", err)
		return
	}

	respondJSON(w, http.StatusOK, HistoryResponse{Records: records})
}

// ==================== Helper Functions ====================

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing else to do
		fmt.Printf("Failed to encode JSON response: %v\n", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = fmt.Sprintf("%s: %v", message, err)
	}

	response := ErrorResponse{
		Error:   message,
		Message: errorMsg,
	}

	respondJSON(w, statusCode, response)
}
