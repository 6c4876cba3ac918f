package api

import "mintflow/internal/models"

// HealthResponse is the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StartResponse acknowledges a started (or already in-flight) operation
type StartResponse struct {
	ItemID string               `json:"item_id"`
	Kind   models.OperationKind `json:"kind"`
	State  StateView            `json:"state"`
}

// StateView is the JSON shape of a purchase state
type StateView struct {
	Phase       models.Phase `json:"phase"`
	OperationID string       `json:"operation_id,omitempty"`
	NFTMint     string       `json:"nft_mint,omitempty"`
	Message     string       `json:"message,omitempty"`
	CanRetry    bool         `json:"can_retry,omitempty"`
}

// ItemStateResponse returns the per-kind states for one item
type ItemStateResponse struct {
	ItemID string                             `json:"item_id"`
	States map[models.OperationKind]StateView `json:"states"`
}

// WalletResponse describes the active signer
type WalletResponse struct {
	Kind           models.WalletKind `json:"kind"`
	Address        string            `json:"address,omitempty"`
	Available      bool              `json:"available"`
	NeedsSelection bool              `json:"needs_selection"`
}

// AdaptersResponse lists the installed external wallet adapters
type AdaptersResponse struct {
	Adapters []string `json:"adapters"`
}

// SelectWalletRequest picks a concrete external adapter
type SelectWalletRequest struct {
	Name string `json:"name"`
}

// HistoryResponse returns journaled outcomes
type HistoryResponse struct {
	Records []models.OperationRecord `json:"records"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func stateView(s models.PurchaseState) StateView {
	return StateView{
		Phase:       s.Phase,
		OperationID: s.OperationID,
		NFTMint:     s.NFTMint,
		Message:     s.Message,
		CanRetry:    s.CanRetry,
	}
}
