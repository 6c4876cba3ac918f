package contentapi

// Prepare statuses returned by the collect endpoint
const (
	PrepareStatusAlreadyCollected = "already_collected"
	PrepareStatusPending          = "pending"
)

// PrepareCollectResponse is the server response to a free-collect prepare.
// The server mints custodially; a "pending" status hands back the collection
// id to poll, "already_collected" short-circuits the flow.
type PrepareCollectResponse struct {
	Status       string `json:"status"`
	CollectionID string `json:"collection_id"`
	AssetID      string `json:"asset_id"`
	Message      string `json:"message"`
	Error        string `json:"error"`
}

// PrepareEditionResponse carries the unsigned transaction for a paid edition
// purchase plus the purchase id used to correlate the confirmation poll
type PrepareEditionResponse struct {
	PurchaseID          string `json:"purchase_id"`
	UnsignedTransaction string `json:"unsigned_transaction"` // base64
}

// PrepareTipResponse carries the unsigned tip transfer transaction
type PrepareTipResponse struct {
	TipID               string `json:"tip_id"`
	UnsignedTransaction string `json:"unsigned_transaction"` // base64
}

// SubmitResponse acknowledges a persisted signature
type SubmitResponse struct {
	Status string `json:"status"`
}

// CollectionStatusResponse reports the state of an async custodial mint
type CollectionStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// PurchaseStatusResponse reports the state of an async edition purchase
type PurchaseStatusResponse struct {
	Status  string `json:"status"`
	NFTMint string `json:"nft_mint"`
	Error   string `json:"error"`
}

// ErrorResponse is the server's error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
