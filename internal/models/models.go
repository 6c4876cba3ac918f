package models

// OperationKind distinguishes the three purchase flows
type OperationKind string

const (
	KindCollect OperationKind = "collect"
	KindEdition OperationKind = "edition"
	KindTip     OperationKind = "tip"
)

// ItemKey identifies one purchase state machine instance
type ItemKey struct {
	ItemID string
	Kind   OperationKind
}

// Phase represents the state of a purchase operation
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhasePreparing    Phase = "PREPARING"
	PhaseSigning      Phase = "SIGNING"
	PhaseBroadcasting Phase = "BROADCASTING"
	PhaseSubmitting   Phase = "SUBMITTING"
	PhaseConfirming   Phase = "CONFIRMING"
	PhaseSuccess      Phase = "SUCCESS"
	PhaseFailed       Phase = "FAILED"
)

// PurchaseState is the per-key state of a collect/purchase/tip operation.
// OperationID is set while CONFIRMING, NFTMint on SUCCESS when the server
// reports one, Message and CanRetry on FAILED.
type PurchaseState struct {
	Phase       Phase
	OperationID string
	NFTMint     string
	Message     string
	CanRetry    bool
}

// Idle returns the default state for an untouched key
func Idle() PurchaseState {
	return PurchaseState{Phase: PhaseIdle}
}

// InFlight reports whether the operation is between start and a terminal state
func (s PurchaseState) InFlight() bool {
	switch s.Phase {
	case PhasePreparing, PhaseSigning, PhaseBroadcasting, PhaseSubmitting, PhaseConfirming:
		return true
	}
	return false
}

// Terminal reports whether the operation has finished
func (s PurchaseState) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailed
}

// ConfirmationStatus is the server-reported status for an operation id
type ConfirmationStatus string

const (
	StatusReserved  ConfirmationStatus = "reserved"
	StatusSubmitted ConfirmationStatus = "submitted"
	StatusMinting   ConfirmationStatus = "minting"
	StatusPending   ConfirmationStatus = "pending"
	StatusConfirmed ConfirmationStatus = "confirmed"
	StatusFailed    ConfirmationStatus = "failed"
	StatusAbandoned ConfirmationStatus = "abandoned"
)

// Terminal reports whether polling should stop on this status
func (s ConfirmationStatus) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusAbandoned:
		return true
	}
	return false
}

// WalletKind identifies the active signer backend
type WalletKind string

const (
	WalletEmbedded WalletKind = "embedded"
	WalletExternal WalletKind = "external"
)

// Item holds the content counters every screen renders
type Item struct {
	ID            string `json:"id"`
	LikeCount     int    `json:"like_count"`
	CommentCount  int    `json:"comment_count"`
	CollectCount  int    `json:"collect_count"`
	PurchaseCount int    `json:"purchase_count"`
	TipCount      int    `json:"tip_count"`
	Collected     bool   `json:"collected"`
	Purchased     bool   `json:"purchased"`
}

// UpdateType classifies cross-screen update events
type UpdateType string

const (
	UpdateLikeCount    UpdateType = "like_count"
	UpdateCollectCount UpdateType = "collect_count"
	UpdateCommentCount UpdateType = "comment_count"
	UpdateTipCount     UpdateType = "tip_count"
	UpdatePostCreated  UpdateType = "post_created"
	UpdatePostDeleted  UpdateType = "post_deleted"
	UpdatePostEdited   UpdateType = "post_edited"
)

// UpdateEvent is fanned out to every subscribed screen so copies of the
// same item converge without a refetch
type UpdateEvent struct {
	Type    UpdateType    `json:"type"`
	ItemID  string        `json:"item_id"`
	Kind    OperationKind `json:"kind,omitempty"`
	Count   int           `json:"count"`
	Owned   bool          `json:"owned"`
	NFTMint string        `json:"nft_mint,omitempty"`
}

// OutcomeStatus is the journaled result of a finished operation
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeTimeout OutcomeStatus = "timeout"
)

// OperationRecord is a journaled terminal outcome
type OperationRecord struct {
	ID            int64         `db:"id" json:"id"`
	ItemID        string        `db:"item_id" json:"item_id"`
	Kind          OperationKind `db:"kind" json:"kind"`
	OperationID   *string       `db:"operation_id" json:"operation_id,omitempty"`
	WalletAddress string        `db:"wallet_address" json:"wallet_address"`
	Signature     *string       `db:"signature" json:"signature,omitempty"`
	NFTMint       *string       `db:"nft_mint" json:"nft_mint,omitempty"`
	Status        OutcomeStatus `db:"status" json:"status"`
	ErrorMessage  *string       `db:"error_message" json:"error_message,omitempty"`
}
