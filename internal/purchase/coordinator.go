package purchase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"mintflow/internal/contentapi"
	"mintflow/internal/models"
	"mintflow/internal/store"
	"mintflow/internal/wallet"
)

// User-facing outcome messages
const (
	msgTimeout       = "Confirmation is taking longer than expected. It may still be processing."
	msgPrepareFailed = "Could not prepare this transaction. Please try again."
	msgConfirmFailed = "The transaction could not be confirmed."
	msgCollected     = "Collected!"
	msgPurchased     = "Purchase complete!"
	msgTipped        = "Tip sent!"
)

// ContentAPI is the slice of the platform API the coordinator drives
type ContentAPI interface {
	PrepareCollect(ctx context.Context, itemID, walletAddress string) (*contentapi.PrepareCollectResponse, error)
	PrepareBuyEdition(ctx context.Context, itemID, walletAddress string) (*contentapi.PrepareEditionResponse, error)
	PrepareTip(ctx context.Context, itemID, walletAddress string) (*contentapi.PrepareTipResponse, error)
	SubmitPurchaseSignature(ctx context.Context, purchaseID, signature string) error
	SubmitTipSignature(ctx context.Context, tipID, signature string) error
	CheckCollectionStatus(ctx context.Context, collectionID string) (*contentapi.CollectionStatusResponse, error)
	CheckPurchaseStatus(ctx context.Context, purchaseID string) (*contentapi.PurchaseStatusResponse, error)
}

// WalletRouter is the uniform signing capability the coordinator needs
type WalletRouter interface {
	Available() bool
	NeedsSelection() bool
	Kind() models.WalletKind
	Address() string
	SignAndSend(ctx context.Context, unsignedTx []byte, onBroadcast func()) (string, error)
}

// Notifier receives human-readable success/failure messages for the UI
// toast side channel
type Notifier interface {
	Notify(itemID string, kind models.OperationKind, message string)
}

// Journal records terminal operation outcomes
type Journal interface {
	RecordOutcome(ctx context.Context, rec *models.OperationRecord) error
}

// Config holds confirmation polling cadence and bounds. Paid edition flows
// get a longer bound because broadcast plus on-chain confirmation takes
// longer than a custodial mint.
type Config struct {
	CollectInterval  time.Duration
	CollectMax       time.Duration
	PurchaseInterval time.Duration
	PurchaseMax      time.Duration
}

// DefaultConfig returns the production polling bounds
func DefaultConfig() Config {
	return Config{
		CollectInterval:  5 * time.Second,
		CollectMax:       60 * time.Second,
		PurchaseInterval: 5 * time.Second,
		PurchaseMax:      90 * time.Second,
	}
}

// Deps bundles the coordinator's collaborators
type Deps struct {
	API      ContentAPI
	Wallet   WalletRouter
	States   *store.StateStore
	Items    *store.ItemStore
	Events   *store.Hub
	Journal  Journal
	Notifier Notifier
	Config   Config
	Logger   *zap.Logger
}

// Coordinator drives one purchase/collect/tip operation per item key
// through its full lifecycle, with at most one in-flight operation per key
type Coordinator struct {
	api      ContentAPI
	wallet   WalletRouter
	states   *store.StateStore
	items    *store.ItemStore
	events   *store.Hub
	journal  Journal
	notifier Notifier
	cfg      Config
	logger   *zap.Logger

	mu      sync.Mutex
	pollers map[models.ItemKey]*pollerHandle
}

// pollerHandle identifies one live poller so a finished poller only
// deregisters itself, never a successor that replaced it
type pollerHandle struct {
	cancel context.CancelFunc
}

// New creates a purchase coordinator
func New(deps Deps) *Coordinator {
	cfg := deps.Config
	if cfg.CollectInterval == 0 {
		cfg = DefaultConfig()
	}
	journal := deps.Journal
	if journal == nil {
		journal = noopJournal{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}

	return &Coordinator{
		api:      deps.API,
		wallet:   deps.Wallet,
		states:   deps.States,
		items:    deps.Items,
		events:   deps.Events,
		journal:  journal,
		notifier: notifier,
		cfg:      cfg,
		logger:   deps.Logger.Named("coordinator"),
		pollers:  make(map[models.ItemKey]*pollerHandle),
	}
}

// Start drives one operation for one item to a terminal outcome and returns
// the resulting state. A start for a key that is already in flight, or that
// already reached Success, is a no-op and returns the current state.
// Errors never escape; every failure becomes a Failed state.
func (c *Coordinator) Start(ctx context.Context, itemID string, kind models.OperationKind) models.PurchaseState {
	key := models.ItemKey{ItemID: itemID, Kind: kind}

	if !c.begin(key) {
		c.logger.Debug("Start ignored, operation already in flight or succeeded",
			zap.String("item_id", itemID),
			zap.String("kind", string(kind)))
		return c.states.Get(key)
	}

	c.logger.Info("Operation started",
		zap.String("item_id", itemID),
		zap.String("kind", string(kind)))

	switch kind {
	case models.KindCollect:
		return c.runCollect(ctx, key)
	case models.KindEdition:
		return c.runEdition(ctx, key)
	case models.KindTip:
		return c.runTip(ctx, key)
	default:
		return c.fail(key, "Unknown operation.", false, nil)
	}
}

// Reset returns a terminal key to Idle so the caller can retry explicitly
func (c *Coordinator) Reset(itemID string, kind models.OperationKind) {
	key := models.ItemKey{ItemID: itemID, Kind: kind}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states.Get(key).Terminal() {
		c.states.Reset(key)
	}
}

// Shutdown cancels every in-flight confirmation poller
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, handle := range c.pollers {
		handle.cancel()
		delete(c.pollers, key)
	}
}

// begin claims the key, rejecting duplicate concurrent starts
func (c *Coordinator) begin(key models.ItemKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.states.Get(key)
	if state.InFlight() || state.Phase == models.PhaseSuccess {
		return false
	}
	c.states.Set(key, models.PurchaseState{Phase: models.PhasePreparing})
	return true
}

// runCollect drives the free-collect flow. The server mints custodially, so
// there is no client-side signing; a pending prepare goes straight to
// confirmation polling.
func (c *Coordinator) runCollect(ctx context.Context, key models.ItemKey) models.PurchaseState {
	resp, err := c.api.PrepareCollect(ctx, key.ItemID, c.wallet.Address())
	if err != nil {
		return c.fail(key, serverMessage(err), true, nil)
	}

	switch resp.Status {
	case contentapi.PrepareStatusAlreadyCollected:
		return c.succeed(ctx, key, resp.CollectionID, resp.AssetID, "")

	case contentapi.PrepareStatusPending:
		return c.confirm(ctx, key, resp.CollectionID, "",
			c.cfg.CollectInterval, c.cfg.CollectMax, c.checkCollection)

	default:
		message := resp.Message
		if message == "" {
			message = resp.Error
		}
		if message == "" {
			message = msgPrepareFailed
		}
		return c.fail(key, message, true, nil)
	}
}

// runEdition drives the paid edition purchase flow
func (c *Coordinator) runEdition(ctx context.Context, key models.ItemKey) models.PurchaseState {
	if state, ok := c.checkWallet(key); !ok {
		return state
	}

	prep, err := c.api.PrepareBuyEdition(ctx, key.ItemID, c.wallet.Address())
	if err != nil {
		return c.fail(key, serverMessage(err), true, nil)
	}

	signature, state, ok := c.signAndSend(ctx, key, prep.UnsignedTransaction)
	if !ok {
		return state
	}

	c.states.Set(key, models.PurchaseState{Phase: models.PhaseSubmitting})
	if err := c.api.SubmitPurchaseSignature(ctx, prep.PurchaseID, signature); err != nil {
		// The transaction is already on chain; losing the submission record
		// must not strand it. Proceed to confirmation regardless.
		c.logger.Warn("Failed to submit signature, continuing to confirmation",
			zap.String("item_id", key.ItemID),
			zap.String("purchase_id", prep.PurchaseID),
			zap.Error(err))
	}

	return c.confirm(ctx, key, prep.PurchaseID, signature,
		c.cfg.PurchaseInterval, c.cfg.PurchaseMax, c.checkPurchase)
}

// runTip drives the tip flow. Tips are plain transfers; the broadcast
// signature is the proof, so there is no asynchronous mint to poll.
func (c *Coordinator) runTip(ctx context.Context, key models.ItemKey) models.PurchaseState {
	if state, ok := c.checkWallet(key); !ok {
		return state
	}

	prep, err := c.api.PrepareTip(ctx, key.ItemID, c.wallet.Address())
	if err != nil {
		return c.fail(key, serverMessage(err), true, nil)
	}

	signature, state, ok := c.signAndSend(ctx, key, prep.UnsignedTransaction)
	if !ok {
		return state
	}

	c.states.Set(key, models.PurchaseState{Phase: models.PhaseSubmitting})
	if err := c.api.SubmitTipSignature(ctx, prep.TipID, signature); err != nil {
		c.logger.Warn("Failed to submit tip signature, continuing",
			zap.String("item_id", key.ItemID),
			zap.String("tip_id", prep.TipID),
			zap.Error(err))
	}

	return c.succeed(ctx, key, prep.TipID, "", signature)
}

// checkWallet fails fast when no usable signer is configured or the
// external adapter still needs a selection
func (c *Coordinator) checkWallet(key models.ItemKey) (models.PurchaseState, bool) {
	if !c.wallet.Available() {
		message, retryable := wallet.Describe(wallet.ErrNoWalletInstalled)
		return c.fail(key, message, retryable, nil), false
	}
	if c.wallet.NeedsSelection() {
		message, retryable := wallet.Describe(wallet.ErrNoWalletSelected)
		return c.fail(key, message, retryable, nil), false
	}
	return models.PurchaseState{}, true
}

// signAndSend decodes the unsigned transaction and routes it through the
// wallet, tracking the Signing and Broadcasting phases
func (c *Coordinator) signAndSend(ctx context.Context, key models.ItemKey, unsignedTx string) (string, models.PurchaseState, bool) {
	txBytes, err := base64.StdEncoding.DecodeString(unsignedTx)
	if err != nil {
		c.logger.Error("Prepared transaction is not valid base64",
			zap.String("item_id", key.ItemID),
			zap.Error(err))
		return "", c.fail(key, msgPrepareFailed, true, nil), false
	}

	c.states.Set(key, models.PurchaseState{Phase: models.PhaseSigning})

	signature, err := c.wallet.SignAndSend(ctx, txBytes, func() {
		c.states.Set(key, models.PurchaseState{Phase: models.PhaseBroadcasting})
	})
	if err != nil {
		message, retryable := wallet.Describe(err)
		c.logger.Warn("Sign and broadcast failed",
			zap.String("item_id", key.ItemID),
			zap.String("kind", string(key.Kind)),
			zap.Error(err))
		return "", c.fail(key, message, retryable, nil), false
	}

	return signature, models.PurchaseState{}, true
}

// confirm hands off to a confirmation poller, cancelling any prior poller
// for the same key first
func (c *Coordinator) confirm(ctx context.Context, key models.ItemKey, operationID, signature string,
	interval, maxDuration time.Duration, check CheckStatus) models.PurchaseState {

	c.states.Set(key, models.PurchaseState{Phase: models.PhaseConfirming, OperationID: operationID})

	pollCtx, cancel := context.WithCancel(ctx)
	handle := &pollerHandle{cancel: cancel}
	c.mu.Lock()
	if prior, ok := c.pollers[key]; ok {
		prior.cancel()
	}
	c.pollers[key] = handle
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.pollers[key] == handle {
			delete(c.pollers, key)
		}
		c.mu.Unlock()
		cancel()
	}()

	poller := NewPoller(operationID, interval, maxDuration, check, c.logger)
	outcome := poller.Run(pollCtx)

	switch {
	case outcome.Cancelled:
		// Teardown or superseded; no further side effects.
		return c.states.Get(key)

	case outcome.TimedOut:
		// Soft failure: the operation may still complete server-side, so
		// retry re-checks rather than assuming failure.
		return c.fail(key, msgTimeout, true, &models.OperationRecord{
			ItemID:      key.ItemID,
			Kind:        key.Kind,
			OperationID: optional(operationID),
			Signature:   optional(signature),
			Status:      models.OutcomeTimeout,
		})

	case outcome.Status == models.StatusConfirmed:
		return c.succeed(ctx, key, operationID, outcome.NFTMint, signature)

	default:
		message := outcome.ErrMessage
		if message == "" {
			message = msgConfirmFailed
		}
		return c.fail(key, message, true, nil)
	}
}

// succeed records the terminal success: state, counters, exactly one
// cross-screen event, journal entry, and toast
func (c *Coordinator) succeed(ctx context.Context, key models.ItemKey, operationID, nftMint, signature string) models.PurchaseState {
	state := models.PurchaseState{Phase: models.PhaseSuccess, OperationID: operationID, NFTMint: nftMint}
	c.states.Set(key, state)

	item := c.items.ApplySuccess(key.ItemID, key.Kind)
	c.events.Publish(successEvent(key, item, nftMint))

	record := &models.OperationRecord{
		ItemID:        key.ItemID,
		Kind:          key.Kind,
		OperationID:   optional(operationID),
		WalletAddress: c.wallet.Address(),
		Signature:     optional(signature),
		NFTMint:       optional(nftMint),
		Status:        models.OutcomeSuccess,
	}
	if err := c.journal.RecordOutcome(ctx, record); err != nil {
		c.logger.Warn("Failed to journal outcome", zap.Error(err))
	}

	c.notifier.Notify(key.ItemID, key.Kind, successMessage(key.Kind))

	c.logger.Info("Operation succeeded",
		zap.String("item_id", key.ItemID),
		zap.String("kind", string(key.Kind)),
		zap.String("operation_id", operationID),
		zap.String("nft_mint", nftMint))

	return state
}

// fail records the terminal failure. rec is an optional pre-built journal
// record; when nil a failed record is journaled with the message.
func (c *Coordinator) fail(key models.ItemKey, message string, canRetry bool, rec *models.OperationRecord) models.PurchaseState {
	state := models.PurchaseState{Phase: models.PhaseFailed, Message: message, CanRetry: canRetry}
	c.states.Set(key, state)

	if rec == nil {
		rec = &models.OperationRecord{
			ItemID:       key.ItemID,
			Kind:         key.Kind,
			Status:       models.OutcomeFailed,
			ErrorMessage: optional(message),
		}
	} else if rec.ErrorMessage == nil {
		rec.ErrorMessage = optional(message)
	}
	rec.WalletAddress = c.wallet.Address()

	if err := c.journal.RecordOutcome(context.Background(), rec); err != nil {
		c.logger.Warn("Failed to journal outcome", zap.Error(err))
	}

	c.notifier.Notify(key.ItemID, key.Kind, message)

	c.logger.Warn("Operation failed",
		zap.String("item_id", key.ItemID),
		zap.String("kind", string(key.Kind)),
		zap.String("message", message),
		zap.Bool("can_retry", canRetry))

	return state
}

// checkCollection adapts the collection status endpoint to the poller
func (c *Coordinator) checkCollection(ctx context.Context, collectionID string) (models.ConfirmationStatus, string, string, error) {
	resp, err := c.api.CheckCollectionStatus(ctx, collectionID)
	if err != nil {
		return "", "", "", err
	}
	return models.ConfirmationStatus(resp.Status), "", resp.Error, nil
}

// checkPurchase adapts the purchase status endpoint to the poller
func (c *Coordinator) checkPurchase(ctx context.Context, purchaseID string) (models.ConfirmationStatus, string, string, error) {
	resp, err := c.api.CheckPurchaseStatus(ctx, purchaseID)
	if err != nil {
		return "", "", "", err
	}
	return models.ConfirmationStatus(resp.Status), resp.NFTMint, resp.Error, nil
}

// successEvent builds the single cross-screen event for a terminal success
func successEvent(key models.ItemKey, item models.Item, nftMint string) models.UpdateEvent {
	ev := models.UpdateEvent{
		ItemID:  key.ItemID,
		Kind:    key.Kind,
		Owned:   true,
		NFTMint: nftMint,
	}
	switch key.Kind {
	case models.KindCollect:
		ev.Type = models.UpdateCollectCount
		ev.Count = item.CollectCount
	case models.KindEdition:
		ev.Type = models.UpdateCollectCount
		ev.Count = item.PurchaseCount
	case models.KindTip:
		ev.Type = models.UpdateTipCount
		ev.Count = item.TipCount
		ev.Owned = false
	}
	return ev
}

func successMessage(kind models.OperationKind) string {
	switch kind {
	case models.KindCollect:
		return msgCollected
	case models.KindEdition:
		return msgPurchased
	default:
		return msgTipped
	}
}

// serverMessage extracts the user-facing text from a prepare failure
func serverMessage(err error) string {
	var apiErr *contentapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgPrepareFailed
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// noopJournal discards outcomes when no journal is configured
type noopJournal struct{}

func (noopJournal) RecordOutcome(context.Context, *models.OperationRecord) error { return nil }

// noopNotifier discards toast messages
type noopNotifier struct{}

func (noopNotifier) Notify(string, models.OperationKind, string) {}
