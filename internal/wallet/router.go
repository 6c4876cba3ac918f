package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mintflow/internal/chain"
	"mintflow/internal/config"
	"mintflow/internal/models"
)

// Router presents one sign-and-broadcast capability regardless of which
// signer backend is active
type Router struct {
	kind     models.WalletKind
	embedded *EmbeddedSigner
	external *ExternalSigner
	logger   *zap.Logger
}

// NewRouter builds the router for the configured wallet mode
func NewRouter(cfg config.WalletConfig, rpc *chain.Client, logger *zap.Logger) (*Router, error) {
	logger = logger.Named("wallet")

	switch cfg.Mode {
	case "embedded":
		signer, err := NewEmbeddedSigner(cfg.Mnemonic, rpc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedded wallet: %w", err)
		}
		return &Router{kind: models.WalletEmbedded, embedded: signer, logger: logger}, nil

	case "external":
		signer := NewExternalSigner(cfg.Adapters, cfg.ActiveAdapter, logger)
		return &Router{kind: models.WalletExternal, external: signer, logger: logger}, nil

	default:
		return nil, fmt.Errorf("unknown wallet mode: %s", cfg.Mode)
	}
}

// Kind returns the active signer backend
func (r *Router) Kind() models.WalletKind {
	return r.kind
}

// Available reports whether a usable signer is configured. Callers must
// check this before starting a purchase and fail fast when false.
func (r *Router) Available() bool {
	switch r.kind {
	case models.WalletEmbedded:
		return r.embedded != nil
	case models.WalletExternal:
		return len(r.external.Installed()) > 0
	}
	return false
}

// NeedsSelection reports whether the external adapter identity is still
// unknown and the user has to pick one first
func (r *Router) NeedsSelection() bool {
	return r.kind == models.WalletExternal && !r.external.Selected()
}

// Address returns the active wallet address, empty if unknown
func (r *Router) Address() string {
	switch r.kind {
	case models.WalletEmbedded:
		return r.embedded.Address()
	case models.WalletExternal:
		return r.external.Address()
	}
	return ""
}

// Installed lists selectable external adapters; nil in embedded mode
func (r *Router) Installed() []string {
	if r.kind != models.WalletExternal {
		return nil
	}
	return r.external.Installed()
}

// Select chooses a concrete external adapter
func (r *Router) Select(name string) error {
	if r.kind != models.WalletExternal {
		return fmt.Errorf("wallet selection only applies to external mode")
	}
	return r.external.Select(name)
}

// SignAndSend signs and broadcasts the transaction through the active
// backend. onBroadcast fires between local signing and broadcast on the
// embedded path only; the external path signs-and-broadcasts atomically.
func (r *Router) SignAndSend(ctx context.Context, unsignedTx []byte, onBroadcast func()) (string, error) {
	switch r.kind {
	case models.WalletEmbedded:
		return r.embedded.SignAndSend(ctx, unsignedTx, onBroadcast)
	case models.WalletExternal:
		return r.external.SignAndSend(ctx, unsignedTx, nil)
	}
	return "", ErrNoWalletInstalled
}
