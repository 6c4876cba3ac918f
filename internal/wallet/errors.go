package wallet

import (
	"errors"
	"fmt"
	"strings"

	"mintflow/internal/chain"
)

// Signing failures surfaced to the purchase flow. Only ErrNoWalletInstalled
// is non-retryable; everything else can be retried from a fresh prepare.
var (
	ErrUserCancelled     = errors.New("user cancelled")
	ErrNoWalletInstalled = errors.New("no wallet installed")
	ErrNoWalletSelected  = errors.New("no wallet selected")
	ErrTimeout           = errors.New("wallet request timed out")
	ErrWalletRejected    = errors.New("wallet rejected transaction")
	ErrSessionTerminated = errors.New("wallet session terminated")
	ErrBlockhashExpired  = errors.New("blockhash expired")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Describe maps a signing error to a user-facing message and whether the
// full flow can be retried
func Describe(err error) (message string, retryable bool) {
	switch {
	case errors.Is(err, ErrUserCancelled):
		return "Transaction cancelled.", true
	case errors.Is(err, ErrNoWalletInstalled):
		return "No compatible wallet installed.", false
	case errors.Is(err, ErrNoWalletSelected):
		return "Select a wallet to continue.", true
	case errors.Is(err, ErrTimeout):
		return "The wallet request timed out. Please try again.", true
	case errors.Is(err, ErrWalletRejected):
		return "The wallet rejected this transaction.", true
	case errors.Is(err, ErrSessionTerminated):
		return "Wallet session ended. Please reconnect and try again.", true
	case errors.Is(err, ErrBlockhashExpired):
		return "The transaction expired before it could be sent. Please try again.", true
	case errors.Is(err, ErrInsufficientFunds):
		return "Insufficient funds for this purchase.", true
	default:
		return "Something went wrong. Please try again.", true
	}
}

// mapRPCError classifies a broadcast failure from the chain RPC into the
// wallet error taxonomy
func mapRPCError(err error) error {
	var rpcErr *chain.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}

	msg := strings.ToLower(rpcErr.Message)
	switch {
	case strings.Contains(msg, "blockhash not found"), strings.Contains(msg, "blockhash expired"):
		return fmt.Errorf("%w: %s", ErrBlockhashExpired, rpcErr.Message)
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "insufficient lamports"):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, rpcErr.Message)
	default:
		return err
	}
}
