package wallet

import (
	"errors"
	"fmt"
	"testing"

	"mintflow/internal/chain"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		message   string
		retryable bool
	}{
		{"cancelled", ErrUserCancelled, "Transaction cancelled.", true},
		{"no wallet", ErrNoWalletInstalled, "No compatible wallet installed.", false},
		{"no selection", ErrNoWalletSelected, "Select a wallet to continue.", true},
		{"timeout", ErrTimeout, "The wallet request timed out. Please try again.", true},
		{"rejected", ErrWalletRejected, "The wallet rejected this transaction.", true},
		{"session ended", ErrSessionTerminated, "Wallet session ended. Please reconnect and try again.", true},
		{"blockhash expired", ErrBlockhashExpired, "The transaction expired before it could be sent. Please try again.", true},
		{"insufficient funds", ErrInsufficientFunds, "Insufficient funds for this purchase.", true},
		{"wrapped sentinel", fmt.Errorf("%w: lamports short", ErrInsufficientFunds), "Insufficient funds for this purchase.", true},
		{"unknown", errors.New("boom"), "Something went wrong. Please try again.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, retryable := Describe(tt.err)
			if message != tt.message {
				t.Errorf("message = %q, want %q", message, tt.message)
			}
			if retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", retryable, tt.retryable)
			}
		})
	}
}

func TestMapRPCError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"blockhash not found", &chain.RPCError{Code: -32002, Message: "Blockhash not found"}, ErrBlockhashExpired},
		{"blockhash expired", &chain.RPCError{Code: -32002, Message: "blockhash expired for this slot"}, ErrBlockhashExpired},
		{"insufficient funds", &chain.RPCError{Code: -32003, Message: "Insufficient funds for fee"}, ErrInsufficientFunds},
		{"insufficient lamports", &chain.RPCError{Code: 1, Message: "insufficient lamports 0, need 5000"}, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapRPCError(tt.err)
			if !errors.Is(mapped, tt.sentinel) {
				t.Errorf("expected %v sentinel, got %v", tt.sentinel, mapped)
			}
		})
	}

	t.Run("unclassified rpc error passes through", func(t *testing.T) {
		rpcErr := &chain.RPCError{Code: -32000, Message: "node is behind"}
		if got := mapRPCError(rpcErr); got != error(rpcErr) {
			t.Errorf("expected passthrough, got %v", got)
		}
	})

	t.Run("non-rpc error passes through", func(t *testing.T) {
		plain := errors.New("connection refused")
		if got := mapRPCError(plain); got != plain {
			t.Errorf("expected passthrough, got %v", got)
		}
	})
}
