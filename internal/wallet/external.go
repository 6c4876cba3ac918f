package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"mintflow/internal/config"
)

// ExternalSigner routes signing to an installed wallet-adapter bridge.
// The bridge signs AND broadcasts atomically and reports the network
// signature back. The concrete adapter may be unknown until the user
// picks one from the installed list.
type ExternalSigner struct {
	mu       sync.RWMutex
	adapters []config.AdapterConfig
	active   *config.AdapterConfig
	address  string
	client   *http.Client
	logger   *zap.Logger
}

// signRequest is the adapter bridge sign-and-send payload
type signRequest struct {
	Transaction string `json:"transaction"` // base64
}

// signResponse carries the signature the adapter reports after broadcast
type signResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

// addressResponse is the adapter's wallet identity
type addressResponse struct {
	Address string `json:"address"`
}

// NewExternalSigner creates a signer over the configured adapter bridges.
// If activeName is empty the adapter stays unselected until Select is called.
func NewExternalSigner(adapters []config.AdapterConfig, activeName string, logger *zap.Logger) *ExternalSigner {
	s := &ExternalSigner{
		adapters: adapters,
		// No client-enforced timeout: signing may pend on user interaction
		// in the external app for an arbitrary time. Cancellation comes
		// from the request context.
		client: &http.Client{},
		logger: logger.Named("external"),
	}
	if activeName != "" {
		for i := range adapters {
			if adapters[i].Name == activeName {
				s.active = &adapters[i]
				break
			}
		}
	}
	return s
}

// Installed lists the names of the configured adapter bridges
func (s *ExternalSigner) Installed() []string {
	names := make([]string, 0, len(s.adapters))
	for _, a := range s.adapters {
		names = append(names, a.Name)
	}
	return names
}

// Selected reports whether a concrete adapter has been chosen
func (s *ExternalSigner) Selected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active != nil
}

// Select chooses a concrete adapter by name
func (s *ExternalSigner) Select(name string) error {
	for i := range s.adapters {
		if s.adapters[i].Name == name {
			s.mu.Lock()
			s.active = &s.adapters[i]
			s.address = ""
			s.mu.Unlock()
			s.logger.Info("Wallet adapter selected", zap.String("adapter", name))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoWalletInstalled, name)
}

// Address returns the adapter-reported wallet address, fetching it lazily.
// Returns empty until an adapter is selected and reachable.
func (s *ExternalSigner) Address() string {
	s.mu.RLock()
	active, cached := s.active, s.address
	s.mu.RUnlock()

	if active == nil || cached != "" {
		return cached
	}

	resp, err := s.client.Get(active.Endpoint + "/address")
	if err != nil {
		s.logger.Debug("Failed to fetch adapter address", zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	var addr addressResponse
	if err := json.NewDecoder(resp.Body).Decode(&addr); err != nil {
		return ""
	}

	s.mu.Lock()
	s.address = addr.Address
	s.mu.Unlock()
	return addr.Address
}

// SignAndSend hands the unsigned transaction to the selected adapter, which
// signs and broadcasts it, and returns the signature it reports. The call
// can pend indefinitely on user interaction; cancel via ctx.
func (s *ExternalSigner) SignAndSend(ctx context.Context, unsignedTx []byte, onBroadcast func()) (string, error) {
	if len(s.adapters) == 0 {
		return "", ErrNoWalletInstalled
	}

	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()
	if active == nil {
		return "", ErrNoWalletSelected
	}

	payload, err := json.Marshal(signRequest{
		Transaction: base64.StdEncoding.EncodeToString(unsignedTx),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, active.Endpoint+"/sign-and-send", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("adapter request failed: %w", err)
	}
	defer resp.Body.Close()

	var signResp signResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&signResp); decodeErr != nil && resp.StatusCode < 400 {
		return "", fmt.Errorf("failed to decode adapter response: %w", decodeErr)
	}

	if resp.StatusCode >= 400 {
		return "", s.mapStatus(resp.StatusCode, signResp.Error)
	}

	s.logger.Debug("Adapter signed and broadcast",
		zap.String("adapter", active.Name),
		zap.String("signature", signResp.Signature))
	return signResp.Signature, nil
}

// mapStatus classifies adapter bridge failures into the wallet error taxonomy
func (s *ExternalSigner) mapStatus(statusCode int, errMsg string) error {
	var base error
	switch statusCode {
	case http.StatusRequestTimeout:
		base = ErrTimeout
	case http.StatusUnauthorized, http.StatusGone:
		base = ErrSessionTerminated
	case http.StatusPaymentRequired:
		base = ErrInsufficientFunds
	case http.StatusConflict:
		base = ErrWalletRejected
	case 499:
		base = ErrUserCancelled
	default:
		if errMsg == "" {
			return fmt.Errorf("adapter error: status %d", statusCode)
		}
		return fmt.Errorf("adapter error: %s", errMsg)
	}
	if errMsg != "" {
		return fmt.Errorf("%w: %s", base, errMsg)
	}
	return base
}
