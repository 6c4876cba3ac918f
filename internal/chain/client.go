package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RPCError is a JSON-RPC error returned by the cluster
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error: code=%d msg=%s", e.Code, e.Message)
}

// rpcRequest is a JSON-RPC 2.0 request body
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse is a minimal JSON-RPC 2.0 response
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client is a minimal JSON-RPC client for the platform chain.
// Only the calls the embedded signer needs are implemented.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient creates a chain RPC client
func NewClient(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.Named("chain"),
	}
}

// SendTransaction broadcasts a signed transaction and returns the network
// signature reported by the cluster
func (c *Client) SendTransaction(ctx context.Context, signedTx []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(signedTx)

	resp, err := c.call(ctx, "sendTransaction", encoded, map[string]string{"encoding": "base64"})
	if err != nil {
		return "", err
	}

	var signature string
	if err := json.Unmarshal(resp.Result, &signature); err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", err)
	}

	c.logger.Debug("Transaction broadcast", zap.String("signature", signature))
	return signature, nil
}

// call makes a JSON-RPC call to the cluster
func (c *Client) call(ctx context.Context, method string, params ...interface{}) (*rpcResponse, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call failed: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return &rpcResp, nil
}
