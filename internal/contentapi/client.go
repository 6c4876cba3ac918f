package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"mintflow/internal/models"
)

// APIError is a non-2xx response from the content platform.
// Message carries the server's user-facing text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("content api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the content platform REST API
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
	logger    *zap.Logger
}

// NewClient creates a content API client
func NewClient(baseURL, authToken string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger.Named("contentapi"),
	}
}

// PrepareCollect asks the server to start a free collect for an item
func (c *Client) PrepareCollect(ctx context.Context, itemID, walletAddress string) (*PrepareCollectResponse, error) {
	req := map[string]string{"wallet_address": walletAddress}
	var resp PrepareCollectResponse
	if err := c.post(ctx, fmt.Sprintf("/v1/items/%s/collect/prepare", url.PathEscape(itemID)), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrepareBuyEdition asks the server for an unsigned edition purchase transaction
func (c *Client) PrepareBuyEdition(ctx context.Context, itemID, walletAddress string) (*PrepareEditionResponse, error) {
	req := map[string]string{"wallet_address": walletAddress}
	var resp PrepareEditionResponse
	if err := c.post(ctx, fmt.Sprintf("/v1/items/%s/purchase/prepare", url.PathEscape(itemID)), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrepareTip asks the server for an unsigned tip transfer transaction
func (c *Client) PrepareTip(ctx context.Context, itemID, walletAddress string) (*PrepareTipResponse, error) {
	req := map[string]string{"wallet_address": walletAddress}
	var resp PrepareTipResponse
	if err := c.post(ctx, fmt.Sprintf("/v1/items/%s/tip/prepare", url.PathEscape(itemID)), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitPurchaseSignature persists the network signature against a purchase id
func (c *Client) SubmitPurchaseSignature(ctx context.Context, purchaseID, signature string) error {
	req := map[string]string{"signature": signature}
	var resp SubmitResponse
	return c.post(ctx, fmt.Sprintf("/v1/purchases/%s/signature", url.PathEscape(purchaseID)), req, &resp)
}

// SubmitTipSignature persists the network signature against a tip id
func (c *Client) SubmitTipSignature(ctx context.Context, tipID, signature string) error {
	req := map[string]string{"signature": signature}
	var resp SubmitResponse
	return c.post(ctx, fmt.Sprintf("/v1/tips/%s/signature", url.PathEscape(tipID)), req, &resp)
}

// CheckCollectionStatus polls the state of an async custodial mint
func (c *Client) CheckCollectionStatus(ctx context.Context, collectionID string) (*CollectionStatusResponse, error) {
	var resp CollectionStatusResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/collections/%s/status", url.PathEscape(collectionID)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckPurchaseStatus polls the state of an async edition purchase
func (c *Client) CheckPurchaseStatus(ctx context.Context, purchaseID string) (*PurchaseStatusResponse, error) {
	var resp PurchaseStatusResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/purchases/%s/status", url.PathEscape(purchaseID)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchItem retrieves current server-side counters for an item
func (c *Client) FetchItem(ctx context.Context, itemID string) (*models.Item, error) {
	var item models.Item
	if err := c.get(ctx, fmt.Sprintf("/v1/items/%s", url.PathEscape(itemID)), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// post sends a JSON request and decodes the JSON response
func (c *Client) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), respBody)
}

func (c *Client) get(ctx context.Context, path string, respBody interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, respBody)
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, respBody interface{}) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("content api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil || errResp.Error == "" {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		c.logger.Debug("Content API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", errResp.Error))
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
