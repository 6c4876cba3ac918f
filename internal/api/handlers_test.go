package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"mintflow/internal/models"
	"mintflow/internal/store"
)

type fakeStarter struct {
	mu     sync.Mutex
	starts []models.ItemKey
}

func (f *fakeStarter) Start(ctx context.Context, itemID string, kind models.OperationKind) models.PurchaseState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, models.ItemKey{ItemID: itemID, Kind: kind})
	return models.PurchaseState{Phase: models.PhaseSuccess}
}

func (f *fakeStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

type fakeWalletService struct {
	available      bool
	needsSelection bool
	kind           models.WalletKind
	address        string
	installed      []string
	selectErr      error
	selected       string
}

func (f *fakeWalletService) Available() bool         { return f.available }
func (f *fakeWalletService) NeedsSelection() bool    { return f.needsSelection }
func (f *fakeWalletService) Kind() models.WalletKind { return f.kind }
func (f *fakeWalletService) Address() string         { return f.address }
func (f *fakeWalletService) Installed() []string     { return f.installed }
func (f *fakeWalletService) Select(name string) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.selected = name
	f.needsSelection = false
	return nil
}

type fakeHistory struct {
	records []models.OperationRecord
	err     error
}

func (f *fakeHistory) OutcomesByAddress(ctx context.Context, walletAddress string, limit, offset int) ([]models.OperationRecord, error) {
	return f.records, f.err
}

func newTestRouter(t *testing.T, starter *fakeStarter, wallet *fakeWalletService, history *fakeHistory) (http.Handler, *store.StateStore, *store.ItemStore) {
	t.Helper()

	states := store.NewStateStore()
	items := store.NewItemStore()
	handler := NewHandler(starter, states, items, wallet, history, zap.NewNop())
	return SetupRouter(handler, zap.NewNop()), states, items
}

func TestHandleHealth(t *testing.T) {
	router, _, _ := newTestRouter(t, &fakeStarter{}, &fakeWalletService{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}
}

func TestStartEndpointsRouteKinds(t *testing.T) {
	tests := []struct {
		path string
		kind models.OperationKind
	}{
		{"/api/v1/items/item1/collect", models.KindCollect},
		{"/api/v1/items/item1/purchase", models.KindEdition},
		{"/api/v1/items/item1/tip", models.KindTip},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			starter := &fakeStarter{}
			router, _, _ := newTestRouter(t, starter, &fakeWalletService{}, &fakeHistory{})

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusAccepted {
				t.Fatalf("expected 202, got %d", rec.Code)
			}

			var resp StartResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.ItemID != "item1" || resp.Kind != tt.kind {
				t.Errorf("unexpected response: %+v", resp)
			}

			// The pipeline runs detached; wait for the dispatch
			deadline := time.Now().Add(time.Second)
			for starter.count() == 0 {
				if time.Now().After(deadline) {
					t.Fatal("coordinator never started")
				}
				time.Sleep(time.Millisecond)
			}
			starter.mu.Lock()
			got := starter.starts[0]
			starter.mu.Unlock()
			if got.Kind != tt.kind {
				t.Errorf("started kind %s, want %s", got.Kind, tt.kind)
			}
		})
	}
}

func TestHandleGetItemState(t *testing.T) {
	router, states, _ := newTestRouter(t, &fakeStarter{}, &fakeWalletService{}, &fakeHistory{})

	states.Set(models.ItemKey{ItemID: "item1", Kind: models.KindEdition},
		models.PurchaseState{Phase: models.PhaseConfirming, OperationID: "pur1"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/item1/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ItemStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if got := resp.States[models.KindEdition]; got.Phase != models.PhaseConfirming || got.OperationID != "pur1" {
		t.Errorf("unexpected edition state: %+v", got)
	}
	if got := resp.States[models.KindCollect]; got.Phase != models.PhaseIdle {
		t.Errorf("expected idle collect state, got %+v", got)
	}
}

func TestHandleGetItem(t *testing.T) {
	router, _, items := newTestRouter(t, &fakeStarter{}, &fakeWalletService{}, &fakeHistory{})
	items.Put(models.Item{ID: "item1", CollectCount: 3})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/item1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", rec.Code)
	}
}

func TestHandleGetWallet(t *testing.T) {
	wallet := &fakeWalletService{
		available:      true,
		needsSelection: true,
		kind:           models.WalletExternal,
		installed:      []string{"phantom", "solflare"},
	}
	router, _, _ := newTestRouter(t, &fakeStarter{}, wallet, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp WalletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != models.WalletExternal || !resp.Available || !resp.NeedsSelection {
		t.Errorf("unexpected wallet response: %+v", resp)
	}
}

func TestHandleSelectWallet(t *testing.T) {
	wallet := &fakeWalletService{available: true, needsSelection: true, kind: models.WalletExternal}
	router, _, _ := newTestRouter(t, &fakeStarter{}, wallet, &fakeHistory{})

	body, _ := json.Marshal(SelectWalletRequest{Name: "phantom"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/select", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if wallet.selected != "phantom" {
		t.Errorf("expected phantom selected, got %q", wallet.selected)
	}
}

func TestHandleSelectWalletValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		prep func(w *fakeWalletService)
	}{
		{"invalid json", "{not json", nil},
		{"missing name", "{}", nil},
		{"unknown adapter", `{"name":"ghost"}`, func(w *fakeWalletService) {
			w.selectErr = errors.New("no such adapter")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := &fakeWalletService{kind: models.WalletExternal}
			if tt.prep != nil {
				tt.prep(wallet)
			}
			router, _, _ := newTestRouter(t, &fakeStarter{}, wallet, &fakeHistory{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/select", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandleGetHistory(t *testing.T) {
	history := &fakeHistory{records: []models.OperationRecord{
		{ItemID: "item1", Kind: models.KindEdition, Status: models.OutcomeSuccess},
	}}
	router, _, _ := newTestRouter(t, &fakeStarter{}, &fakeWalletService{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/addr1?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 1 || resp.Records[0].ItemID != "item1" {
		t.Errorf("unexpected history: %+v", resp)
	}
}

func TestHandleGetHistoryError(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	router, _, _ := newTestRouter(t, &fakeStarter{}, &fakeWalletService{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/addr1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
