package store

import (
	"sync"

	"mintflow/internal/models"
)

// ItemStore holds the locally-known content counters for every item a
// screen has rendered, and reconciles them against server refreshes.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string]models.Item
}

// NewItemStore creates an empty item store
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]models.Item),
	}
}

// Get returns an item by id
func (s *ItemStore) Get(id string) (models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Put stores an item
func (s *ItemStore) Put(item models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// IDs lists every tracked item id
func (s *ItemStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	return ids
}

// ApplySuccess mutates counters for a terminal success and returns the
// updated item. Counters only ever move here, never on optimistic entry
// into the pipeline.
func (s *ItemStore) ApplySuccess(itemID string, kind models.OperationKind) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		item = models.Item{ID: itemID}
	}

	switch kind {
	case models.KindCollect:
		item.CollectCount++
		item.Collected = true
	case models.KindEdition:
		item.PurchaseCount++
		item.Purchased = true
	case models.KindTip:
		item.TipCount++
	}

	s.items[itemID] = item
	return item
}

// Apply folds a cross-screen update event into the local copy of an item
func (s *ItemStore) Apply(ev models.UpdateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Type == models.UpdatePostDeleted {
		delete(s.items, ev.ItemID)
		return
	}

	item, ok := s.items[ev.ItemID]
	if !ok {
		item = models.Item{ID: ev.ItemID}
	}

	switch ev.Type {
	case models.UpdateLikeCount:
		item.LikeCount = ev.Count
	case models.UpdateCommentCount:
		item.CommentCount = ev.Count
	case models.UpdateTipCount:
		item.TipCount = ev.Count
	case models.UpdateCollectCount:
		switch ev.Kind {
		case models.KindEdition:
			item.PurchaseCount = ev.Count
			item.Purchased = item.Purchased || ev.Owned
		default:
			item.CollectCount = ev.Count
			item.Collected = item.Collected || ev.Owned
		}
	}

	s.items[ev.ItemID] = item
}

// Reconcile merges a server-refreshed item with local optimistic state.
// A non-idle local collect/purchase state is never overwritten by a server
// value that contradicts it, except that a server-confirmed collected or
// purchased flag always wins.
func (s *ItemStore) Reconcile(server models.Item, states *StateStore) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, known := s.items[server.ID]
	merged := server

	if known {
		collectState := states.Get(models.ItemKey{ItemID: server.ID, Kind: models.KindCollect})
		if !server.Collected && collectState.Phase != models.PhaseIdle {
			merged.Collected = local.Collected
			if local.CollectCount > merged.CollectCount {
				merged.CollectCount = local.CollectCount
			}
		}

		purchaseState := states.Get(models.ItemKey{ItemID: server.ID, Kind: models.KindEdition})
		if !server.Purchased && purchaseState.Phase != models.PhaseIdle {
			merged.Purchased = local.Purchased
			if local.PurchaseCount > merged.PurchaseCount {
				merged.PurchaseCount = local.PurchaseCount
			}
		}
	}

	s.items[server.ID] = merged
	return merged
}
