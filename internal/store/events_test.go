package store

import (
	"testing"

	"go.uber.org/zap"

	"mintflow/internal/models"
)

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch1, cancel1 := hub.Subscribe()
	defer cancel1()
	ch2, cancel2 := hub.Subscribe()
	defer cancel2()

	ev := models.UpdateEvent{Type: models.UpdateCollectCount, ItemID: "item1", Count: 3, Owned: true}
	hub.Publish(ev)

	for i, ch := range []<-chan models.UpdateEvent{ch1, ch2} {
		select {
		case got := <-ch:
			if got != ev {
				t.Errorf("subscriber %d got %+v, want %+v", i, got, ev)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Fill well past the buffer with nobody draining
	for i := 0; i < SubscriberBuffer+5; i++ {
		hub.Publish(models.UpdateEvent{Type: models.UpdateLikeCount, ItemID: "item1", Count: i})
	}

	// The oldest events were dropped to make room for the newest
	first := <-ch
	if first.Count != 5 {
		t.Errorf("expected oldest surviving event count 5, got %d", first.Count)
	}
	if got := len(ch); got != SubscriberBuffer-1 {
		t.Errorf("expected %d remaining buffered events, got %d", SubscriberBuffer-1, got)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())

	ch, cancel := hub.Subscribe()
	if got := hub.Subscribers(); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}
	if got := hub.Subscribers(); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}

	// Publishing after unsubscribe must not panic
	hub.Publish(models.UpdateEvent{Type: models.UpdateTipCount, ItemID: "item1"})

	// Double cancel is safe
	cancel()
}
