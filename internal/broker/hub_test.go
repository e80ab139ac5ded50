package broker

import (
	"testing"
	"time"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

func recv(t *testing.T, sub *Subscription) []byte {
	t.Helper()
	select {
	case frame, ok := <-sub.C():
		if !ok {
			t.Fatalf("subscription %s closed", sub.ID)
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for frame on %s", sub.ID)
	}
	return nil
}

func TestHub_BroadcastReachesEverySubscriber(t *testing.T) {
	h := NewHub(HubConfig{})
	a, b := h.Subscribe(), h.Subscribe()
	if a.ID == b.ID {
		t.Fatalf("subscription ids collide: %s", a.ID)
	}
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}

	msg, err := models.Decode([]byte(`{"type":"offer","sender":"alice","data":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	h.Broadcast(msg)

	for _, sub := range []*Subscription{a, b} {
		if got := string(recv(t, sub)); got != string(msg.Raw()) {
			t.Fatalf("%s got %s", sub.ID, got)
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(HubConfig{})
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel should be closed")
	}
	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}

	// Publishing after unsubscribe must not panic.
	h.Publish([]byte(`{}`))
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	h := NewHub(HubConfig{SubscriberBuffer: 2})
	slow := h.Subscribe()
	fast := h.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			h.Publish([]byte{byte('0' + i)})
			<-fast.C()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}

	if got := len(slow.C()); got != 2 {
		t.Fatalf("slow subscriber queued %d frames, want 2", got)
	}
	if got := string(recv(t, slow)); got != "0" {
		t.Fatalf("first queued frame = %q, want %q", got, "0")
	}
}
