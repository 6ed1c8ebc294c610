package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DoyleJ11/domainguessr-backend/internal/directory"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestHub_Create_Lookup(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, time.Hour)
	defer func() { h.Inbox() <- ShutdownHub{} }()

	want := directory.Entry{PeerID: "host-1", Address: "ws://127.0.0.1:9000/peer"}
	if err := h.Create(ctx, "ZED123", want); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := h.Lookup(ctx, "ZED123")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != want {
		t.Fatalf("lookup: want %+v, got %+v", want, got)
	}

	if err := h.Create(ctx, "ZED123", directory.Entry{PeerID: "host-2"}); err != directory.ErrCodeTaken {
		t.Fatalf("second create: want ErrCodeTaken, got %v", err)
	}
}

func TestHub_Lookup_Unknown(t *testing.T) {
	h := NewHub(context.Background(), time.Hour)
	if _, err := h.Lookup(context.Background(), "NOPE00"); err != directory.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestHub_Expiry(t *testing.T) {
	ctx := context.Background()
	clk := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	h := NewHub(ctx, time.Minute, WithClock(clk.Now))

	if err := h.Create(ctx, "OLD111", directory.Entry{PeerID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := h.Create(ctx, "OLD222", directory.Entry{PeerID: "b"}); err != nil {
		t.Fatal(err)
	}

	clk.Add(time.Minute)

	if _, err := h.Lookup(ctx, "OLD111"); err != directory.ErrNotFound {
		t.Fatalf("expired lookup: want ErrNotFound, got %v", err)
	}
	// Expired codes can be reused.
	if err := h.Create(ctx, "OLD111", directory.Entry{PeerID: "c"}); err != nil {
		t.Fatalf("reuse expired code: %v", err)
	}

	h.Sweep()
	n, err := h.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("after sweep: want 1 lobby, got %d", n)
	}
}

func TestHub_Remove(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, time.Hour)

	_ = h.Create(ctx, "GONE12", directory.Entry{PeerID: "a"})
	if err := h.Remove(ctx, "GONE12"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Lookup(ctx, "GONE12"); err != directory.ErrNotFound {
		t.Fatalf("want ErrNotFound after remove, got %v", err)
	}
}

func TestHub_Shutdown(t *testing.T) {
	h := NewHub(context.Background(), time.Hour)
	h.Inbox() <- ShutdownHub{}

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if err := h.Create(context.Background(), "LATE12", directory.Entry{PeerID: "a"}); err == nil {
		t.Fatal("create after shutdown should fail")
	}
}

var _ directory.Store = (*Hub)(nil)
