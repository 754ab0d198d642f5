package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testEvent(slug string) Event {
	return Event{
		Type:         LayoutUpdated,
		CampaignID:   "camp",
		CampaignSlug: slug,
		EntityID:     "layout-1",
		At:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestEventCodec(t *testing.T) {
	t.Parallel()

	data, err := encodeEvent(testEvent("night-watch"))
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	got, err := decodeEvent(data)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if got.Type != LayoutUpdated || got.CampaignSlug != "night-watch" || !got.At.Equal(testEvent("").At) {
		t.Fatalf("decodeEvent() = %+v", got)
	}
	if _, err := decodeEvent([]byte(`{"type":"layout.updated"}`)); err == nil {
		t.Fatal("expected error for event without slug")
	}
	if _, err := decodeEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	second, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := bus.Publish(ctx, testEvent("night-watch")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if ev := receive(t, first); ev.EntityID != "layout-1" {
		t.Fatalf("first got %+v", ev)
	}
	if ev := receive(t, second); ev.EntityID != "layout-1" {
		t.Fatalf("second got %+v", ev)
	}
	if err := bus.Publish(ctx, Event{Type: LayoutUpdated}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMemoryBusSubscriptionEndsWithContext(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestMemoryBusClosed(t *testing.T) {
	t.Parallel()

	bus := NewMemoryBus()
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Publish(context.Background(), testEvent("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Publish() error = %v, want ErrClosed", err)
	}
	if _, err := bus.Subscribe(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Subscribe() error = %v, want ErrClosed", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubPushesEventsToWatchers(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	bus := NewMemoryBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeOverlay(w, r, strings.TrimPrefix(r.URL.Path, "/ws/overlay/"))
	}))
	defer srv.Close()

	runErr := make(chan error, 1)
	go func() { runErr <- hub.Run(ctx, bus) }()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/overlay/night-watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.Clients("night-watch") == 1 })

	// Give Run a moment to subscribe before publishing.
	waitFor(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.subs) == 1
	})
	if err := bus.Publish(ctx, testEvent("other-campaign")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish(ctx, testEvent("night-watch")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != LayoutUpdated || msg.Slug != "night-watch" || msg.EntityID != "layout-1" {
		t.Fatalf("message = %+v", msg)
	}

	_ = conn.Close()
	waitFor(t, func() bool { return hub.Clients("night-watch") == 0 })

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestHubOriginCheck(t *testing.T) {
	t.Parallel()

	check := originChecker([]string{"https://cards.example"})
	allowed := httptest.NewRequest(http.MethodGet, "/", nil)
	allowed.Header.Set("Origin", "https://cards.example")
	denied := httptest.NewRequest(http.MethodGet, "/", nil)
	denied.Header.Set("Origin", "https://evil.example")
	if !check(allowed) {
		t.Fatal("expected allowed origin to pass")
	}
	if check(denied) {
		t.Fatal("expected foreign origin to fail")
	}
	if !originChecker([]string{"*"})(denied) {
		t.Fatal("expected wildcard to accept any origin")
	}
}

func TestServeOverlayRequiresSlug(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewHub(nil).ServeOverlay(rec, httptest.NewRequest(http.MethodGet, "/ws/overlay/", nil), " ")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	url := strings.TrimSpace(os.Getenv("TABLECARDS_TEST_REDIS_URL"))
	if url == "" {
		t.Skip("TABLECARDS_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus, err := OpenRedis(ctx, url)
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	defer bus.Close()

	events, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := bus.Publish(ctx, testEvent("night-watch")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if ev := receive(t, events); ev.CampaignSlug != "night-watch" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := OpenRedis(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
