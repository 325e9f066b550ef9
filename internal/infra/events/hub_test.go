package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-video-queue/internal/domain/model"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	l := zerolog.Nop()
	h := NewHub(&l)
	conn := dial(t, h)

	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	h.Publish(model.JobEvent{JobID: "01J", Status: model.JobStatusCompleted, ResultRef: "https://v/1.mp4", At: at})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got model.JobEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.JobID != "01J" || got.Status != model.JobStatusCompleted || !got.At.Equal(at) {
		t.Errorf("got %+v", got)
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	l := zerolog.Nop()
	h := NewHub(&l)
	conn := dial(t, h)

	h.Close()
	if h.Clients() != 0 {
		t.Fatalf("clients = %d after Close", h.Clients())
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
	// publishing after close is a no-op
	h.Publish(model.JobEvent{JobID: "x"})
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	l := zerolog.Nop()
	h := NewHub(&l)
	h.Publish(model.JobEvent{JobID: "nobody-listens"})
}
