package broadcast

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/niicolenco/tikbattle/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial hub: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	return msg
}

func TestHub_StatePushOnConnect(t *testing.T) {
	hub := NewHub(WithStateFunc(func() []Message {
		return []Message{
			{Type: "config", Data: map[string]any{"teams": []any{}}},
			{Type: "scores", Data: map[string]any{"rojo": 10}},
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	first := readMessage(t, conn)
	if first.Type != "config" {
		t.Errorf("expected config first, got %q", first.Type)
	}
	second := readMessage(t, conn)
	if second.Type != "scores" {
		t.Errorf("expected scores second, got %q", second.Type)
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dialHub(t, srv)
	defer first.Close()
	second := dialHub(t, srv)
	defer second.Close()

	// Wait for both registrations before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Broadcast(Message{Type: "TAPS_UPDATE", Data: map[string]any{"current": float64(42)}})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		if msg.Type != "TAPS_UPDATE" {
			t.Errorf("expected TAPS_UPDATE, got %q", msg.Type)
		}
		data, ok := msg.Data.(map[string]any)
		if !ok {
			t.Fatalf("expected object payload, got %T", msg.Data)
		}
		if data["current"] != float64(42) {
			t.Errorf("expected current 42, got %v", data["current"])
		}
	}
}

func TestHub_ClientDisconnectUpdatesCount(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after disconnect, got %d", got)
	}
}
