package websocket

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/pkg/types"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	hs := httptest.NewServer(http.HandlerFunc(hub.HandleUpgrade))
	t.Cleanup(hs.Close)

	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	hub := NewHub(logger)
	defer hub.Close()

	// The upgrade handler registers the client before returning the
	// handshake response, so the subscriber is live once Dial returns.
	conn := dialTestHub(t, hub)

	event := &types.SettlementEvent{
		ID:         "event-1",
		MatchID:    "match-1",
		Mode:       "mint",
		FillAmount: big.NewInt(400000000000000000),
		Price:      big.NewInt(7900),
	}
	hub.Broadcast([]*types.SettlementEvent{event})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}

	var got types.SettlementEvent
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}

	if got.ID != event.ID {
		t.Errorf("expected event id %q, got %q", event.ID, got.ID)
	}
	if got.Mode != "mint" {
		t.Errorf("expected mode mint, got %q", got.Mode)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	hub := NewHub(logger)

	conn := dialTestHub(t, hub)

	hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			// Connection torn down by the hub.
			return
		}
	}
}

func TestHub_BroadcastAfterCloseIsNoop(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	hub := NewHub(logger)
	hub.Close()

	// Must not panic with no subscribers and a closed hub.
	hub.Broadcast([]*types.SettlementEvent{{
		ID:         "event-1",
		FillAmount: big.NewInt(1),
		Price:      big.NewInt(1),
	}})
}
