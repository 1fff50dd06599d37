package ws

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/store"
)

func newTestGateway(t *testing.T) (*Gateway, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	g := &Gateway{store: st, logger: zap.NewNop()}
	return g, st
}

func TestActiveMatchID(t *testing.T) {
	g, st := newTestGateway(t)
	ctx := context.Background()

	if got := g.activeMatchID(ctx, "u1"); got != "" {
		t.Fatalf("no binding should resolve empty, got %q", got)
	}

	if err := st.SetUserActiveMatch(ctx, "u1", "m1"); err != nil {
		t.Fatalf("seed binding: %v", err)
	}
	if got := g.activeMatchID(ctx, "u1"); got != "m1" {
		t.Fatalf("active match: got %q, want m1", got)
	}
}

func TestReconnectParticipant(t *testing.T) {
	g, st := newTestGateway(t)
	ctx := context.Background()

	// no recovery row: defer to the hub's own seat check
	if !g.reconnectParticipant(ctx, "u1", "m1") {
		t.Fatalf("missing row must not reject")
	}

	err := st.SaveActiveMatch(ctx, "m1", store.RecoveryInfo{
		LobbyID:         "AB2CDE",
		GameType:        "501",
		ConnectedIDs:    []string{"u1"},
		DisconnectedIDs: []string{"u2"},
	})
	if err != nil {
		t.Fatalf("seed row: %v", err)
	}

	if !g.reconnectParticipant(ctx, "u1", "m1") {
		t.Fatalf("connected participant must pass")
	}
	if !g.reconnectParticipant(ctx, "u2", "m1") {
		t.Fatalf("disconnected participant must pass")
	}
	if g.reconnectParticipant(ctx, "u3", "m1") {
		t.Fatalf("stranger must be rejected")
	}
}
