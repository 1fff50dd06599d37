package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/protocol"
	"github.com/openboard/darts-server/internal/session"
)

func newTestMatch(t *testing.T, opts engine.Options) *Match {
	t.Helper()
	state := engine.NewState(engine.Game501, opts, []engine.Player{{ID: "p1"}, {ID: "p2"}}, nil)
	seats := map[string]string{"p1": "u1", "p2": "u2"}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := New(ctx, zap.NewNop(), "m1", state, seats)

	reply := make(chan error, 1)
	m.Inbox() <- Start{Reply: reply}
	if err := recvErr(t, reply); err != nil {
		t.Fatalf("start: %v", err)
	}
	return m
}

func recvErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reply")
		return nil
	}
}

func recvResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
		return Result{}
	}
}

func recvMessage(t *testing.T, ch <-chan protocol.ServerMessage) protocol.ServerMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
		return protocol.ServerMessage{}
	}
}

func throw(t *testing.T, m *Match, callerID string, mult engine.Multiplier, value int) Result {
	t.Helper()
	reply := make(chan Result, 1)
	m.Inbox() <- Throw{CallerID: callerID, Multiplier: mult, Value: value, Reply: reply}
	return recvResult(t, reply)
}

func getSnapshot(t *testing.T, m *Match) Snapshot {
	t.Helper()
	reply := make(chan Snapshot, 1)
	m.Inbox() <- GetState{Reply: reply}
	select {
	case snap := <-reply:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestMatch_VersionIncrementsOncePerMutation(t *testing.T) {
	m := newTestMatch(t, engine.DefaultOptions(engine.Game501))

	snap := getSnapshot(t, m)
	if snap.Version != 2 { // 1 at creation, +1 for START
		t.Fatalf("version after start: got %d, want 2", snap.Version)
	}

	res := throw(t, m, "u1", engine.Triple, 20)
	if res.Err != nil {
		t.Fatalf("throw: %v", res.Err)
	}
	if res.Version != 3 {
		t.Fatalf("version after throw: got %d, want 3", res.Version)
	}
}

func TestMatch_RejectedMutationKeepsVersion(t *testing.T) {
	m := newTestMatch(t, engine.DefaultOptions(engine.Game501))

	res := throw(t, m, "u2", engine.Single, 20) // p1's turn, u2 has no claim
	if !errors.Is(res.Err, ErrNotYourSeat) {
		t.Fatalf("want ErrNotYourSeat, got %v", res.Err)
	}
	if res.Version != 2 {
		t.Fatalf("version must not move on reject: got %d", res.Version)
	}
}

func TestMatch_UndoOnEmptyTurnIsNoop(t *testing.T) {
	m := newTestMatch(t, engine.DefaultOptions(engine.Game501))

	reply := make(chan Result, 1)
	m.Inbox() <- UndoThrow{CallerID: "u1", Reply: reply}
	res := recvResult(t, reply)
	if res.Err != nil {
		t.Fatalf("noop undo must not error: %v", res.Err)
	}
	if res.Version != 2 {
		t.Fatalf("noop undo must not bump version: got %d", res.Version)
	}
}

func TestMatch_AttachPushesSnapshot(t *testing.T) {
	m := newTestMatch(t, engine.DefaultOptions(engine.Game501))

	c := session.New("c1", 8)
	c.UserID = "u1"
	m.Inbox() <- Attach{Client: c}

	msg := recvMessage(t, c.Send)
	if msg.Type != protocol.MsgGameState {
		t.Fatalf("attach should push a snapshot, got %s", msg.Type)
	}
	payload, ok := msg.Payload.(protocol.GameStatePayload)
	if !ok {
		t.Fatalf("unexpected payload %T", msg.Payload)
	}
	if payload.MatchID != "m1" || payload.Version != 2 {
		t.Fatalf("payload: %+v", payload)
	}
}

func TestMatch_BroadcastReachesAllClients(t *testing.T) {
	m := newTestMatch(t, engine.DefaultOptions(engine.Game501))

	c1 := session.New("c1", 8)
	c2 := session.New("c2", 8)
	m.Inbox() <- Attach{Client: c1}
	m.Inbox() <- Attach{Client: c2}
	recvMessage(t, c1.Send) // attach snapshots
	recvMessage(t, c2.Send)

	if res := throw(t, m, "u1", engine.Single, 20); res.Err != nil {
		t.Fatalf("throw: %v", res.Err)
	}

	for _, c := range []*session.Client{c1, c2} {
		msg := recvMessage(t, c.Send)
		payload := msg.Payload.(protocol.GameStatePayload)
		if payload.Version != 3 {
			t.Fatalf("client %s version: got %d, want 3", c.ID, payload.Version)
		}
	}
}

func TestMatch_FinishedRejectsThrows(t *testing.T) {
	m := newTestMatch(t, engine.Options{StartingScore: 40, DoubleOut: true, Legs: 1, Sets: 1})

	res := throw(t, m, "u1", engine.Double, 20)
	if res.Err != nil || !res.Outcome.GameOver {
		t.Fatalf("expected winning throw, got %+v", res)
	}

	res = throw(t, m, "u1", engine.Single, 20)
	if !errors.Is(res.Err, engine.ErrFinished) {
		t.Fatalf("want ErrFinished, got %v", res.Err)
	}
}

func TestMatch_LogRecordsOutcomes(t *testing.T) {
	m := newTestMatch(t, engine.Options{StartingScore: 40, DoubleOut: true, Legs: 1, Sets: 1})

	throw(t, m, "u1", engine.Double, 20)

	reply := make(chan []LogEntry, 1)
	m.Inbox() <- GetLog{Reply: reply}
	var log []LogEntry
	select {
	case log = <-reply:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for log")
	}

	want := map[string]bool{"START": false, "THROW": false, "CHECKOUT": false, "GAME_OVER": false}
	for _, e := range log {
		if _, ok := want[e.Type]; ok {
			want[e.Type] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Fatalf("log missing %s entry: %+v", typ, log)
		}
	}
}
