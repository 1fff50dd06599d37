package match

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/protocol"
)

// ErrNotYourSeat rejects callers acting for a player they do not own.
var ErrNotYourSeat = errors.New("not your turn")

// errNoop marks an accepted-but-empty mutation (undo on an empty turn); it
// never reaches callers.
var errNoop = errors.New("noop")

// actorFor resolves which player the caller may act as right now: the
// current player when the caller is that player or owns it as a proxy.
func (m *Match) actorFor(callerID string) (string, error) {
	current := m.state.CurrentPlayerID
	if current == callerID || m.seats[current] == callerID {
		return current, nil
	}
	return "", ErrNotYourSeat
}

// mutate runs one serialized mutation: resolve authority, apply, bump the
// version exactly once on success, log and broadcast.
func (m *Match) mutate(callerID, entryType string, apply func(actor string) (engine.Outcome, error)) Result {
	actor, err := m.actorFor(callerID)
	if err != nil {
		return Result{Version: m.version, Err: err}
	}

	out, err := apply(actor)
	if errors.Is(err, errNoop) {
		return Result{Version: m.version}
	}
	if err != nil {
		return Result{Version: m.version, Err: err}
	}

	m.bump(entryType, actor, nil)
	m.logOutcome(actor, out)
	m.broadcast()
	return Result{Outcome: out, Version: m.version}
}

func (m *Match) handleThrow(msg Throw) Result {
	return m.mutate(msg.CallerID, "THROW", func(actor string) (engine.Outcome, error) {
		d := engine.Dart{
			ID:         uuid.NewString(),
			Multiplier: msg.Multiplier,
			Value:      msg.Value,
			Timestamp:  time.Now(),
		}
		out, err := m.state.Throw(actor, d)
		if err != nil {
			return engine.Outcome{}, err
		}
		return out, nil
	})
}

// bump increments the version exactly once per accepted mutation and
// appends the primary log entry.
func (m *Match) bump(entryType, actorID string, payload map[string]any) {
	m.version++
	m.log = append(m.log, LogEntry{
		Type:      entryType,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Version:   m.version,
		Payload:   payload,
	})
}

// logOutcome appends secondary entries for rule outcomes at the current
// version (they are part of the same mutation).
func (m *Match) logOutcome(actorID string, out engine.Outcome) {
	add := func(entryType string, payload map[string]any) {
		m.log = append(m.log, LogEntry{
			Type:      entryType,
			ActorID:   actorID,
			Timestamp: time.Now(),
			Version:   m.version,
			Payload:   payload,
		})
	}
	if out.Bust {
		add("BUST", nil)
	}
	for _, c := range out.Captures {
		add("GOTCHA", map[string]any{"victimPlayerId": c.PlayerID, "victimTeamId": c.TeamID, "victimName": c.Name})
	}
	if out.Checkout {
		add("CHECKOUT", map[string]any{"leg": m.state.CurrentLeg})
	}
	if out.LegWon {
		add("LEG_WON", nil)
	}
	if out.SetWon {
		add("SET_WON", nil)
	}
	if out.GameOver {
		add("GAME_OVER", map[string]any{"winnerId": m.state.WinnerID, "winnerTeamId": m.state.WinnerTeamID})
	}
}

func (m *Match) snapshot() Snapshot {
	raw, err := jsonMarshalState(m.state)
	if err != nil {
		m.logger.Error("marshal state", zap.Error(err))
	}
	return Snapshot{Version: m.version, Phase: m.state.Phase, State: raw}
}

func (m *Match) snapshotPayload() protocol.GameStatePayload {
	snap := m.snapshot()
	return protocol.GameStatePayload{MatchID: m.ID, Version: snap.Version, State: snap.State}
}

// broadcast pushes the full post-mutation snapshot to every attached
// endpoint. Full outboxes are skipped, never waited on.
func (m *Match) broadcast() {
	msg := protocol.ServerMessage{Type: protocol.MsgGameState, Payload: m.snapshotPayload()}
	for _, c := range m.clients {
		if !c.Push(msg) {
			m.logger.Warn("dropping snapshot for slow client", zap.String("client", c.ID))
		}
	}
}
