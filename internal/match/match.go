package match

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/protocol"
	"github.com/openboard/darts-server/internal/session"
)

type Msg interface{ isMatchMsg() }

type Start struct{ Reply chan error }

// Throw submits one scoring event. CallerID is the authenticated user; the
// actor resolves whether they own the player whose turn it is.
type Throw struct {
	CallerID   string
	Multiplier engine.Multiplier
	Value      int
	Reply      chan Result
}

type EndTurn struct {
	CallerID string
	Reply    chan Result
}

type UndoThrow struct {
	CallerID string
	Reply    chan Result
}

type UndoRound struct {
	CallerID string
	Reply    chan Result
}

type Attach struct{ Client *session.Client }

type Detach struct{ ClientID string }

// Notify fans an out-of-band notice (join/leave/disconnect) through the
// match's broadcast group.
type Notify struct{ Msg protocol.ServerMessage }

type GetState struct{ Reply chan Snapshot }

type GetLog struct{ Reply chan []LogEntry }

type Shutdown struct{}

func (Start) isMatchMsg()     {}
func (Throw) isMatchMsg()     {}
func (EndTurn) isMatchMsg()   {}
func (UndoThrow) isMatchMsg() {}
func (UndoRound) isMatchMsg() {}
func (Attach) isMatchMsg()    {}
func (Detach) isMatchMsg()    {}
func (Notify) isMatchMsg()    {}
func (GetState) isMatchMsg()  {}
func (GetLog) isMatchMsg()    {}
func (Shutdown) isMatchMsg()  {}

type Result struct {
	Outcome engine.Outcome
	Version int
	Err     error
}

type Snapshot struct {
	Version int
	Phase   engine.Phase
	State   json.RawMessage
}

// LogEntry is one append-only observability record per accepted mutation
// effect.
type LogEntry struct {
	Type      string
	ActorID   string
	Timestamp time.Time
	Version   int
	Payload   map[string]any
}

// Match owns exactly one engine state. All mutation flows through the
// inbox and is applied by the single loop goroutine.
type Match struct {
	ID string

	inbox   chan Msg
	state   *engine.State
	version int
	seats   map[string]string // playerID -> owning userID
	log     []LogEntry
	clients map[string]*session.Client
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, logger *zap.Logger, id string, state *engine.State, seats map[string]string) *Match {
	ctx, cancel := context.WithCancel(parent)
	m := &Match{
		ID:      id,
		inbox:   make(chan Msg, 64),
		state:   state,
		version: 1,
		seats:   seats,
		clients: make(map[string]*session.Client),
		logger:  logger.With(zap.String("match", id)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go m.loop()
	return m
}

func (m *Match) Inbox() chan<- Msg { return m.inbox }

func (m *Match) loop() {
	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case msg := <-m.inbox:
			switch msg := msg.(type) {
			case Start:
				err := m.state.Start()
				if err == nil {
					m.bump("START", "", nil)
					m.broadcast()
				}
				msg.Reply <- err

			case Throw:
				msg.Reply <- m.handleThrow(msg)

			case EndTurn:
				msg.Reply <- m.mutate(msg.CallerID, "END_TURN", func(actor string) (engine.Outcome, error) {
					return engine.Outcome{}, m.state.EndTurn(actor)
				})

			case UndoThrow:
				msg.Reply <- m.mutate(msg.CallerID, "UNDO_THROW", func(actor string) (engine.Outcome, error) {
					if !m.state.UndoThrow(actor) {
						return engine.Outcome{}, errNoop
					}
					return engine.Outcome{}, nil
				})

			case UndoRound:
				msg.Reply <- m.mutate(msg.CallerID, "UNDO_ROUND", func(actor string) (engine.Outcome, error) {
					if !m.state.UndoRound(actor) {
						return engine.Outcome{}, errNoop
					}
					return engine.Outcome{}, nil
				})

			case Attach:
				m.clients[msg.Client.ID] = msg.Client
				msg.Client.Push(protocol.ServerMessage{Type: protocol.MsgGameState, Payload: m.snapshotPayload()})

			case Detach:
				delete(m.clients, msg.ClientID)

			case Notify:
				for _, c := range m.clients {
					c.Push(msg.Msg)
				}

			case GetState:
				msg.Reply <- m.snapshot()

			case GetLog:
				msg.Reply <- append([]LogEntry(nil), m.log...)

			case Shutdown:
				m.shutdown()
				return
			}
		}
	}
}

func (m *Match) shutdown() {
	clear(m.clients)
	m.cancel()
}
