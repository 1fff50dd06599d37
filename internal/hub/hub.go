package hub

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/lobby"
	"github.com/openboard/darts-server/internal/match"
	"github.com/openboard/darts-server/internal/protocol"
	"github.com/openboard/darts-server/internal/session"
	"github.com/openboard/darts-server/internal/store"
)

var ErrLobbyNotFound = errors.New("lobby not found")
var ErrMatchNotFound = errors.New("match not found")
var ErrAlreadyInLobby = errors.New("already in a lobby")
var ErrNoSession = errors.New("no active session")
var ErrNotParticipant = errors.New("you are not a participant of this match")

type Msg interface{ isHubMsg() }

type LobbyResult struct {
	Lobby *lobby.Lobby
	Err   error
}

type CreateLobby struct {
	Owner      *session.Client
	GameType   engine.GameType
	Options    engine.Options
	MaxPlayers int
	Reply      chan LobbyResult
}

type JoinLobby struct {
	Client  *session.Client
	LobbyID string
	Reply   chan LobbyResult
}

type LeaveLobby struct {
	UserID string
	Reply  chan error
}

type ListLobbies struct{ Reply chan []lobby.View }

// Session is a user's current bindings; either pointer may be nil.
type Session struct {
	Lobby *lobby.Lobby
	Match *match.Match
}

type GetSession struct {
	UserID string
	Reply  chan Session
}

type StartMatch struct {
	UserID string
	Reply  chan lobby.StartResult
}

// Disconnect is sent by the gateway when a socket closes. In a waiting
// lobby it is a leave; mid-match the seat is kept for reconnection.
type Disconnect struct{ Client *session.Client }

type Reconnect struct {
	Client  *session.Client
	MatchID string
	Reply   chan error
}

// FinishMatch retires a completed match and flips its lobby to finished.
type FinishMatch struct{ MatchID string }

type Shutdown struct{}

func (CreateLobby) isHubMsg() {}
func (JoinLobby) isHubMsg()   {}
func (LeaveLobby) isHubMsg()  {}
func (ListLobbies) isHubMsg() {}
func (GetSession) isHubMsg()  {}
func (StartMatch) isHubMsg()  {}
func (Disconnect) isHubMsg()  {}
func (Reconnect) isHubMsg()   {}
func (FinishMatch) isHubMsg() {}
func (Shutdown) isHubMsg()    {}

type binding struct {
	lobbyID string
	matchID string
}

type matchEntry struct {
	m         *match.Match
	lobbyID   string
	gameType  string
	connected map[string]bool // networked userID -> socket currently open
	names     map[string]string
}

// Hub is the directory actor: it owns the lobby and match registries and
// every user's at-most-one active binding. Lookups and lifecycle changes
// are serialized through its inbox; gameplay traffic goes straight to the
// lobby and match actors it hands out.
type Hub struct {
	inbox   chan Msg
	lobbies map[string]*lobby.Lobby
	matches map[string]*matchEntry
	users   map[string]*binding
	store   store.Store
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, logger *zap.Logger, st store.Store) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan Msg, 256),
		lobbies: make(map[string]*lobby.Lobby),
		matches: make(map[string]*matchEntry),
		users:   make(map[string]*binding),
		store:   st,
		logger:  logger.With(zap.String("component", "hub")),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				msg.Reply <- h.handleCreateLobby(msg)
			case JoinLobby:
				msg.Reply <- h.handleJoinLobby(msg)
			case LeaveLobby:
				msg.Reply <- h.handleLeaveLobby(msg.UserID)
			case ListLobbies:
				msg.Reply <- h.handleListLobbies()
			case GetSession:
				msg.Reply <- h.sessionOf(msg.UserID)
			case StartMatch:
				msg.Reply <- h.handleStartMatch(msg.UserID)
			case Disconnect:
				h.handleDisconnect(msg.Client)
			case Reconnect:
				msg.Reply <- h.handleReconnect(msg.Client, msg.MatchID)
			case FinishMatch:
				h.handleFinishMatch(msg.MatchID)
			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, l := range h.lobbies {
		l.Inbox() <- lobby.Shutdown{}
	}
	for _, e := range h.matches {
		e.m.Inbox() <- match.Shutdown{}
	}
	clear(h.lobbies)
	clear(h.matches)
	clear(h.users)
	h.cancel()
}

// Join codes avoid lookalike characters so they survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (h *Hub) newLobbyCode() string {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		if _, taken := h.lobbies[string(b)]; !taken {
			return string(b)
		}
	}
}

func (h *Hub) handleCreateLobby(msg CreateLobby) LobbyResult {
	if b := h.users[msg.Owner.UserID]; b != nil && b.lobbyID != "" {
		return LobbyResult{Err: ErrAlreadyInLobby}
	}
	opts := msg.Options
	if opts == (engine.Options{}) {
		opts = engine.DefaultOptions(msg.GameType)
	}
	l := lobby.New(h.ctx, h.logger, h.newLobbyCode(), msg.Owner, msg.GameType, opts, msg.MaxPlayers)
	h.lobbies[l.ID] = l
	h.users[msg.Owner.UserID] = &binding{lobbyID: l.ID}
	h.logger.Info("lobby created",
		zap.String("lobby", l.ID),
		zap.String("owner", msg.Owner.UserID),
		zap.String("gameType", string(msg.GameType)))
	return LobbyResult{Lobby: l}
}

func (h *Hub) handleJoinLobby(msg JoinLobby) LobbyResult {
	l, ok := h.lobbies[msg.LobbyID]
	if !ok {
		return LobbyResult{Err: ErrLobbyNotFound}
	}
	if b := h.users[msg.Client.UserID]; b != nil && b.lobbyID != "" && b.lobbyID != msg.LobbyID {
		return LobbyResult{Err: ErrAlreadyInLobby}
	}
	reply := make(chan error, 1)
	l.Inbox() <- lobby.Join{Client: msg.Client, Reply: reply}
	if err := <-reply; err != nil {
		return LobbyResult{Err: err}
	}
	h.users[msg.Client.UserID] = &binding{lobbyID: l.ID}
	return LobbyResult{Lobby: l}
}

func (h *Hub) handleLeaveLobby(userID string) error {
	b := h.users[userID]
	if b == nil || b.lobbyID == "" {
		return ErrNoSession
	}
	l, ok := h.lobbies[b.lobbyID]
	if !ok {
		delete(h.users, userID)
		return nil
	}
	reply := make(chan lobby.LeaveResult, 1)
	l.Inbox() <- lobby.Leave{UserID: userID, Reply: reply}
	res := <-reply
	delete(h.users, userID)
	if res.Retired {
		h.retireLobby(l.ID)
	}
	return nil
}

// retireLobby drops the lobby and every remaining binding to it. A match
// spawned from it keeps running on its own.
func (h *Hub) retireLobby(lobbyID string) {
	l, ok := h.lobbies[lobbyID]
	if !ok {
		return
	}
	l.Inbox() <- lobby.Shutdown{}
	delete(h.lobbies, lobbyID)
	for uid, b := range h.users {
		if b.lobbyID == lobbyID {
			if b.matchID == "" {
				delete(h.users, uid)
			} else {
				b.lobbyID = ""
			}
		}
	}
	h.logger.Info("lobby retired", zap.String("lobby", lobbyID))
}

func (h *Hub) handleListLobbies() []lobby.View {
	views := make([]lobby.View, 0, len(h.lobbies))
	for _, l := range h.lobbies {
		reply := make(chan lobby.View, 1)
		l.Inbox() <- lobby.GetView{Reply: reply}
		v := <-reply
		if v.Status == lobby.StatusWaiting {
			views = append(views, v)
		}
	}
	return views
}

func (h *Hub) sessionOf(userID string) Session {
	b := h.users[userID]
	if b == nil {
		return Session{}
	}
	var s Session
	if b.lobbyID != "" {
		s.Lobby = h.lobbies[b.lobbyID]
	}
	if b.matchID != "" {
		if e, ok := h.matches[b.matchID]; ok {
			s.Match = e.m
		}
	}
	return s
}

func (h *Hub) handleStartMatch(userID string) lobby.StartResult {
	b := h.users[userID]
	if b == nil || b.lobbyID == "" {
		return lobby.StartResult{Err: ErrNoSession}
	}
	l, ok := h.lobbies[b.lobbyID]
	if !ok {
		return lobby.StartResult{Err: ErrLobbyNotFound}
	}

	reply := make(chan lobby.StartResult, 1)
	l.Inbox() <- lobby.Start{UserID: userID, Reply: reply}
	res := <-reply
	if res.Err != nil {
		return res
	}

	viewReply := make(chan lobby.View, 1)
	l.Inbox() <- lobby.GetView{Reply: viewReply}
	view := <-viewReply

	entry := &matchEntry{
		m:         res.Match,
		lobbyID:   l.ID,
		gameType:  view.GameType,
		connected: make(map[string]bool),
		names:     make(map[string]string, len(view.Players)),
	}
	for _, p := range view.Players {
		entry.names[p.ID] = p.DisplayName
		if p.Type == lobby.PlayerAuthenticated {
			entry.connected[p.ID] = true
			if ub := h.users[p.ID]; ub != nil {
				ub.matchID = res.Match.ID
			} else {
				h.users[p.ID] = &binding{lobbyID: l.ID, matchID: res.Match.ID}
			}
			h.persistUserMatch(p.ID, res.Match.ID)
		}
	}
	h.matches[res.Match.ID] = entry
	h.persistMatch(res.Match.ID, entry)
	h.logger.Info("match started",
		zap.String("match", res.Match.ID),
		zap.String("lobby", l.ID),
		zap.String("gameType", view.GameType))
	return res
}

func (h *Hub) handleDisconnect(c *session.Client) {
	b := h.users[c.UserID]
	if b == nil {
		return
	}
	if b.matchID != "" {
		e, ok := h.matches[b.matchID]
		if ok {
			e.connected[c.UserID] = false
			e.m.Inbox() <- match.Detach{ClientID: c.ID}
			e.m.Inbox() <- match.Notify{Msg: protocol.ServerMessage{
				Type:    protocol.MsgPlayerDisconnected,
				Payload: protocol.PlayerNoticePayload{PlayerID: c.UserID, DisplayName: e.names[c.UserID]},
			}}
			h.persistMatch(b.matchID, e)
			h.logger.Info("player disconnected mid-match",
				zap.String("match", b.matchID), zap.String("user", c.UserID))
		}
		if b.lobbyID != "" {
			if l, ok := h.lobbies[b.lobbyID]; ok {
				l.Inbox() <- lobby.DetachClient{ClientID: c.ID}
			}
		}
		return
	}
	// no match in flight: dropping the socket is leaving the lobby
	_ = h.handleLeaveLobby(c.UserID)
}

func (h *Hub) handleReconnect(c *session.Client, matchID string) error {
	e, ok := h.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	if _, seated := e.connected[c.UserID]; !seated {
		return ErrNotParticipant
	}
	b := h.users[c.UserID]
	if b == nil {
		b = &binding{lobbyID: e.lobbyID}
		h.users[c.UserID] = b
	}
	b.matchID = matchID
	e.connected[c.UserID] = true
	e.m.Inbox() <- match.Attach{Client: c}
	e.m.Inbox() <- match.Notify{Msg: protocol.ServerMessage{
		Type:    protocol.MsgPlayerReconnected,
		Payload: protocol.PlayerNoticePayload{PlayerID: c.UserID, DisplayName: e.names[c.UserID]},
	}}
	h.persistMatch(matchID, e)
	h.logger.Info("player reconnected",
		zap.String("match", matchID), zap.String("user", c.UserID))
	return nil
}

func (h *Hub) handleFinishMatch(matchID string) {
	e, ok := h.matches[matchID]
	if !ok {
		return
	}
	if l, alive := h.lobbies[e.lobbyID]; alive {
		l.Inbox() <- lobby.Finish{}
	}
	for uid, b := range h.users {
		if b.matchID == matchID {
			b.matchID = ""
			h.persistUserMatch(uid, "")
			if b.lobbyID == "" {
				delete(h.users, uid)
			}
		}
	}
	e.m.Inbox() <- match.Shutdown{}
	delete(h.matches, matchID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.ClearActiveMatch(ctx, matchID); err != nil {
			h.logger.Warn("clear recovery row", zap.String("match", matchID), zap.Error(err))
		}
	}()
	h.logger.Info("match finished", zap.String("match", matchID))
}

// persistMatch writes the recovery row off the actor goroutine; the info
// struct is copied first so the goroutine never reads live maps.
func (h *Hub) persistMatch(matchID string, e *matchEntry) {
	info := store.RecoveryInfo{
		LobbyID:      e.lobbyID,
		GameType:     e.gameType,
		DisplayNames: make(map[string]string, len(e.names)),
	}
	for id, name := range e.names {
		info.DisplayNames[id] = name
	}
	for uid, up := range e.connected {
		if up {
			info.ConnectedIDs = append(info.ConnectedIDs, uid)
		} else {
			info.DisconnectedIDs = append(info.DisconnectedIDs, uid)
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.SaveActiveMatch(ctx, matchID, info); err != nil {
			h.logger.Warn("save recovery row", zap.String("match", matchID), zap.Error(err))
		}
	}()
}

func (h *Hub) persistUserMatch(userID, matchID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.SetUserActiveMatch(ctx, userID, matchID); err != nil {
			h.logger.Warn("save user match binding", zap.String("user", userID), zap.Error(err))
		}
	}()
}
