package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/auth"
	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/hub"
	"github.com/openboard/darts-server/internal/lobby"
	"github.com/openboard/darts-server/internal/match"
	"github.com/openboard/darts-server/internal/protocol"
	"github.com/openboard/darts-server/internal/rtc"
	"github.com/openboard/darts-server/internal/session"
	"github.com/openboard/darts-server/internal/store"
)

const (
	authTimeout  = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// Gateway owns the websocket endpoint: one goroutine pair per connection,
// AUTH-first handshake, then message dispatch into the hub and the actors
// it hands out.
type Gateway struct {
	hub        *hub.Hub
	verifier   auth.Verifier
	store      store.Store
	issuer     *rtc.Issuer
	logger     *zap.Logger
	sendBuffer int
	origins    []string
}

func NewGateway(h *hub.Hub, v auth.Verifier, st store.Store, issuer *rtc.Issuer, logger *zap.Logger, sendBuffer int, origins []string) *Gateway {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Gateway{
		hub:        h,
		verifier:   v,
		store:      st,
		issuer:     issuer,
		logger:     logger.With(zap.String("component", "ws")),
		sendBuffer: sendBuffer,
		origins:    origins,
	}
}

func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// empty ORIGINS keeps the library's same-origin default
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: g.origins,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		client := session.New(randID(8), g.sendBuffer)

		// Writer goroutine: the only place that touches conn.Write after
		// the handshake. The outbox is never closed; actors may race a
		// final Push against teardown, and those messages just get
		// collected with the client.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg := <-client.Send:
					payload, err := json.Marshal(msg)
					if err != nil {
						g.logger.Error("marshal outbound message", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		if !g.authenticate(r.Context(), conn, client) {
			return
		}
		defer func() { g.hub.Inbox() <- hub.Disconnect{Client: client} }()

		// Reader loop. No read deadline: a turn can stay open as long as
		// the players want.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				client.Push(protocol.Error(protocol.MsgError, "bad json"))
				continue
			}
			g.dispatch(r.Context(), client, cm)
		}
	}
}

// authenticate runs the AUTH-first handshake: the first frame must be an
// AUTH message with a valid credential, everything else closes the socket.
func (g *Gateway) authenticate(ctx context.Context, conn *websocket.Conn, client *session.Client) bool {
	readCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()
	_, data, err := conn.Read(readCtx)
	if err != nil {
		return false
	}

	var cm protocol.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil || cm.Type != protocol.MsgAuth {
		client.Push(protocol.Error(protocol.MsgAuthError, "expected AUTH message"))
		return false
	}
	var p protocol.AuthPayload
	if err := json.Unmarshal(cm.Payload, &p); err != nil {
		client.Push(protocol.Error(protocol.MsgAuthError, "bad AUTH payload"))
		return false
	}

	ident, err := g.verifier.Verify(ctx, p.Credential)
	if err != nil {
		client.Push(protocol.Error(protocol.MsgAuthError, "invalid credential"))
		return false
	}

	client.UserID = ident.ID
	client.DisplayName = g.resolveDisplayName(ctx, ident)
	client.Push(protocol.ServerMessage{
		Type: protocol.MsgAuthSuccess,
		Payload: protocol.AuthSuccessPayload{
			UserID:        client.UserID,
			DisplayName:   client.DisplayName,
			ActiveMatchID: g.activeMatchID(ctx, client.UserID),
		},
	})
	g.logger.Info("client authenticated", zap.String("user", client.UserID), zap.String("client", client.ID))
	return true
}

// resolveDisplayName prefers the stored profile, then the credential hint,
// then a generated fallback. A fresh hint is persisted for next time.
func (g *Gateway) resolveDisplayName(ctx context.Context, ident auth.Identity) string {
	name, err := g.store.DisplayName(ctx, ident.ID)
	if err != nil {
		g.logger.Warn("load display name", zap.String("user", ident.ID), zap.Error(err))
	}
	if name != "" {
		return name
	}
	name = ident.DisplayNameHint
	if name == "" {
		suffix := ident.ID
		if len(suffix) > 6 {
			suffix = suffix[:6]
		}
		name = "User-" + suffix
	}
	if err := g.store.SetDisplayName(ctx, ident.ID, name); err != nil {
		g.logger.Warn("save display name", zap.String("user", ident.ID), zap.Error(err))
	}
	return name
}

// activeMatchID looks up the user's persisted match binding. Store errors
// degrade to "no active match"; they never block the handshake.
func (g *Gateway) activeMatchID(ctx context.Context, userID string) string {
	matchID, err := g.store.GetUserActiveMatch(ctx, userID)
	if err != nil {
		g.logger.Warn("load active match binding", zap.String("user", userID), zap.Error(err))
		return ""
	}
	return matchID
}

// reconnectParticipant checks the recovery row before a RECONNECT reaches
// the hub. A missing row or a store error defers to the hub's own seat
// check; a row that exists and does not list the user is a firm no.
func (g *Gateway) reconnectParticipant(ctx context.Context, userID, matchID string) bool {
	info, err := g.store.GetActiveMatch(ctx, matchID)
	if err != nil {
		g.logger.Warn("load recovery row", zap.String("match", matchID), zap.Error(err))
		return true
	}
	if info == nil {
		return true
	}
	for _, id := range info.ConnectedIDs {
		if id == userID {
			return true
		}
	}
	for _, id := range info.DisconnectedIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (g *Gateway) session(userID string) hub.Session {
	reply := make(chan hub.Session, 1)
	g.hub.Inbox() <- hub.GetSession{UserID: userID, Reply: reply}
	return <-reply
}

func (g *Gateway) dispatch(ctx context.Context, client *session.Client, cm protocol.ClientMessage) {
	switch cm.Type {
	case protocol.MsgAuth:
		client.Push(protocol.Error(protocol.MsgAuthError, "already authenticated"))

	case protocol.MsgSetDisplayName:
		g.handleSetDisplayName(ctx, client, cm.Payload)

	case protocol.MsgCreateLobby:
		g.handleCreateLobby(client, cm.Payload)

	case protocol.MsgJoinLobby:
		var p protocol.JoinLobbyPayload
		if err := json.Unmarshal(cm.Payload, &p); err != nil {
			client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
			return
		}
		reply := make(chan hub.LobbyResult, 1)
		g.hub.Inbox() <- hub.JoinLobby{Client: client, LobbyID: p.LobbyID, Reply: reply}
		if res := <-reply; res.Err != nil {
			client.Push(protocol.Error(protocol.MsgLobbyError, res.Err.Error()))
		}

	case protocol.MsgLeaveLobby:
		reply := make(chan error, 1)
		g.hub.Inbox() <- hub.LeaveLobby{UserID: client.UserID, Reply: reply}
		if err := <-reply; err != nil {
			client.Push(protocol.Error(protocol.MsgLobbyError, err.Error()))
		}

	case protocol.MsgGetLobbies:
		reply := make(chan []lobby.View, 1)
		g.hub.Inbox() <- hub.ListLobbies{Reply: reply}
		views := <-reply
		client.Push(protocol.ServerMessage{Type: protocol.MsgLobbyList, Payload: struct {
			Lobbies []lobby.View `json:"lobbies"`
		}{Lobbies: views}})

	case protocol.MsgAddGuest:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.GuestPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			reply := make(chan lobby.GuestResult, 1)
			l.Inbox() <- lobby.AddGuest{OwnerID: client.UserID, DisplayName: p.DisplayName, Reply: reply}
			if res := <-reply; res.Err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, res.Err.Error()))
			}
		})

	case protocol.MsgRemoveGuest:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.GuestPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			reply := make(chan error, 1)
			l.Inbox() <- lobby.RemoveGuest{CallerID: client.UserID, GuestID: p.GuestID, Reply: reply}
			if err := <-reply; err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, err.Error()))
			}
		})

	case protocol.MsgRenameGuest:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.GuestPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			reply := make(chan error, 1)
			l.Inbox() <- lobby.RenameGuest{CallerID: client.UserID, GuestID: p.GuestID, DisplayName: p.DisplayName, Reply: reply}
			if err := <-reply; err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, err.Error()))
			}
		})

	case protocol.MsgSetReady:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.SetReadyPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			l.Inbox() <- lobby.SetReady{UserID: client.UserID, Ready: p.Ready}
		})

	case protocol.MsgUpdateOptions:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.UpdateOptionsPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			reply := make(chan error, 1)
			l.Inbox() <- lobby.SetOptions{UserID: client.UserID, GameType: p.GameType, Options: p.Options, Reply: reply}
			if err := <-reply; err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, err.Error()))
			}
		})

	case protocol.MsgSetTeamMode:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.SetTeamModePayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			reply := make(chan error, 1)
			l.Inbox() <- lobby.SetTeamMode{UserID: client.UserID, TeamMode: p.TeamMode, TeamCount: p.TeamCount, Reply: reply}
			if err := <-reply; err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, err.Error()))
			}
		})

	case protocol.MsgAssignTeam:
		g.inLobby(client, func(l *lobby.Lobby) {
			var p protocol.AssignTeamPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
				return
			}
			reply := make(chan error, 1)
			l.Inbox() <- lobby.AssignTeam{CallerID: client.UserID, PlayerID: p.PlayerID, TeamID: p.TeamID, Reply: reply}
			if err := <-reply; err != nil {
				client.Push(protocol.Error(protocol.MsgLobbyError, err.Error()))
			}
		})

	case protocol.MsgStartGame:
		reply := make(chan lobby.StartResult, 1)
		g.hub.Inbox() <- hub.StartMatch{UserID: client.UserID, Reply: reply}
		if res := <-reply; res.Err != nil {
			client.Push(protocol.Error(protocol.MsgLobbyError, res.Err.Error()))
		}

	case protocol.MsgThrow:
		g.inMatch(client, func(m *match.Match) {
			var p protocol.ThrowPayload
			if err := json.Unmarshal(cm.Payload, &p); err != nil {
				client.Push(protocol.Error(protocol.MsgGameError, "bad payload"))
				return
			}
			reply := make(chan match.Result, 1)
			m.Inbox() <- match.Throw{CallerID: client.UserID, Multiplier: engine.Multiplier(p.Multiplier), Value: p.Value, Reply: reply}
			res := <-reply
			if res.Err != nil {
				client.Push(protocol.Error(protocol.MsgGameError, res.Err.Error()))
				return
			}
			if res.Outcome.GameOver {
				g.hub.Inbox() <- hub.FinishMatch{MatchID: m.ID}
			}
		})

	case protocol.MsgEndTurn:
		g.matchAction(client, func(m *match.Match, reply chan match.Result) {
			m.Inbox() <- match.EndTurn{CallerID: client.UserID, Reply: reply}
		})

	case protocol.MsgUndoThrow:
		g.matchAction(client, func(m *match.Match, reply chan match.Result) {
			m.Inbox() <- match.UndoThrow{CallerID: client.UserID, Reply: reply}
		})

	case protocol.MsgUndoRound:
		g.matchAction(client, func(m *match.Match, reply chan match.Result) {
			m.Inbox() <- match.UndoRound{CallerID: client.UserID, Reply: reply}
		})

	case protocol.MsgReconnect:
		var p protocol.ReconnectPayload
		if err := json.Unmarshal(cm.Payload, &p); err != nil {
			client.Push(protocol.Error(protocol.MsgGameError, "bad payload"))
			return
		}
		if !g.reconnectParticipant(ctx, client.UserID, p.MatchID) {
			client.Push(protocol.Error(protocol.MsgGameError, "you are not a participant of this match"))
			return
		}
		reply := make(chan error, 1)
		g.hub.Inbox() <- hub.Reconnect{Client: client, MatchID: p.MatchID, Reply: reply}
		if err := <-reply; err != nil {
			client.Push(protocol.Error(protocol.MsgGameError, err.Error()))
		}

	case protocol.MsgRequestRTCToken:
		var p protocol.RTCTokenRequestPayload
		if err := json.Unmarshal(cm.Payload, &p); err != nil {
			client.Push(protocol.Error(protocol.MsgError, "bad payload"))
			return
		}
		uid := p.UID
		if uid == "" {
			uid = client.UserID
		}
		tok, err := g.issuer.IssueToken(p.ChannelName, uid)
		if err != nil {
			client.Push(protocol.Error(protocol.MsgError, err.Error()))
			return
		}
		client.Push(protocol.ServerMessage{Type: protocol.MsgRTCToken, Payload: tok})

	default:
		client.Push(protocol.Error(protocol.MsgError, "unknown message type: "+cm.Type))
	}
}

func (g *Gateway) handleSetDisplayName(ctx context.Context, client *session.Client, raw json.RawMessage) {
	var p protocol.SetDisplayNamePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.DisplayName == "" {
		client.Push(protocol.Error(protocol.MsgError, "bad payload"))
		return
	}
	if err := g.store.SetDisplayName(ctx, client.UserID, p.DisplayName); err != nil {
		g.logger.Warn("save display name", zap.String("user", client.UserID), zap.Error(err))
	}
	client.DisplayName = p.DisplayName
	if s := g.session(client.UserID); s.Lobby != nil {
		s.Lobby.Inbox() <- lobby.SetDisplayName{UserID: client.UserID, DisplayName: p.DisplayName}
	}
	client.Push(protocol.ServerMessage{
		Type:    protocol.MsgAuthSuccess,
		Payload: protocol.AuthSuccessPayload{UserID: client.UserID, DisplayName: p.DisplayName},
	})
}

func (g *Gateway) handleCreateLobby(client *session.Client, raw json.RawMessage) {
	var p protocol.CreateLobbyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		client.Push(protocol.Error(protocol.MsgLobbyError, "bad payload"))
		return
	}
	gt := engine.GameType(p.GameType)
	switch gt {
	case engine.Game501, engine.Game301, engine.GameGotcha, engine.GameCricket, engine.GameTicTacToe:
	default:
		client.Push(protocol.Error(protocol.MsgLobbyError, "unknown game type: "+p.GameType))
		return
	}
	opts := engine.DefaultOptions(gt)
	applyOptions(&opts, p.Options)

	reply := make(chan hub.LobbyResult, 1)
	g.hub.Inbox() <- hub.CreateLobby{Owner: client, GameType: gt, Options: opts, MaxPlayers: p.MaxPlayers, Reply: reply}
	res := <-reply
	if res.Err != nil {
		client.Push(protocol.Error(protocol.MsgLobbyError, res.Err.Error()))
		return
	}
	// the owner was seeded before the actor started, so push the first
	// snapshot here
	viewReply := make(chan lobby.View, 1)
	res.Lobby.Inbox() <- lobby.GetView{Reply: viewReply}
	client.Push(protocol.ServerMessage{Type: protocol.MsgLobbyState, Payload: <-viewReply})
}

func applyOptions(opts *engine.Options, p protocol.OptionsPayload) {
	if p.StartingScore != nil {
		opts.StartingScore = *p.StartingScore
	}
	if p.DoubleIn != nil {
		opts.DoubleIn = *p.DoubleIn
	}
	if p.DoubleOut != nil {
		opts.DoubleOut = *p.DoubleOut
	}
	if p.Legs != nil {
		opts.Legs = *p.Legs
	}
	if p.Sets != nil {
		opts.Sets = *p.Sets
	}
	if p.MarksToWin != nil {
		opts.MarksToWin = *p.MarksToWin
	}
}

func (g *Gateway) inLobby(client *session.Client, fn func(l *lobby.Lobby)) {
	s := g.session(client.UserID)
	if s.Lobby == nil {
		client.Push(protocol.Error(protocol.MsgLobbyError, "not in a lobby"))
		return
	}
	fn(s.Lobby)
}

func (g *Gateway) inMatch(client *session.Client, fn func(m *match.Match)) {
	s := g.session(client.UserID)
	if s.Match == nil {
		client.Push(protocol.Error(protocol.MsgGameError, "no active game"))
		return
	}
	fn(s.Match)
}

func (g *Gateway) matchAction(client *session.Client, send func(m *match.Match, reply chan match.Result)) {
	g.inMatch(client, func(m *match.Match) {
		reply := make(chan match.Result, 1)
		send(m, reply)
		if res := <-reply; res.Err != nil {
			client.Push(protocol.Error(protocol.MsgGameError, res.Err.Error()))
		}
	})
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
