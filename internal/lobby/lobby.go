package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/match"
	"github.com/openboard/darts-server/internal/protocol"
	"github.com/openboard/darts-server/internal/session"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

type PlayerType string

const (
	PlayerAuthenticated PlayerType = "authenticated"
	PlayerGuest         PlayerType = "guest"
)

// Player is one roster entry; guests are proxies owned by a networked
// participant.
type Player struct {
	ID          string     `json:"id"`
	Type        PlayerType `json:"type"`
	OwnerUserID string     `json:"ownerUserId"`
	DisplayName string     `json:"displayName"`
	Ready       bool       `json:"ready"`
	TeamID      string     `json:"teamId,omitempty"`
	ColorIndex  int        `json:"colorIndex"`
	JoinedAt    time.Time  `json:"joinedAt"`
}

type TeamShell struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ColorID   string   `json:"colorId"`
	PlayerIDs []string `json:"playerIds"`
}

// View is the full lobby snapshot broadcast on every change. It is a copy;
// marshaling it outside the actor is safe.
type View struct {
	LobbyID          string         `json:"lobbyId"`
	OwnerUserID      string         `json:"ownerUserId"`
	OwnerDisplayName string         `json:"ownerDisplayName"`
	Players          []Player       `json:"players"`
	TeamMode         bool           `json:"teamMode"`
	Teams            []TeamShell    `json:"teams"`
	GameType         string         `json:"gameType"`
	Options          engine.Options `json:"options"`
	Status           Status         `json:"status"`
	MaxPlayers       int            `json:"maxPlayers"`
	MatchID          string         `json:"matchId,omitempty"`
}

type Msg interface{ isLobbyMsg() }

type Join struct {
	Client *session.Client
	Reply  chan error
}

type LeaveResult struct {
	Retired bool // owner left or lobby emptied; the whole lobby is gone
}

type Leave struct {
	UserID string
	Reply  chan LeaveResult
}

type DetachClient struct{ ClientID string }

type AddGuest struct {
	OwnerID     string
	DisplayName string
	Reply       chan GuestResult
}

type GuestResult struct {
	GuestID string
	Err     error
}

type RemoveGuest struct {
	CallerID string
	GuestID  string
	Reply    chan error
}

type RenameGuest struct {
	CallerID    string
	GuestID     string
	DisplayName string
	Reply       chan error
}

type SetReady struct {
	UserID string
	Ready  bool
}

type SetOptions struct {
	UserID   string
	GameType string
	Options  protocol.OptionsPayload
	Reply    chan error
}

type SetTeamMode struct {
	UserID    string
	TeamMode  string
	TeamCount int
	Reply     chan error
}

type AssignTeam struct {
	CallerID string
	PlayerID string
	TeamID   string
	Reply    chan error
}

type SetDisplayName struct {
	UserID      string
	DisplayName string
}

type StartResult struct {
	Match *match.Match
	Err   error
}

type Start struct {
	UserID string
	Reply  chan StartResult
}

// Finish flips a started lobby to finished once its match completes.
type Finish struct{}

type GetView struct{ Reply chan View }

type Shutdown struct{}

func (Join) isLobbyMsg()           {}
func (Leave) isLobbyMsg()          {}
func (DetachClient) isLobbyMsg()   {}
func (AddGuest) isLobbyMsg()       {}
func (RemoveGuest) isLobbyMsg()    {}
func (RenameGuest) isLobbyMsg()    {}
func (SetReady) isLobbyMsg()       {}
func (SetOptions) isLobbyMsg()     {}
func (SetTeamMode) isLobbyMsg()    {}
func (AssignTeam) isLobbyMsg()     {}
func (SetDisplayName) isLobbyMsg() {}
func (Start) isLobbyMsg()          {}
func (Finish) isLobbyMsg()         {}
func (GetView) isLobbyMsg()        {}
func (Shutdown) isLobbyMsg()       {}

// Lobby is the pre-match coordinator actor for one lobby.
type Lobby struct {
	ID string

	inbox      chan Msg
	ownerID    string
	ownerName  string
	players    []Player
	teamMode   bool
	teams      []TeamShell
	gameType   engine.GameType
	options    engine.Options
	status     Status
	maxPlayers int
	matchID    string
	clients    map[string]*session.Client
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(parent context.Context, logger *zap.Logger, id string, owner *session.Client, gameType engine.GameType, opts engine.Options, maxPlayers int) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if maxPlayers <= 0 {
		maxPlayers = 8
	}
	l := &Lobby{
		ID:        id,
		inbox:     make(chan Msg, 64),
		ownerID:   owner.UserID,
		ownerName: owner.DisplayName,
		players: []Player{{
			ID:          owner.UserID,
			Type:        PlayerAuthenticated,
			OwnerUserID: owner.UserID,
			DisplayName: owner.DisplayName,
			Ready:       true,
			JoinedAt:    time.Now(),
		}},
		gameType:   gameType,
		options:    opts,
		status:     StatusWaiting,
		maxPlayers: maxPlayers,
		clients:    map[string]*session.Client{owner.ID: owner},
		logger:     logger.With(zap.String("lobby", id)),
		ctx:        ctx,
		cancel:     cancel,
	}
	go l.loop()
	return l
}

func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- l.handleJoin(msg.Client)
			case Leave:
				msg.Reply <- l.handleLeave(msg.UserID)
			case DetachClient:
				delete(l.clients, msg.ClientID)
			case AddGuest:
				msg.Reply <- l.handleAddGuest(msg.OwnerID, msg.DisplayName)
			case RemoveGuest:
				msg.Reply <- l.handleRemoveGuest(msg.CallerID, msg.GuestID)
			case RenameGuest:
				msg.Reply <- l.handleRenameGuest(msg.CallerID, msg.GuestID, msg.DisplayName)
			case SetReady:
				l.handleSetReady(msg.UserID, msg.Ready)
			case SetOptions:
				msg.Reply <- l.handleSetOptions(msg.UserID, msg.GameType, msg.Options)
			case SetTeamMode:
				msg.Reply <- l.handleSetTeamMode(msg.UserID, msg.TeamMode, msg.TeamCount)
			case AssignTeam:
				msg.Reply <- l.handleAssignTeam(msg.CallerID, msg.PlayerID, msg.TeamID)
			case SetDisplayName:
				l.handleSetDisplayName(msg.UserID, msg.DisplayName)
			case Start:
				msg.Reply <- l.handleStart(msg.UserID)
			case Finish:
				l.status = StatusFinished
				l.broadcastState()
			case GetView:
				msg.Reply <- l.view()
			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	clear(l.clients)
	l.cancel()
}

func (l *Lobby) view() View {
	players := append([]Player(nil), l.players...)
	teams := make([]TeamShell, len(l.teams))
	for i, t := range l.teams {
		teams[i] = t
		teams[i].PlayerIDs = append([]string(nil), t.PlayerIDs...)
	}
	return View{
		LobbyID:          l.ID,
		OwnerUserID:      l.ownerID,
		OwnerDisplayName: l.ownerName,
		Players:          players,
		TeamMode:         l.teamMode,
		Teams:            teams,
		GameType:         string(l.gameType),
		Options:          l.options,
		Status:           l.status,
		MaxPlayers:       l.maxPlayers,
		MatchID:          l.matchID,
	}
}

func (l *Lobby) broadcastState() {
	msg := protocol.ServerMessage{Type: protocol.MsgLobbyState, Payload: l.view()}
	for _, c := range l.clients {
		if !c.Push(msg) {
			l.logger.Warn("dropping lobby state for slow client", zap.String("client", c.ID))
		}
	}
}

func (l *Lobby) notify(msgType, playerID, displayName string) {
	msg := protocol.ServerMessage{Type: msgType, Payload: protocol.PlayerNoticePayload{PlayerID: playerID, DisplayName: displayName}}
	for _, c := range l.clients {
		c.Push(msg)
	}
}
