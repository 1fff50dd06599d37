package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openboard/darts-server/internal/engine"
	"github.com/openboard/darts-server/internal/match"
	"github.com/openboard/darts-server/internal/protocol"
	"github.com/openboard/darts-server/internal/session"
)

var ErrNotWaiting = errors.New("lobby is not accepting players")
var ErrFull = errors.New("lobby is full")
var ErrOwnerOnly = errors.New("only the lobby owner can do that")
var ErrNotInLobby = errors.New("you are not in this lobby")
var ErrUnknownGuest = errors.New("no such guest")
var ErrNotYourGuest = errors.New("you can only manage your own guests")

// FFA color slots cycle through this many palette entries.
const colorCount = 8

func (l *Lobby) findPlayer(id string) *Player {
	for i := range l.players {
		if l.players[i].ID == id {
			return &l.players[i]
		}
	}
	return nil
}

func (l *Lobby) handleJoin(c *session.Client) error {
	if l.status != StatusWaiting {
		return ErrNotWaiting
	}
	l.clients[c.ID] = c
	if l.findPlayer(c.UserID) != nil {
		// rejoining participant, e.g. a second tab
		l.broadcastState()
		return nil
	}
	if len(l.players) >= l.maxPlayers {
		delete(l.clients, c.ID)
		return ErrFull
	}
	l.players = append(l.players, Player{
		ID:          c.UserID,
		Type:        PlayerAuthenticated,
		OwnerUserID: c.UserID,
		DisplayName: c.DisplayName,
		JoinedAt:    time.Now(),
	})
	l.broadcastState()
	l.notify(protocol.MsgPlayerJoined, c.UserID, c.DisplayName)
	return nil
}

// handleLeave removes a participant and every guest they control. The owner
// leaving, or the last participant leaving, retires the lobby for everyone.
func (l *Lobby) handleLeave(userID string) LeaveResult {
	var name string
	kept := l.players[:0]
	for _, p := range l.players {
		if p.ID == userID {
			name = p.DisplayName
			continue
		}
		if p.OwnerUserID == userID {
			continue
		}
		kept = append(kept, p)
	}
	l.players = kept
	l.pruneTeams()

	for id, c := range l.clients {
		if c.UserID == userID {
			delete(l.clients, id)
		}
	}

	if len(l.players) == 0 || l.ownerID == userID {
		return LeaveResult{Retired: true}
	}

	l.broadcastState()
	l.notify(protocol.MsgPlayerLeft, userID, name)
	return LeaveResult{}
}

// pruneTeams drops roster-less ids from every team shell.
func (l *Lobby) pruneTeams() {
	alive := make(map[string]bool, len(l.players))
	for _, p := range l.players {
		alive[p.ID] = true
	}
	for i := range l.teams {
		ids := l.teams[i].PlayerIDs[:0]
		for _, id := range l.teams[i].PlayerIDs {
			if alive[id] {
				ids = append(ids, id)
			}
		}
		l.teams[i].PlayerIDs = ids
	}
}

func (l *Lobby) handleAddGuest(ownerID, displayName string) GuestResult {
	if l.status != StatusWaiting {
		return GuestResult{Err: ErrNotWaiting}
	}
	if len(l.players) >= l.maxPlayers {
		return GuestResult{Err: ErrFull}
	}
	if l.findPlayer(ownerID) == nil {
		return GuestResult{Err: ErrNotInLobby}
	}
	guestID := "guest-" + uuid.NewString()[:8]
	l.players = append(l.players, Player{
		ID:          guestID,
		Type:        PlayerGuest,
		OwnerUserID: ownerID,
		DisplayName: displayName,
		Ready:       true, // guests are always ready
		JoinedAt:    time.Now(),
	})
	l.broadcastState()
	return GuestResult{GuestID: guestID}
}

func (l *Lobby) handleRemoveGuest(callerID, guestID string) error {
	guest := l.findPlayer(guestID)
	if guest == nil || guest.Type != PlayerGuest {
		return ErrUnknownGuest
	}
	if guest.OwnerUserID != callerID && l.ownerID != callerID {
		return ErrNotYourGuest
	}
	kept := l.players[:0]
	for _, p := range l.players {
		if p.ID != guestID {
			kept = append(kept, p)
		}
	}
	l.players = kept
	l.pruneTeams()
	l.broadcastState()
	return nil
}

func (l *Lobby) handleRenameGuest(callerID, guestID, displayName string) error {
	guest := l.findPlayer(guestID)
	if guest == nil || guest.Type != PlayerGuest {
		return ErrUnknownGuest
	}
	if guest.OwnerUserID != callerID {
		return ErrNotYourGuest
	}
	guest.DisplayName = displayName
	l.broadcastState()
	return nil
}

func (l *Lobby) handleSetReady(userID string, ready bool) {
	p := l.findPlayer(userID)
	if p == nil {
		return
	}
	p.Ready = ready
	l.broadcastState()
}

// handleSetOptions applies an owner's option change. Switching the variant
// resets the options to that variant's defaults before overrides apply.
func (l *Lobby) handleSetOptions(userID, gameType string, opts protocol.OptionsPayload) error {
	if l.ownerID != userID {
		return ErrOwnerOnly
	}
	if gameType != "" && engine.GameType(gameType) != l.gameType {
		l.gameType = engine.GameType(gameType)
		l.options = engine.DefaultOptions(l.gameType)
	}
	if opts.StartingScore != nil {
		l.options.StartingScore = *opts.StartingScore
	}
	if opts.DoubleIn != nil {
		l.options.DoubleIn = *opts.DoubleIn
	}
	if opts.DoubleOut != nil {
		l.options.DoubleOut = *opts.DoubleOut
	}
	if opts.Legs != nil {
		l.options.Legs = *opts.Legs
	}
	if opts.Sets != nil {
		l.options.Sets = *opts.Sets
	}
	if opts.MarksToWin != nil {
		l.options.MarksToWin = *opts.MarksToWin
	}
	l.broadcastState()
	return nil
}

var teamShells = []struct{ name, colorID string }{
	{"Team Red", "red"},
	{"Team Blue", "blue"},
	{"Team Green", "green"},
	{"Team Yellow", "yellow"},
}

// handleSetTeamMode toggles between free-for-all and teams, generating
// empty balanced team shells for the requested count.
func (l *Lobby) handleSetTeamMode(userID, mode string, teamCount int) error {
	if l.ownerID != userID {
		return ErrOwnerOnly
	}
	switch mode {
	case "teams":
		if teamCount < 2 {
			teamCount = 2
		}
		if teamCount > len(teamShells) {
			teamCount = len(teamShells)
		}
		l.teamMode = true
		l.teams = make([]TeamShell, teamCount)
		for i := 0; i < teamCount; i++ {
			l.teams[i] = TeamShell{
				ID:      fmt.Sprintf("team-%d", i+1),
				Name:    teamShells[i].name,
				ColorID: teamShells[i].colorID,
			}
		}
		for i := range l.players {
			l.players[i].TeamID = ""
		}
	case "ffa":
		l.teamMode = false
		l.teams = nil
		for i := range l.players {
			l.players[i].TeamID = ""
			l.players[i].ColorIndex = i % colorCount
		}
	default:
		return fmt.Errorf("unknown team mode %q", mode)
	}
	l.broadcastState()
	return nil
}

func (l *Lobby) handleAssignTeam(callerID, playerID, teamID string) error {
	if l.ownerID != callerID {
		return ErrOwnerOnly
	}
	for i := range l.teams {
		ids := l.teams[i].PlayerIDs[:0]
		for _, id := range l.teams[i].PlayerIDs {
			if id != playerID {
				ids = append(ids, id)
			}
		}
		l.teams[i].PlayerIDs = ids
	}
	for i := range l.teams {
		if l.teams[i].ID == teamID {
			l.teams[i].PlayerIDs = append(l.teams[i].PlayerIDs, playerID)
		}
	}
	if p := l.findPlayer(playerID); p != nil {
		p.TeamID = teamID
		p.ColorIndex = 0 // team color replaces the free-for-all slot
	}
	l.broadcastState()
	return nil
}

func (l *Lobby) handleSetDisplayName(userID, displayName string) {
	p := l.findPlayer(userID)
	if p == nil {
		return
	}
	p.DisplayName = displayName
	if l.ownerID == userID {
		l.ownerName = displayName
	}
	l.broadcastState()
}

// validateTeams enforces the start preconditions for team mode: everyone
// assigned, equal non-empty sizes, and a team count the variant supports.
func (l *Lobby) validateTeams() error {
	if !l.teamMode {
		return nil
	}
	for _, p := range l.players {
		if p.TeamID == "" {
			return fmt.Errorf("all players must be assigned to teams: %s", p.DisplayName)
		}
	}
	twoTeamOnly := l.gameType == engine.GameCricket || l.gameType == engine.GameTicTacToe
	if twoTeamOnly && len(l.teams) != 2 {
		return fmt.Errorf("%s only supports 2 teams", l.gameType)
	}
	size := -1
	for _, t := range l.teams {
		if size == -1 {
			size = len(t.PlayerIDs)
		}
		if len(t.PlayerIDs) != size {
			return errors.New("teams must have equal numbers of players")
		}
	}
	if size == 0 {
		return errors.New("each team must have at least one player")
	}
	return nil
}

// handleStart validates preconditions, seeds the match from the roster and
// flips the lobby to started exactly once.
func (l *Lobby) handleStart(userID string) StartResult {
	if l.ownerID != userID {
		return StartResult{Err: ErrOwnerOnly}
	}
	if l.status != StatusWaiting {
		return StartResult{Err: errors.New("lobby is not in waiting state")}
	}
	if len(l.players) < 2 {
		return StartResult{Err: errors.New("need at least 2 players to start")}
	}
	for _, p := range l.players {
		if !p.Ready {
			return StartResult{Err: fmt.Errorf("player not ready: %s", p.DisplayName)}
		}
	}
	if err := l.validateTeams(); err != nil {
		return StartResult{Err: err}
	}

	players := make([]engine.Player, len(l.players))
	seats := make(map[string]string, len(l.players))
	for i, p := range l.players {
		color := p.ColorIndex
		if !l.teamMode && color == 0 {
			color = i % colorCount
		}
		players[i] = engine.Player{ID: p.ID, DisplayName: p.DisplayName, TeamID: p.TeamID, ColorIndex: color}
		seats[p.ID] = p.OwnerUserID
	}
	var teams []engine.Team
	for _, t := range l.teams {
		teams = append(teams, engine.Team{ID: t.ID, Name: t.Name, ColorID: t.ColorID, PlayerIDs: t.PlayerIDs})
	}

	// the match must outlive this lobby: retiring the lobby later must not
	// tear down a game in progress
	state := engine.NewState(l.gameType, l.options, players, teams)
	m := match.New(context.WithoutCancel(l.ctx), l.logger, uuid.NewString(), state, seats)

	reply := make(chan error, 1)
	m.Inbox() <- match.Start{Reply: reply}
	if err := <-reply; err != nil {
		m.Inbox() <- match.Shutdown{}
		return StartResult{Err: err}
	}

	// move every lobby endpoint into the match broadcast group; they stay
	// in the lobby group as well
	for _, c := range l.clients {
		m.Inbox() <- match.Attach{Client: c}
	}

	l.status = StatusStarted
	l.matchID = m.ID
	l.broadcastState()
	return StartResult{Match: m}
}
