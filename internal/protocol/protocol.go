package protocol

import "encoding/json"

// Client -> server message types.
const (
	MsgAuth            = "AUTH"
	MsgSetDisplayName  = "SET_DISPLAY_NAME"
	MsgCreateLobby     = "CREATE_LOBBY"
	MsgJoinLobby       = "JOIN_LOBBY"
	MsgLeaveLobby      = "LEAVE_LOBBY"
	MsgGetLobbies      = "GET_LOBBIES"
	MsgAddGuest        = "ADD_GUEST"
	MsgRemoveGuest     = "REMOVE_GUEST"
	MsgRenameGuest     = "RENAME_GUEST"
	MsgSetReady        = "SET_READY"
	MsgUpdateOptions   = "UPDATE_OPTIONS"
	MsgSetTeamMode     = "SET_TEAM_MODE"
	MsgAssignTeam      = "ASSIGN_TEAM"
	MsgStartGame       = "START_GAME"
	MsgThrow           = "THROW"
	MsgEndTurn         = "END_TURN"
	MsgUndoThrow       = "UNDO_THROW"
	MsgUndoRound       = "UNDO_ROUND"
	MsgReconnect       = "RECONNECT"
	MsgRequestRTCToken = "REQUEST_RTC_TOKEN"
)

// Server -> client message types.
const (
	MsgAuthSuccess        = "AUTH_SUCCESS"
	MsgAuthError          = "AUTH_ERROR"
	MsgLobbyState         = "LOBBY_STATE"
	MsgLobbyList          = "LOBBY_LIST"
	MsgLobbyError         = "LOBBY_ERROR"
	MsgGameState          = "GAME_STATE"
	MsgGameError          = "GAME_ERROR"
	MsgRTCToken           = "RTC_TOKEN"
	MsgError              = "ERROR"
	MsgPlayerJoined       = "PLAYER_JOINED"
	MsgPlayerLeft         = "PLAYER_LEFT"
	MsgPlayerDisconnected = "PLAYER_DISCONNECTED"
	MsgPlayerReconnected  = "PLAYER_RECONNECTED"
)

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func Error(msgType, message string) ServerMessage {
	return ServerMessage{Type: msgType, Payload: ErrorPayload{Message: message}}
}

// Client payloads.

type AuthPayload struct {
	Credential string `json:"credential"`
}

type SetDisplayNamePayload struct {
	DisplayName string `json:"displayName"`
}

type CreateLobbyPayload struct {
	GameType   string         `json:"gameType"`
	Options    OptionsPayload `json:"options"`
	MaxPlayers int            `json:"maxPlayers,omitempty"`
}

type JoinLobbyPayload struct {
	LobbyID string `json:"lobbyId"`
}

type GuestPayload struct {
	GuestID     string `json:"guestId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type SetReadyPayload struct {
	Ready bool `json:"ready"`
}

type UpdateOptionsPayload struct {
	GameType string         `json:"gameType,omitempty"`
	Options  OptionsPayload `json:"options"`
}

// OptionsPayload mirrors engine.Options with pointer fields so partial
// updates can be told apart from zero values.
type OptionsPayload struct {
	StartingScore *int  `json:"startingScore,omitempty"`
	DoubleIn      *bool `json:"doubleIn,omitempty"`
	DoubleOut     *bool `json:"doubleOut,omitempty"`
	Legs          *int  `json:"legs,omitempty"`
	Sets          *int  `json:"sets,omitempty"`
	MarksToWin    *int  `json:"marksToWin,omitempty"`
}

type SetTeamModePayload struct {
	TeamMode  string `json:"teamMode"` // "ffa" | "teams"
	TeamCount int    `json:"teamCount,omitempty"`
}

type AssignTeamPayload struct {
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
}

type ThrowPayload struct {
	Multiplier string `json:"multiplier"`
	Value      int    `json:"value"`
}

type ReconnectPayload struct {
	MatchID string `json:"matchId"`
}

type RTCTokenRequestPayload struct {
	ChannelName string `json:"channelName"`
	UID         string `json:"uid,omitempty"`
}

// Server payloads.

// AuthSuccessPayload confirms the handshake. ActiveMatchID is set when the
// user has a match in flight, so a returning client knows to RECONNECT.
type AuthSuccessPayload struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	ActiveMatchID string `json:"activeMatchId,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerNoticePayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName,omitempty"`
}

// GameStatePayload is the authoritative match snapshot. State is marshaled
// inside the match actor so readers never race the writer.
type GameStatePayload struct {
	MatchID string          `json:"matchId"`
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}
