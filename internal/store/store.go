package store

import "context"

// RecoveryInfo is the session-recovery bookkeeping for one active match.
type RecoveryInfo struct {
	LobbyID         string            `json:"lobbyId"`
	GameType        string            `json:"gameType"`
	ConnectedIDs    []string          `json:"connectedIds"`
	DisconnectedIDs []string          `json:"disconnectedIds"`
	DisplayNames    map[string]string `json:"displayNames"`
}

// Store is the persistence collaborator: display names plus
// session-recovery rows. The core never blocks a mutation on these calls;
// failures are logged and gameplay continues.
type Store interface {
	DisplayName(ctx context.Context, userID string) (string, error)
	SetDisplayName(ctx context.Context, userID, name string) error

	SaveActiveMatch(ctx context.Context, matchID string, info RecoveryInfo) error
	GetActiveMatch(ctx context.Context, matchID string) (*RecoveryInfo, error)
	ClearActiveMatch(ctx context.Context, matchID string) error

	SetUserActiveMatch(ctx context.Context, userID, matchID string) error
	GetUserActiveMatch(ctx context.Context, userID string) (string, error)
}
