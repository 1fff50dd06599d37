package session

import "github.com/openboard/darts-server/internal/protocol"

// Client is one transport endpoint. Lobby and match actors hold these in
// their broadcast groups and push through Send; the channel is never
// closed, the owning writer goroutine just stops draining it on teardown.
type Client struct {
	ID          string // connection id, unique per socket
	UserID      string
	DisplayName string
	Send        chan protocol.ServerMessage
}

func New(id string, buffer int) *Client {
	return &Client{ID: id, Send: make(chan protocol.ServerMessage, buffer)}
}

// Push is fire-and-forget: a full outbox is skipped so a slow recipient
// never blocks the writer.
func (c *Client) Push(m protocol.ServerMessage) bool {
	select {
	case c.Send <- m:
		return true
	default:
		return false
	}
}
