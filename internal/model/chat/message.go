package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Channel separates the planning conversation from parked thoughts.
type Channel string

const (
	ChannelPlanning Channel = "planning"
	ChannelParking  Channel = "parking"
)

// Message is one turn of a conversation. Order is append-only within a
// channel; only a streaming assistant message's Content grows after
// creation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Channel   Channel   `json:"channel"`
	CreatedAt time.Time `json:"createdAt"`
}
