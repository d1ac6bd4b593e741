// crguide/utils/types/chat.go
package types

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TimestampLayout mirrors Date.toISOString: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Message struct {
	Content   string `json:"content"`
	Role      Role   `json:"role"`
	Timestamp string `json:"timestamp"`
}

func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		Content:   content,
		Role:      role,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

// AskRequest is the body posted to the remote assistant endpoint.
type AskRequest struct {
	Messages []Message `json:"messages"`
}

// AskResponse is the success body returned by the remote assistant endpoint.
// Response is a pointer so a body without the field can be told apart from an empty reply.
type AskResponse struct {
	Response *string `json:"response"`
}

type SendRequest struct {
	Content string `json:"content"`
}

// Snapshot is what the chat page and the websocket push render from.
type Snapshot struct {
	Messages []Message `json:"messages"`
	Typing   bool      `json:"typing"`
	Draft    string    `json:"draft"`
}
