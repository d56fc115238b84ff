package chat

import "time"

// Role is the author of a stored message. Only "user" and "model" are persisted;
// the "assistant" label exists at the HTTP boundary only.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Label is the name shown to clients.
func (r Role) Label() string {
	if r == RoleModel {
		return "assistant"
	}
	return string(r)
}

const DefaultConversationName = "New Chat"

type Conversation struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ConversationID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"id"`
	UserID         uint64    `gorm:"index;not null" json:"-"`
	Name           string    `gorm:"type:varchar(255);not null" json:"conversation_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "chat_conversations" }

// Message rows are append-only; ID is the per-store sequence id.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"type:varchar(64);index;not null" json:"conversation_id"`
	Role           Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
