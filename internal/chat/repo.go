package chat

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repo is the gorm-backed conversation store. Every call takes its own
// session from the pool via WithContext; nothing is held between calls.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateConversation(ctx context.Context, conversationID, name string, userID uint64) (*Conversation, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, errors.New("conversation id is required")
	}
	if name == "" {
		name = DefaultConversationName
	}

	var cnt int64
	if err := r.db.WithContext(ctx).Model(&Conversation{}).
		Where("conversation_id = ?", conversationID).
		Count(&cnt).Error; err != nil {
		return nil, persistenceError("check conversation id", err)
	}
	if cnt > 0 {
		return nil, ErrConversationExists
	}

	conv := &Conversation{ConversationID: conversationID, UserID: userID, Name: name}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		// lost a race with a concurrent start
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConversationExists
		}
		return nil, persistenceError("create conversation", err)
	}
	return conv, nil
}

// GetConversation returns ErrNotFound when the id is unknown or owned by someone else.
func (r *Repo) GetConversation(ctx context.Context, conversationID string, userID uint64) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("get conversation", err)
	}
	return &c, nil
}

// ListConversations returns the user's conversations in insertion order.
func (r *Repo) ListConversations(ctx context.Context, userID uint64) ([]Conversation, error) {
	var out []Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, persistenceError("list conversations", err)
	}
	return out, nil
}

func (r *Repo) RenameConversation(ctx context.Context, conversationID string, userID uint64, name string) (*Conversation, error) {
	conv, err := r.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(conv).Update("name", name).Error; err != nil {
		return nil, persistenceError("rename conversation", err)
	}
	conv.Name = name
	return conv, nil
}

// AppendMessage inserts one message and fills in its sequence id.
func (r *Repo) AppendMessage(ctx context.Context, conversationID string, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, errors.New("invalid message role: " + string(role))
	}
	m := &Message{ConversationID: conversationID, Role: role, Content: content}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, persistenceError("append message", err)
	}
	return m, nil
}

// ListMessages returns messages in ASC id order (oldest -> newest).
func (r *Repo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, persistenceError("list messages", err)
	}
	return msgs, nil
}

func (r *Repo) FirstUserMessage(ctx context.Context, conversationID string) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND role = ?", conversationID, RoleUser).
		Order("id ASC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("first user message", err)
	}
	return &m, nil
}

func (r *Repo) CountMessages(ctx context.Context, conversationID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&cnt).Error; err != nil {
		return 0, persistenceError("count messages", err)
	}
	return cnt, nil
}
