package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suPer8Hu/ai-chat/internal/ai"
)

// Store is what the turn orchestrator and the namer need from persistence.
type Store interface {
	CreateConversation(ctx context.Context, conversationID, name string, userID uint64) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID string, userID uint64) (*Conversation, error)
	ListConversations(ctx context.Context, userID uint64) ([]Conversation, error)
	RenameConversation(ctx context.Context, conversationID string, userID uint64, name string) (*Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, role Role, content string) (*Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	FirstUserMessage(ctx context.Context, conversationID string) (*Message, error)
}

var _ Store = (*Repo)(nil)

type Service struct {
	store  Store
	gen    ai.Generator
	locker TurnLocker
	logger *slog.Logger
}

func NewService(store Store, gen ai.Generator, locker TurnLocker, logger *slog.Logger) *Service {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		gen:    gen,
		locker: locker,
		logger: logger.With("component", "chat"),
	}
}

type TurnRequest struct {
	ConversationID string
	OwnerID        uint64
	Text           string
	Model          string
	Stream         bool
}

type TurnResult struct {
	Conversation       *Conversation
	AssistantText      string
	UserMessageID      uint64
	AssistantMessageID uint64
	// MessageCount is the number of messages in the conversation after the turn.
	MessageCount int
}

// SubmitTurn runs one user turn.
//
// The user message is committed before the generator is called and is never
// removed afterwards. On a generation failure no model message is written and
// the generator error is returned wrapped. If the reply cannot be stored the
// error is an *UnsavedReplyError carrying the text.
func (s *Service) SubmitTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	unlock, err := s.locker.Lock(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("acquire turn lock: %w", err)
	}
	defer unlock()

	log := s.logger.With("conversation_id", req.ConversationID, "user_id", req.OwnerID)

	// 1) verify conversation ownership
	conv, err := s.store.GetConversation(ctx, req.ConversationID, req.OwnerID)
	if err != nil {
		return nil, err
	}

	// 2) prior history, ASC
	history, err := s.store.ListMessages(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	// 3) store user message (committed, survives any later failure)
	userMsg, err := s.store.AppendMessage(ctx, req.ConversationID, RoleUser, req.Text)
	if err != nil {
		return nil, err
	}
	log.Debug("user message recorded", "message_id", userMsg.ID)

	// 4) build prompt from history plus the new input
	prompt := BuildPrompt(history, userMsg.Content)

	// 5) call generator
	reply, err := s.gen.Generate(ctx, ai.GenerateRequest{Model: req.Model, Prompt: prompt, Stream: req.Stream})
	if err != nil {
		log.Error("generation failed", "model", req.Model, "user_message_id", userMsg.ID, "err", err)
		return nil, fmt.Errorf("generate reply: %w", err)
	}
	if reply == "" {
		return nil, fmt.Errorf("generate reply: %w", &ai.Error{Kind: ai.KindMalformed, Backend: "generator", Detail: "empty text"})
	}

	// 6) store model message
	modelMsg, err := s.store.AppendMessage(ctx, req.ConversationID, RoleModel, reply)
	if err != nil {
		log.Error("reply not saved", "user_message_id", userMsg.ID, "err", err)
		return nil, &UnsavedReplyError{Text: reply, Err: err}
	}

	return &TurnResult{
		Conversation:       conv,
		AssistantText:      reply,
		UserMessageID:      userMsg.ID,
		AssistantMessageID: modelMsg.ID,
		MessageCount:       len(history) + 2,
	}, nil
}

func (s *Service) StartConversation(ctx context.Context, userID uint64, conversationID, name string) (*Conversation, error) {
	return s.store.CreateConversation(ctx, conversationID, name, userID)
}

func (s *Service) ListConversations(ctx context.Context, userID uint64) ([]Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

func (s *Service) RenameConversation(ctx context.Context, userID uint64, conversationID, name string) (*Conversation, error) {
	return s.store.RenameConversation(ctx, conversationID, userID, name)
}

// GetConversation returns the conversation with its full history.
func (s *Service) GetConversation(ctx context.Context, userID uint64, conversationID string) (*Conversation, []Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}
