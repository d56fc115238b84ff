package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suPer8Hu/ai-chat/internal/ai"
)

// NamingThreshold is the largest message count at which a conversation is
// still considered to be on its first exchange.
const NamingThreshold = 2

// ShouldName reports whether a conversation holding messageCount messages
// after a turn should get a generated title.
func ShouldName(messageCount int) bool {
	return messageCount > 0 && messageCount <= NamingThreshold
}

// Namer gives a conversation a short title after its first exchange.
// Its errors are for logging; they must never fail the turn itself.
type Namer struct {
	store  Store
	gen    ai.Generator
	logger *slog.Logger
}

func NewNamer(store Store, gen ai.Generator, logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namer{store: store, gen: gen, logger: logger.With("component", "namer")}
}

// MaybeRename titles conv from its first user message when messageCount is
// within NamingThreshold. It returns the new name, or "" with renamed=false
// when it did not fire.
func (n *Namer) MaybeRename(ctx context.Context, conv *Conversation, messageCount int, model string) (name string, renamed bool, err error) {
	if !ShouldName(messageCount) {
		return "", false, nil
	}

	first, err := n.store.FirstUserMessage(ctx, conv.ConversationID)
	if err != nil {
		return "", false, fmt.Errorf("load first message: %w", err)
	}

	raw, err := n.gen.Generate(ctx, ai.GenerateRequest{Model: model, Prompt: TitlePrompt(first.Content)})
	if err != nil {
		return "", false, fmt.Errorf("generate title: %w", err)
	}

	title := StripTitle(raw)
	updated, err := n.store.RenameConversation(ctx, conv.ConversationID, conv.UserID, title)
	if err != nil {
		return "", false, fmt.Errorf("rename conversation: %w", err)
	}

	n.logger.Info("conversation named",
		"conversation_id", conv.ConversationID,
		"old_name", conv.Name,
		"new_name", updated.Name)
	return updated.Name, true, nil
}
