package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/store/rabbitmq"
)

type outcome int

const (
	outcomeAck   outcome = iota // done, or nothing left to do
	outcomeRetry                // transient generation failure
	outcomeDead                 // goes to the DLQ
)

const maxAttempts = 3

type namingHandler struct {
	store  chat.Store
	namer  *chat.Namer
	logger *slog.Logger
}

func (h *namingHandler) handle(ctx context.Context, body []byte, attempt int) outcome {
	job, ok := rabbitmq.DecodeNamingJob(body)
	if !ok {
		h.logger.Warn("bad naming message", "body_len", len(body))
		return outcomeDead
	}
	log := h.logger.With("conversation_id", job.ConversationID, "attempt", attempt)

	start := time.Now()
	conv, err := h.store.GetConversation(ctx, job.ConversationID, job.OwnerID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			log.Info("conversation gone, dropping job")
			return outcomeAck
		}
		log.Error("load conversation failed", "err", err)
		return h.retryOrDead(attempt)
	}

	name, renamed, err := h.namer.MaybeRename(ctx, conv, job.MessageCount, job.Model)
	if err != nil {
		log.Warn("naming failed", "cost", time.Since(start), "err", err)
		if ai.IsGenerationFailure(err) || errors.Is(err, chat.ErrPersistence) {
			return h.retryOrDead(attempt)
		}
		return outcomeDead
	}
	if renamed {
		log.Info("naming done", "name", name, "cost", time.Since(start))
	}
	return outcomeAck
}

func (h *namingHandler) retryOrDead(attempt int) outcome {
	if attempt+1 >= maxAttempts {
		return outcomeDead
	}
	return outcomeRetry
}
