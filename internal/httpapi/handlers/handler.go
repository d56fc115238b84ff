package handlers

import (
	"context"
	"log/slog"

	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/config"
	"gorm.io/gorm"
)

// NamingPublisher hands naming jobs to the worker queue.
type NamingPublisher interface {
	PublishNamingJob(ctx context.Context, job chat.NamingJob) error
}

type Handler struct {
	DB        *gorm.DB
	Cfg       config.Config
	ChatSvc   *chat.Service
	Namer     *chat.Namer
	Gen       ai.Generator
	Publisher NamingPublisher
	Logger    *slog.Logger
}

// NewHandler wires the chat service and namer on top of db. locker and
// publisher may be nil: turns then lock in-process and naming runs inline.
func NewHandler(db *gorm.DB, cfg config.Config, gen ai.Generator, locker chat.TurnLocker, publisher NamingPublisher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	repo := chat.NewRepo(db)
	return &Handler{
		DB:        db,
		Cfg:       cfg,
		ChatSvc:   chat.NewService(repo, gen, locker, logger),
		Namer:     chat.NewNamer(repo, gen, logger),
		Gen:       gen,
		Publisher: publisher,
		Logger:    logger.With("component", "http"),
	}
}

func (h *Handler) defaultModel() string {
	if h.Cfg.DefaultModel != "" {
		return h.Cfg.DefaultModel
	}
	return "llama3.2"
}
