package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/common"
)

// Generate sends the prompt as-is, with no conversation state.
func (h *Handler) Generate(c *gin.Context) {
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}
	h.generate(c, ai.GenerateRequest{Model: req.Model, Prompt: req.Prompt, Stream: req.Stream})
}

// GenerateChatName returns the raw title suggestion for a first message.
func (h *Handler) GenerateChatName(c *gin.Context) {
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}
	h.generate(c, ai.GenerateRequest{Model: req.Model, Prompt: chat.TitlePrompt(req.Prompt), Stream: req.Stream})
}

func (h *Handler) generate(c *gin.Context, req ai.GenerateRequest) {
	text, err := h.Gen.Generate(c.Request.Context(), req)
	if err != nil {
		h.Logger.Error("generation failed", "model", req.Model, "err", err)
		h.writeChatError(c, err)
		return
	}
	common.OK(c, gin.H{"generated_text": text})
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
