package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/ai"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/common"
	"github.com/suPer8Hu/ai-chat/internal/config"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/middleware"
)

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

// writeChatError maps chat and generation errors to the response envelope.
func (h *Handler) writeChatError(c *gin.Context, err error) {
	var unsaved *chat.UnsavedReplyError
	switch {
	case errors.As(err, &unsaved):
		common.FailData(c, http.StatusInternalServerError, 50003, "reply generated but not saved",
			gin.H{"generated_text": unsaved.Text})
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
	case errors.Is(err, chat.ErrConversationExists):
		common.Fail(c, http.StatusBadRequest, 10010, "conversation id already exists")
	case ai.IsGenerationFailure(err):
		common.Fail(c, http.StatusBadGateway, 50201, "error communicating with model: "+err.Error())
	case errors.Is(err, chat.ErrPersistence):
		common.Fail(c, http.StatusInternalServerError, 50002, "storage error")
	case errors.Is(err, context.DeadlineExceeded):
		common.Fail(c, http.StatusGatewayTimeout, 50401, "timed out")
	default:
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

type conversationOut struct {
	ID   string `json:"id"`
	Name string `json:"conversation_name"`
}

func toConversationOut(conv *chat.Conversation) conversationOut {
	return conversationOut{ID: conv.ConversationID, Name: conv.Name}
}

func (h *Handler) ListConversations(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	convs, err := h.ChatSvc.ListConversations(c.Request.Context(), uid)
	if err != nil {
		h.Logger.Error("list conversations failed", "user_id", uid, "err", err)
		h.writeChatError(c, err)
		return
	}

	out := make([]conversationOut, 0, len(convs))
	for i := range convs {
		out = append(out, toConversationOut(&convs[i]))
	}
	common.OK(c, out)
}

// bindOptionalJSON binds the body when there is one; an empty body is fine.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return false
	}
	return true
}

// conv_id and conv_name are read from the JSON body, or from the query string.
type startConversationReq struct {
	ConvID   string `json:"conv_id"`
	ConvName string `json:"conv_name"`
}

func (h *Handler) StartConversation(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req startConversationReq
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.ConvID == "" {
		req.ConvID = c.Query("conv_id")
	}
	if req.ConvName == "" {
		req.ConvName = c.Query("conv_name")
	}
	req.ConvID = strings.TrimSpace(req.ConvID)
	if req.ConvID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "conv_id required")
		return
	}
	if len(req.ConvID) > 64 {
		common.Fail(c, http.StatusBadRequest, 10004, "conv_id too long")
		return
	}

	conv, err := h.ChatSvc.StartConversation(c.Request.Context(), uid, req.ConvID, req.ConvName)
	if err != nil {
		h.writeChatError(c, err)
		return
	}
	common.OK(c, toConversationOut(conv))
}

type renameReq struct {
	ConvName *string `json:"conv_name"`
}

func (h *Handler) RenameConversation(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req renameReq
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.ConvName == nil {
		if v, ok := c.GetQuery("conv_name"); ok {
			req.ConvName = &v
		}
	}
	if req.ConvName == nil {
		common.Fail(c, http.StatusBadRequest, 10002, "conv_name required")
		return
	}

	conv, err := h.ChatSvc.RenameConversation(c.Request.Context(), uid, c.Param("conv_id"), *req.ConvName)
	if err != nil {
		h.writeChatError(c, err)
		return
	}
	common.OK(c, toConversationOut(conv))
}

type messageOut struct {
	ID      uint64 `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *Handler) GetConversation(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	conv, msgs, err := h.ChatSvc.GetConversation(c.Request.Context(), uid, c.Param("conv_id"))
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	out := make([]messageOut, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageOut{ID: m.ID, Role: m.Role.Label(), Content: m.Content})
	}
	common.OK(c, gin.H{
		"id":                conv.ConversationID,
		"conversation_name": conv.Name,
		"messages":          out,
	})
}

// queryReq is the body of every generation call.
type queryReq struct {
	Prompt string `json:"prompt" binding:"required"`
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

func (h *Handler) bindQuery(c *gin.Context) (queryReq, bool) {
	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json: prompt required")
		return req, false
	}
	if strings.TrimSpace(req.Model) == "" {
		req.Model = h.defaultModel()
	}
	return req, true
}

func (h *Handler) SendMessage(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}

	convID := c.Param("conv_id")
	ctx := c.Request.Context()
	res, err := h.ChatSvc.SubmitTurn(ctx, chat.TurnRequest{
		ConversationID: convID,
		OwnerID:        uid,
		Text:           req.Prompt,
		Model:          req.Model,
		Stream:         req.Stream,
	})
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	name := h.nameAfterTurn(ctx, res, uid, req.Model)
	common.OK(c, gin.H{
		"generated_text":    res.AssistantText,
		"conversation_name": name,
	})
}

// nameAfterTurn runs or enqueues the naming step and returns the name to show.
// Failures are logged and never change the turn response.
func (h *Handler) nameAfterTurn(ctx context.Context, res *chat.TurnResult, uid uint64, model string) string {
	conv := res.Conversation
	if !chat.ShouldName(res.MessageCount) {
		return conv.Name
	}
	log := h.Logger.With("conversation_id", conv.ConversationID, "user_id", uid)

	if h.Cfg.NamingMode == config.NamingQueue && h.Publisher != nil {
		job := chat.NamingJob{
			ConversationID: conv.ConversationID,
			OwnerID:        uid,
			Model:          model,
			MessageCount:   res.MessageCount,
		}
		if err := h.Publisher.PublishNamingJob(ctx, job); err != nil {
			log.Warn("publish naming job failed", "err", err)
		}
		return conv.Name
	}

	name, renamed, err := h.Namer.MaybeRename(ctx, conv, res.MessageCount, model)
	if err != nil {
		log.Warn("naming failed", "err", err)
		return conv.Name
	}
	if !renamed {
		return conv.Name
	}
	return name
}
