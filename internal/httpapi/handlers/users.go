package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/auth"
	"github.com/suPer8Hu/ai-chat/internal/common"
	"github.com/suPer8Hu/ai-chat/internal/models"
	"gorm.io/gorm"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r credentialsReq) validate() string {
	if n := utf8.RuneCountInString(r.Username); n < 3 || n > 50 {
		return "username must be 3-50 characters"
	}
	if n := utf8.RuneCountInString(r.Password); n < 8 || n > 128 {
		return "password must be 8-128 characters"
	}
	return ""
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if msg := req.validate(); msg != "" {
		common.Fail(c, http.StatusBadRequest, 10002, msg)
		return
	}

	ctx := c.Request.Context()
	var cnt int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", req.Username).Count(&cnt).Error; err != nil {
		h.Logger.Error("check username failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, 20005, "failed to check username")
		return
	}
	if cnt > 0 {
		common.Fail(c, http.StatusBadRequest, 10003, "username already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	user := models.User{Username: req.Username, PasswordHash: hash}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		// lost a race on the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			common.Fail(c, http.StatusBadRequest, 10003, "username already exists")
			return
		}
		h.Logger.Error("create user failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, 20004, "failed to create user")
		return
	}

	common.OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.Logger.Error("load user failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
		return
	}

	ttl := h.Cfg.JWTTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, ttl)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}
