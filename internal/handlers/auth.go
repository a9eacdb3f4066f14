package handlers

import (
	"net/http"

	"procurement-transparency/internal/middleware"
	"procurement-transparency/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	tok, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	h.startSession(c, tok)
	respond(c, http.StatusCreated, tok)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	tok, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	h.startSession(c, tok)
	success(c, tok)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	success(c, nil)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	uid := middleware.CurrentUserID(c)
	if uid == nil {
		fail(c, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}
	u, err := h.auth.Me(c.Request.Context(), *uid)
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, u)
}

// браузерный клиент работает через cookie-сессию, API-клиенты — через токен
func (h *AuthHandler) startSession(c *gin.Context, tok *service.TokenView) {
	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserID, tok.User.ID)
	sess.Set(middleware.SessionRole, tok.User.Role)
	_ = sess.Save()
}

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		handleError(c, err)
		return
	}
	entries, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, entries)
}
