package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techticks-chat/internal/chatapi"
	"techticks-chat/internal/domain"
	"techticks-chat/internal/service"
)

// SessionHandler expone el ciclo de vida de la identidad al navegador.
type SessionHandler struct {
	logger *zap.Logger
	store  *service.SessionStore
	conv   *service.Conversation
	auth   chatapi.AuthAPI
}

func NewSessionHandler(logger *zap.Logger, store *service.SessionStore, conv *service.Conversation, auth chatapi.AuthAPI) *SessionHandler {
	return &SessionHandler{
		logger: logger,
		store:  store,
		conv:   conv,
		auth:   auth,
	}
}

type sessionView struct {
	Mode            string       `json:"mode"`
	IsLoading       bool         `json:"is_loading"`
	IsAuthenticated bool         `json:"is_authenticated"`
	HasAccount      bool         `json:"has_account"`
	User            *domain.User `json:"user,omitempty"`
	DisplayName     string       `json:"display_name,omitempty"`
	Subtitle        string       `json:"subtitle,omitempty"`
}

func (h *SessionHandler) view() sessionView {
	id := h.store.Identity()
	v := sessionView{
		Mode:            id.Mode.String(),
		IsLoading:       h.store.IsLoading(),
		IsAuthenticated: h.store.IsAuthenticated(),
		HasAccount:      h.store.HasAccount(),
		User:            id.User,
	}
	if id.User != nil {
		v.DisplayName = id.User.DisplayName()
		v.Subtitle = id.User.Subtitle()
	}
	return v
}

// GetSession maneja GET /api/session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": h.view()})
}

// StartGuest maneja POST /api/session/guest.
func (h *SessionHandler) StartGuest(c *gin.Context) {
	guest, err := h.auth.StartGuest(c.Request.Context())
	if err != nil {
		h.logger.Error("start guest session failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start guest session"})
		return
	}
	if err := h.store.GuestMode(c.Request.Context(), guest.SessionID, guest.UserID); err != nil {
		h.respondTransitionError(c, "guest", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view()})
}

// Login maneja POST /api/session/login.
func (h *SessionHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(c, "login", err)
		return
	}
	h.adopt(c, res)
}

// Register maneja POST /api/session/register.
func (h *SessionHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, "register", err)
		return
	}
	h.adopt(c, res)
}

// AdoptToken maneja POST /api/session/token: el navegador ya tiene un token y su usuario.
func (h *SessionHandler) AdoptToken(c *gin.Context) {
	var req struct {
		AccessToken string      `json:"access_token" binding:"required"`
		User        domain.User `json:"user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid adopt token request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	h.adopt(c, domain.AuthResult{AccessToken: req.AccessToken, User: req.User})
}

func (h *SessionHandler) adopt(c *gin.Context, res domain.AuthResult) {
	if err := h.store.Login(c.Request.Context(), res.AccessToken, res.User); err != nil {
		h.respondTransitionError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view()})
}

// Logout maneja POST /api/session/logout. Siempre termina sin sesión.
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.conv.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("logout left stale storage", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view()})
}

func (h *SessionHandler) respondAuthError(c *gin.Context, op string, err error) {
	var se *chatapi.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusBadRequest) {
		h.logger.Info("auth rejected", zap.String("op", op), zap.Int("status", se.StatusCode))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.logger.Error("auth request failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "authentication service unavailable"})
}

func (h *SessionHandler) respondTransitionError(c *gin.Context, op string, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logger.Warn("empty credentials", zap.String("op", op))
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty credentials"})
		return
	}
	h.logger.Error("persist session failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist session", "session": h.view()})
}
