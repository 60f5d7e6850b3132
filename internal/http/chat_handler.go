package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techticks-chat/internal/service"
)

// ChatHandler mantiene dependencias para los endpoints de la conversación.
type ChatHandler struct {
	logger *zap.Logger
	conv   *service.Conversation
}

func NewChatHandler(logger *zap.Logger, conv *service.Conversation) *ChatHandler {
	return &ChatHandler{
		logger: logger,
		conv:   conv,
	}
}

// ListMessages maneja GET /api/chat/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"messages":    h.conv.Messages(),
		"is_loading":  h.conv.IsLoading(),
		"suggestions": h.conv.Suggestions(),
	})
}

// PostMessage maneja POST /api/chat/messages.
// Los fallos del backend llegan como mensaje del asistente con status 200.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, err := h.conv.Send(c.Request.Context(), req.Message)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSendInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "a message is already being sent"})
		return
	case errors.Is(err, service.ErrConversationReset):
		c.JSON(http.StatusConflict, gin.H{"error": "conversation was cleared", "messages": h.conv.Messages()})
		return
	case errors.Is(err, context.Canceled):
		h.logger.Info("client went away before the reply")
		c.Status(http.StatusRequestTimeout)
		return
	default:
		h.logger.Error("send message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":       reply,
		"messages":    h.conv.Messages(),
		"suggestions": h.conv.Suggestions(),
	})
}

// ClearMessages maneja DELETE /api/chat/messages.
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	h.conv.Clear()
	c.Status(http.StatusNoContent)
}
