package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"techticks-chat/internal/chatapi"
	"techticks-chat/internal/domain"
)

// Respuestas fijas que sustituyen al asistente cuando el envío falla.
const (
	ServerErrorReply     = "Sorry, I encountered an error. Please try again."
	ConnectionErrorReply = "Sorry, I cannot connect to the server. Please check your connection."
)

// DefaultSuggestions se muestran mientras la conversación está vacía.
var DefaultSuggestions = []string{
	"What services does your company provide?",
	"What industries does your company specialize in?",
	"How do you handle bug fixing and software maintenance post-launch?",
}

// Conversation es dueña del log de mensajes de la sesión actual.
// Todas las mutaciones del log pasan por mu; nunca se hace I/O con mu tomado.
type Conversation struct {
	api     chatapi.ChatAPI
	session *SessionStore
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	messages   []domain.Message
	loading    bool
	generation uint64
	cancel     context.CancelFunc

	unsubscribe func()
}

// NewConversation enlaza el controlador con la sesión: cada cambio de identidad vacía el log.
func NewConversation(api chatapi.ChatAPI, session *SessionStore, logger *zap.Logger) *Conversation {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Conversation{
		api:     api,
		session: session,
		logger:  logger,
		now:     time.Now,
	}
	if session != nil {
		c.unsubscribe = session.Subscribe(c.onIdentityChange)
	}
	return c
}

// Send agrega el mensaje del usuario, pide la respuesta y agrega la del asistente.
// Texto vacío es un no-op (nil, nil). Los fallos del backend se convierten en
// mensajes del asistente; solo se devuelve error cuando no se agrega nada.
func (c *Conversation) Send(ctx context.Context, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if c == nil || c.api == nil {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrSendInFlight
	}
	history := historyOf(c.messages)
	c.messages = append(c.messages, domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: c.now().UTC(),
	})
	c.loading = true
	gen := c.generation
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		if c.generation == gen {
			c.loading = false
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	start := time.Now()
	reply, err := c.api.Chat(reqCtx, domain.ChatRequest{
		Message:             text,
		ConversationHistory: history,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		c.logger.Debug("dropping reply for a reset conversation")
		return nil, ErrConversationReset
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	var msg domain.Message
	switch {
	case err == nil:
		msg = c.assistantMessage(reply)
	case chatapi.IsStatusError(err):
		c.logger.Warn("chat request rejected by server", zap.Error(err))
		msg = c.assistantText(ServerErrorReply)
	default:
		c.logger.Warn("chat request failed", zap.Error(err))
		msg = c.assistantText(ConnectionErrorReply)
	}
	c.messages = append(c.messages, msg)
	c.logger.Debug("chat turn settled",
		zap.Duration("dur", time.Since(start)),
		zap.Int("messages", len(c.messages)),
	)
	return &msg, nil
}

func (c *Conversation) assistantMessage(reply domain.ChatReply) domain.Message {
	msg := c.assistantText(reply.Response)
	msg.RelatedFAQs = reply.RelatedFAQs
	msg.SuggestedQuestions = reply.SuggestedQuestions
	msg.ConfidenceScore = reply.ConfidenceScore
	return msg
}

func (c *Conversation) assistantText(content string) domain.Message {
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   content,
		CreatedAt: c.now().UTC(),
	}
}

func historyOf(messages []domain.Message) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(messages))
	for _, m := range messages {
		out = append(out, domain.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return out
}

// Clear vacía el log y descarta el envío en curso. No toca la identidad.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Logout cancela lo que esté en vuelo, vacía el log y cierra la sesión.
func (c *Conversation) Logout(ctx context.Context) error {
	c.Clear()
	if c.session == nil {
		return ErrNotConfigured
	}
	return c.session.Logout(ctx)
}

// Close equivale a desmontar la UI: se da de baja de la sesión y cancela el envío en curso.
func (c *Conversation) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.Clear()
}

func (c *Conversation) onIdentityChange(domain.Identity) {
	c.Clear()
}

func (c *Conversation) resetLocked() {
	c.messages = nil
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
}

// Messages devuelve una copia del log.
func (c *Conversation) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Suggestions devuelve las preguntas iniciales con el log vacío y, después,
// las sugeridas por la última respuesta del asistente.
func (c *Conversation) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return append([]string(nil), DefaultSuggestions...)
	}
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == domain.RoleAssistant {
			return append([]string(nil), c.messages[i].SuggestedQuestions...)
		}
	}
	return nil
}
