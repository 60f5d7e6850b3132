package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"techticks-chat/internal/domain"
)

// Cabeceras que adjunta el transporte.
const (
	HeaderAuthorization = "Authorization"
	HeaderSessionID     = "X-Session-ID"
	HeaderRequestID     = "X-Request-ID"
)

// ChatAPI envía un turno de conversación al backend.
type ChatAPI interface {
	Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error)
}

// AuthAPI cubre el alta de sesiones contra el backend.
type AuthAPI interface {
	StartGuest(ctx context.Context) (domain.GuestSession, error)
	Login(ctx context.Context, username, password string) (domain.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (domain.AuthResult, error)
}

// CatalogAPI lee el contenido estático de la empresa.
type CatalogAPI interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	ListFAQs(ctx context.Context) ([]domain.FAQ, error)
	ReadyMadeQuestions(ctx context.Context) ([]string, error)
	SuggestFAQs(ctx context.Context, query string) ([]domain.FAQ, error)
}

// CredentialSource entrega la credencial vigente en el momento de cada request.
type CredentialSource interface {
	Credentials() domain.Credentials
}

// StatusError indica que el backend respondió con un status no-OK.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat api http error: status=%d", e.StatusCode)
}

// IsStatusError informa si err (o algo que envuelve) es un *StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// HTTPClient implementa ChatAPI, AuthAPI y CatalogAPI sobre HTTP/JSON.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye el cliente; creds puede ser nil para llamadas anónimas.
func NewHTTPClient(baseURL string, timeout time.Duration, creds CredentialSource, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: NewCredentialTransport(nil, creds),
		},
		logger: logger,
	}
}

func (c *HTTPClient) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []domain.HistoryEntry{}
	}
	var reply domain.ChatReply
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", req, &reply); err != nil {
		return domain.ChatReply{}, err
	}
	return reply, nil
}

func (c *HTTPClient) StartGuest(ctx context.Context) (domain.GuestSession, error) {
	var gs domain.GuestSession
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/guest", nil, &gs); err != nil {
		return domain.GuestSession{}, err
	}
	if gs.SessionID == "" {
		return domain.GuestSession{}, errors.New("chat api: guest session without session_id")
	}
	return gs, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (domain.AuthResult, error) {
	body := map[string]string{"username": username, "password": password}
	return c.auth(ctx, "/api/auth/login", body)
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (domain.AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.auth(ctx, "/api/auth/register", body)
}

func (c *HTTPClient) auth(ctx context.Context, path string, body any) (domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, path, body, &res); err != nil {
		return domain.AuthResult{}, err
	}
	if res.AccessToken == "" {
		return domain.AuthResult{}, errors.New("chat api: auth response without access_token")
	}
	return res, nil
}

func (c *HTTPClient) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &out)
	return out, err
}

func (c *HTTPClient) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := c.doJSON(ctx, http.MethodGet, "/api/clients", nil, &out)
	return out, err
}

func (c *HTTPClient) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	var out []domain.FAQ
	err := c.doJSON(ctx, http.MethodGet, "/api/faqs", nil, &out)
	return out, err
}

func (c *HTTPClient) ReadyMadeQuestions(ctx context.Context) ([]string, error) {
	var out []string
	err := c.doJSON(ctx, http.MethodGet, "/api/chat/ready-made-questions", nil, &out)
	return out, err
}

func (c *HTTPClient) SuggestFAQs(ctx context.Context, query string) ([]domain.FAQ, error) {
	var out []domain.FAQ
	path := "/api/faqs/suggestions?q=" + url.QueryEscape(query)
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("chat api",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("chat api error status",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
