package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"techticks-chat/internal/domain"
	"techticks-chat/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorage            = errors.New("identity storage failure")
)

var (
	authKeys  = []string{repository.KeyAuthToken, repository.KeyAuthUser}
	guestKeys = []string{repository.KeySessionID, repository.KeyGuestUserID}
	allKeys   = []string{repository.KeyAuthToken, repository.KeyAuthUser, repository.KeySessionID, repository.KeyGuestUserID}
)

// SessionStore es la única autoridad sobre la identidad actual.
// Toda transición escribe primero en el KVStore y luego publica el nuevo estado.
type SessionStore struct {
	kv     repository.KVStore
	logger *zap.Logger
	now    func() time.Time

	// opMu serializa transiciones completas (storage + estado).
	opMu sync.Mutex

	mu        sync.RWMutex
	identity  domain.Identity
	loading   bool
	listeners map[int]func(domain.Identity)
	nextSub   int

	restoreOnce sync.Once
}

func NewSessionStore(kv repository.KVStore, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		kv:        kv,
		logger:    logger,
		now:       time.Now,
		identity:  domain.Unauthenticated(),
		loading:   true,
		listeners: make(map[int]func(domain.Identity)),
	}
}

// Restore rehidrata la identidad persistida. Solo la primera llamada tiene efecto;
// IsLoading pasa a false al terminar, pase lo que pase.
func (s *SessionStore) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		s.opMu.Lock()
		defer s.opMu.Unlock()
		defer func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}()

		id, err := s.readPersisted(ctx)
		if err != nil {
			s.logger.Warn("restore identity failed, starting signed out", zap.Error(err))
			id = domain.Unauthenticated()
		}
		s.publish(id)
		s.logger.Info("identity restored", zap.String("mode", id.Mode.String()))
	})
}

func (s *SessionStore) readPersisted(ctx context.Context) (domain.Identity, error) {
	if s.kv == nil {
		return domain.Identity{}, ErrNotConfigured
	}
	token, hasToken, err := s.kv.Get(ctx, repository.KeyAuthToken)
	if err != nil {
		return domain.Identity{}, err
	}
	rawUser, hasUser, err := s.kv.Get(ctx, repository.KeyAuthUser)
	if err != nil {
		return domain.Identity{}, err
	}
	sessionID, hasSession, err := s.kv.Get(ctx, repository.KeySessionID)
	if err != nil {
		return domain.Identity{}, err
	}

	if hasToken && token != "" && hasUser {
		var user domain.User
		switch {
		case json.Unmarshal([]byte(rawUser), &user) != nil:
			s.logger.Warn("discarding unreadable auth_user")
		case tokenExpired(token, s.now()):
			s.logger.Info("discarding expired auth_token")
		default:
			if hasSession {
				// Ambos pares guardados (datos viejos): gana la cuenta.
				s.removeKeys(ctx, guestKeys)
			}
			return domain.Authenticated(token, user), nil
		}
		s.removeKeys(ctx, authKeys)
	} else if hasToken || hasUser {
		s.removeKeys(ctx, authKeys)
	}

	if hasSession && sessionID != "" {
		var userID int64
		if raw, ok, err := s.kv.Get(ctx, repository.KeyGuestUserID); err == nil && ok {
			userID, _ = strconv.ParseInt(raw, 10, 64)
		}
		return domain.Guest(sessionID, domain.NewGuestUser(userID, s.now())), nil
	}
	return domain.Unauthenticated(), nil
}

// Login pasa a Authenticated y borra cualquier sesión de invitado.
func (s *SessionStore) Login(ctx context.Context, token string, user domain.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidCredentials
	}
	user.IsGuest = false
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	err = s.write(ctx,
		map[string]string{repository.KeyAuthToken: token, repository.KeyAuthUser: string(rawUser)},
		guestKeys,
	)
	if err != nil {
		return s.failClosed(ctx, "login", err)
	}
	s.publish(domain.Authenticated(token, user))
	s.logger.Info("signed in", zap.Int64("user_id", user.ID))
	return nil
}

// GuestMode pasa a Guest con un usuario sintetizado y borra las claves de cuenta.
func (s *SessionStore) GuestMode(ctx context.Context, sessionID string, userID int64) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidCredentials
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := s.write(ctx,
		map[string]string{
			repository.KeySessionID:   sessionID,
			repository.KeyGuestUserID: strconv.FormatInt(userID, 10),
		},
		authKeys,
	)
	if err != nil {
		return s.failClosed(ctx, "guest", err)
	}
	s.publish(domain.Guest(sessionID, domain.NewGuestUser(userID, s.now())))
	s.logger.Info("guest session started", zap.Int64("user_id", userID))
	return nil
}

// Logout vuelve a Unauthenticated y borra las tres claves.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := s.write(ctx, nil, allKeys)
	s.publish(domain.Unauthenticated())
	if err != nil {
		s.logger.Warn("logout could not clear storage", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.logger.Info("signed out")
	return nil
}

// write borra primero las claves del otro modo para no dejar nunca dos pares a la vez.
func (s *SessionStore) write(ctx context.Context, set map[string]string, remove []string) error {
	if s.kv == nil {
		return ErrNotConfigured
	}
	for _, k := range remove {
		if err := s.kv.Remove(ctx, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	for _, k := range allKeys {
		v, ok := set[k]
		if !ok {
			continue
		}
		if err := s.kv.Set(ctx, k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func (s *SessionStore) failClosed(ctx context.Context, op string, cause error) error {
	s.logger.Warn("identity transition failed, signing out", zap.String("op", op), zap.Error(cause))
	s.removeKeys(ctx, allKeys)
	s.publish(domain.Unauthenticated())
	return fmt.Errorf("%w: %v", ErrStorage, cause)
}

func (s *SessionStore) removeKeys(ctx context.Context, keys []string) {
	if s.kv == nil {
		return
	}
	for _, k := range keys {
		if err := s.kv.Remove(ctx, k); err != nil {
			s.logger.Warn("remove key failed", zap.String("key", k), zap.Error(err))
		}
	}
}

// publish fija la identidad y avisa a los suscriptores fuera del lock de estado.
func (s *SessionStore) publish(id domain.Identity) {
	s.mu.Lock()
	s.identity = id
	fns := make([]func(domain.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// Subscribe registra fn para cada transición; devuelve la función para darse de baja.
func (s *SessionStore) Subscribe(fn func(domain.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *SessionStore) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := s.identity
	if id.User != nil {
		u := *id.User
		id.User = &u
	}
	return id
}

func (s *SessionStore) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Credentials()
}

func (s *SessionStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// IsAuthenticated es true con cualquier identidad usable, invitados incluidos.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Mode != domain.ModeUnauthenticated
}

// HasAccount distingue una cuenta durable de una sesión de invitado.
func (s *SessionStore) HasAccount() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Mode == domain.ModeAuthenticated
}
