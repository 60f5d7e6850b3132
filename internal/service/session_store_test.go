package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"techticks-chat/internal/domain"
	"techticks-chat/internal/repository"
)

type flakyKV struct {
	*repository.MemoryKVStore
	getErr    error
	setErr    error
	removeErr error
}

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryKVStore: repository.NewMemoryKVStore()}
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryKVStore.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryKVStore.Set(ctx, key, value)
}

func (f *flakyKV) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.MemoryKVStore.Remove(ctx, key)
}

func seed(t *testing.T, kv repository.KVStore, items map[string]string) {
	t.Helper()
	for k, v := range items {
		if err := kv.Set(context.Background(), k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
}

func userJSON(t *testing.T, u domain.User) string {
	t.Helper()
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	return string(b)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// assertExclusive comprueba que como mucho uno de los pares persistidos exista y coincida con la identidad.
func assertExclusive(t *testing.T, store *SessionStore, kv *repository.MemoryKVStore) {
	t.Helper()
	snap := kv.Snapshot()
	_, hasToken := snap[repository.KeyAuthToken]
	_, hasUser := snap[repository.KeyAuthUser]
	_, hasSession := snap[repository.KeySessionID]
	_, hasGuestID := snap[repository.KeyGuestUserID]

	id := store.Identity()
	switch id.Mode {
	case domain.ModeAuthenticated:
		if !hasToken || !hasUser || hasSession || hasGuestID {
			t.Fatalf("authenticated but storage is %+v", snap)
		}
		if id.Token == "" || id.SessionID != "" {
			t.Fatalf("authenticated identity must carry only a token: %+v", id)
		}
	case domain.ModeGuest:
		if hasToken || hasUser || !hasSession || !hasGuestID {
			t.Fatalf("guest but storage is %+v", snap)
		}
		if id.Token != "" || id.SessionID == "" {
			t.Fatalf("guest identity must carry only a session id: %+v", id)
		}
	default:
		if len(snap) != 0 {
			t.Fatalf("signed out but storage is %+v", snap)
		}
		if id.Token != "" || id.SessionID != "" || id.User != nil {
			t.Fatalf("unauthenticated identity must be empty: %+v", id)
		}
	}
}

func TestSessionStore_RestoreWithoutState(t *testing.T) {
	store := NewSessionStore(repository.NewMemoryKVStore(), nil)
	if !store.IsLoading() {
		t.Fatalf("expected loading before restore")
	}

	store.Restore(context.Background())

	if store.IsLoading() {
		t.Fatalf("expected loading false after restore")
	}
	if store.Identity().Mode != domain.ModeUnauthenticated || store.IsAuthenticated() {
		t.Fatalf("expected unauthenticated, got %+v", store.Identity())
	}
}

func TestSessionStore_RestoreAuthenticatedKeepsAllFields(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	created := time.Date(2025, 8, 28, 10, 30, 0, 0, time.UTC)
	user := domain.User{ID: 1, Username: "al", Email: "al@example.com", CreatedAt: created}
	seed(t, kv, map[string]string{
		repository.KeyAuthToken: "tok-9",
		repository.KeyAuthUser:  userJSON(t, user),
	})

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	id := store.Identity()
	if id.Mode != domain.ModeAuthenticated || id.Token != "tok-9" {
		t.Fatalf("expected authenticated with tok-9, got %+v", id)
	}
	if id.User == nil || id.User.ID != 1 || id.User.Username != "al" || id.User.Email != "al@example.com" || !id.User.CreatedAt.Equal(created) {
		t.Fatalf("user not restored faithfully: %+v", id.User)
	}
	if store.IsLoading() {
		t.Fatalf("expected loading false")
	}
}

func TestSessionStore_RestoreGuest(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	seed(t, kv, map[string]string{
		repository.KeySessionID:   "sess-1",
		repository.KeyGuestUserID: "42",
	})

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	id := store.Identity()
	if id.Mode != domain.ModeGuest || id.SessionID != "sess-1" {
		t.Fatalf("expected guest sess-1, got %+v", id)
	}
	if id.User == nil || id.User.ID != 42 || id.User.Username != "guest_42" || !id.User.IsGuest || id.User.Email != "" {
		t.Fatalf("unexpected guest user %+v", id.User)
	}
}

func TestSessionStore_RestoreCorruptUserFallsBack(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	seed(t, kv, map[string]string{
		repository.KeyAuthToken: "tok-9",
		repository.KeyAuthUser:  "{broken",
	})

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	if store.Identity().Mode != domain.ModeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %+v", store.Identity())
	}
	if store.IsLoading() {
		t.Fatalf("expected loading false")
	}
	assertExclusive(t, store, kv)
}

func TestSessionStore_RestoreReadErrorFallsBack(t *testing.T) {
	kv := newFlakyKV()
	kv.getErr = errors.New("disk gone")

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	if store.Identity().Mode != domain.ModeUnauthenticated || store.IsLoading() {
		t.Fatalf("expected unauthenticated and not loading, got %+v loading=%v", store.Identity(), store.IsLoading())
	}
}

func TestSessionStore_RestoreExpiredJWT(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	seed(t, kv, map[string]string{
		repository.KeyAuthToken: signedToken(t, time.Now().Add(-time.Hour)),
		repository.KeyAuthUser:  userJSON(t, domain.User{ID: 1, Username: "al"}),
	})

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	if store.Identity().Mode != domain.ModeUnauthenticated {
		t.Fatalf("expired token must not restore, got %+v", store.Identity())
	}
	assertExclusive(t, store, kv)
}

func TestSessionStore_RestoreLiveJWT(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	token := signedToken(t, time.Now().Add(time.Hour))
	seed(t, kv, map[string]string{
		repository.KeyAuthToken: token,
		repository.KeyAuthUser:  userJSON(t, domain.User{ID: 1, Username: "al"}),
	})

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	if id := store.Identity(); id.Mode != domain.ModeAuthenticated || id.Token != token {
		t.Fatalf("expected authenticated, got %+v", id)
	}
}

func TestSessionStore_RestoreRepairsBothPairs(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	seed(t, kv, map[string]string{
		repository.KeyAuthToken:   "tok-9",
		repository.KeyAuthUser:    userJSON(t, domain.User{ID: 1, Username: "al"}),
		repository.KeySessionID:   "sess-1",
		repository.KeyGuestUserID: "42",
	})

	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	if store.Identity().Mode != domain.ModeAuthenticated {
		t.Fatalf("expected account to win, got %+v", store.Identity())
	}
	assertExclusive(t, store, kv)
}

func TestSessionStore_RestoreRunsOnce(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())

	seed(t, kv, map[string]string{repository.KeySessionID: "late"})
	store.Restore(context.Background())

	if store.Identity().Mode != domain.ModeUnauthenticated {
		t.Fatalf("second restore must be a no-op, got %+v", store.Identity())
	}
}

func TestSessionStore_GuestThenLogin(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())
	ctx := context.Background()

	if err := store.GuestMode(ctx, "sess-1", 42); err != nil {
		t.Fatalf("guest mode: %v", err)
	}
	id := store.Identity()
	if id.Mode != domain.ModeGuest || id.UserID() != 42 || id.SessionID != "sess-1" {
		t.Fatalf("unexpected guest identity %+v", id)
	}
	if !store.IsAuthenticated() || store.HasAccount() {
		t.Fatalf("guest should be signed in without an account")
	}
	if v, _, _ := kv.Get(ctx, repository.KeySessionID); v != "sess-1" {
		t.Fatalf("expected persisted session_id sess-1, got %q", v)
	}
	if c := store.Credentials(); c.SessionID != "sess-1" || c.BearerToken != "" {
		t.Fatalf("unexpected guest credentials %+v", c)
	}
	assertExclusive(t, store, kv)

	if err := store.Login(ctx, "tok-9", domain.User{ID: 1, Username: "al", Email: "al@example.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	id = store.Identity()
	if id.Mode != domain.ModeAuthenticated || id.Token != "tok-9" || id.User.Username != "al" {
		t.Fatalf("unexpected identity after login %+v", id)
	}
	if _, ok, _ := kv.Get(ctx, repository.KeySessionID); ok {
		t.Fatalf("session_id must be removed on login")
	}
	if v, _, _ := kv.Get(ctx, repository.KeyAuthToken); v != "tok-9" {
		t.Fatalf("expected persisted auth_token tok-9, got %q", v)
	}
	if c := store.Credentials(); c.BearerToken != "tok-9" || c.SessionID != "" {
		t.Fatalf("unexpected credentials %+v", c)
	}
	assertExclusive(t, store, kv)
}

func TestSessionStore_TransitionSequencesStayExclusive(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	store := NewSessionStore(kv, nil)
	store.Restore(context.Background())
	ctx := context.Background()

	steps := []func() error{
		func() error { return store.Login(ctx, "t1", domain.User{ID: 1, Username: "a"}) },
		func() error { return store.GuestMode(ctx, "s1", 7) },
		func() error { return store.GuestMode(ctx, "s2", 8) },
		func() error { return store.Logout(ctx) },
		func() error { return store.Logout(ctx) },
		func() error { return store.GuestMode(ctx, "s3", 9) },
		func() error { return store.Login(ctx, "t2", domain.User{ID: 2, Username: "b"}) },
		func() error { return store.Login(ctx, "t3", domain.User{ID: 3, Username: "c"}) },
		func() error { return store.Logout(ctx) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		assertExclusive(t, store, kv)
	}
}

func TestSessionStore_LoginMarksUserAsAccount(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	store := NewSessionStore(kv, nil)

	if err := store.Login(context.Background(), "tok", domain.User{ID: 5, Username: "x", IsGuest: true}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.Identity().User.IsGuest || !store.HasAccount() {
		t.Fatalf("logged-in user must not be flagged as guest")
	}
}

func TestSessionStore_RejectsEmptyCredentials(t *testing.T) {
	kv := repository.NewMemoryKVStore()
	store := NewSessionStore(kv, nil)
	ctx := context.Background()
	if err := store.GuestMode(ctx, "sess-1", 1); err != nil {
		t.Fatalf("guest mode: %v", err)
	}

	if err := store.Login(ctx, "  ", domain.User{ID: 1}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := store.GuestMode(ctx, "", 1); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.Identity().Mode != domain.ModeGuest {
		t.Fatalf("rejected transitions must not change identity")
	}
	assertExclusive(t, store, kv)
}

func TestSessionStore_WriteFailureSignsOut(t *testing.T) {
	kv := newFlakyKV()
	store := NewSessionStore(kv, nil)
	ctx := context.Background()
	if err := store.GuestMode(ctx, "sess-1", 1); err != nil {
		t.Fatalf("guest mode: %v", err)
	}

	kv.setErr = errors.New("quota exceeded")
	err := store.Login(ctx, "tok-9", domain.User{ID: 1})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if store.Identity().Mode != domain.ModeUnauthenticated || store.IsAuthenticated() {
		t.Fatalf("expected unauthenticated after failed write, got %+v", store.Identity())
	}
	if len(kv.Snapshot()) != 0 {
		t.Fatalf("expected storage cleared, got %+v", kv.Snapshot())
	}
}

func TestSessionStore_LogoutFailureStillSignsOut(t *testing.T) {
	kv := newFlakyKV()
	store := NewSessionStore(kv, nil)
	ctx := context.Background()
	if err := store.Login(ctx, "tok", domain.User{ID: 1}); err != nil {
		t.Fatalf("login: %v", err)
	}

	kv.removeErr = errors.New("read-only")
	if err := store.Logout(ctx); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("logout must sign out even when storage fails")
	}
}

func TestSessionStore_NotConfigured(t *testing.T) {
	store := NewSessionStore(nil, nil)
	store.Restore(context.Background())
	if store.IsLoading() || store.IsAuthenticated() {
		t.Fatalf("store without kv should restore signed out")
	}
	if err := store.Login(context.Background(), "tok", domain.User{}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestSessionStore_Subscribe(t *testing.T) {
	store := NewSessionStore(repository.NewMemoryKVStore(), nil)
	ctx := context.Background()

	var modes []domain.Mode
	unsubscribe := store.Subscribe(func(id domain.Identity) { modes = append(modes, id.Mode) })

	_ = store.GuestMode(ctx, "s", 1)
	_ = store.Login(ctx, "t", domain.User{ID: 1})
	unsubscribe()
	_ = store.Logout(ctx)

	if len(modes) != 2 || modes[0] != domain.ModeGuest || modes[1] != domain.ModeAuthenticated {
		t.Fatalf("unexpected notifications %v", modes)
	}
}

func TestSessionStore_IdentityIsASnapshot(t *testing.T) {
	store := NewSessionStore(repository.NewMemoryKVStore(), nil)
	_ = store.Login(context.Background(), "t", domain.User{ID: 1, Username: "al"})

	id := store.Identity()
	id.User.Username = "mallory"
	if store.Identity().User.Username != "al" {
		t.Fatalf("callers must not mutate the stored identity")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if tokenExpired("opaque-token", now) {
		t.Fatalf("opaque tokens never expire client-side")
	}
	if !tokenExpired(signedToken(t, now.Add(-time.Minute)), now) {
		t.Fatalf("expected expired")
	}
	if tokenExpired(signedToken(t, now.Add(time.Minute)), now) {
		t.Fatalf("expected live")
	}
}
