package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

type mockSessionStore struct {
	sessions  map[string]*models.AdminSession
	ttl       time.Duration
	createErr error
	existsErr error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]*models.AdminSession{}}
}

func (m *mockSessionStore) Create(ctx context.Context, session *models.AdminSession, ttl time.Duration) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions[session.ID] = session
	m.ttl = ttl
	return nil
}

func (m *mockSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.sessions[id]
	return ok, nil
}

func (m *mockSessionStore) Find(ctx context.Context, id string) (*models.AdminSession, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.New("missing")
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newTestAuthService(t *testing.T, sessions SessionStore) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("miracle-admin"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(sessions, nil, NewMetricsService(), nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "reservation-api",
		PasswordHash:      string(hash),
	})
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	store := newMockSessionStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.AdminLoginRequest{Password: "miracle-admin", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	require.Len(t, store.sessions, 1)
	assert.Equal(t, time.Hour, store.ttl)

	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	_, ok := store.sessions[claims.SessionID()]
	assert.True(t, ok)

	session, err := svc.Session(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", session.IPAddress)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	store := newMockSessionStore()
	svc := newTestAuthService(t, store)

	_, err := svc.Login(context.Background(), models.AdminLoginRequest{Password: "guess"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
	assert.Empty(t, store.sessions)

	_, err = svc.Login(context.Background(), models.AdminLoginRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestAuthServiceLoginWithoutConfiguredPassword(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "s"})
	_, err := svc.Login(context.Background(), models.AdminLoginRequest{Password: ""})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	_, err = svc.Login(context.Background(), models.AdminLoginRequest{Password: "anything"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLogoutRevokesSession(t *testing.T) {
	store := newMockSessionStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.AdminLoginRequest{Password: "miracle-admin"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.ValidateToken(ctx, resp.AccessToken)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceStatelessFallback(t *testing.T) {
	svc := newTestAuthService(t, nil)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.AdminLoginRequest{Password: "miracle-admin"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	session, err := svc.Session(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, claims.SessionID(), session.ID)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := newTestAuthService(t, nil)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))

	resp, err := svc.Login(ctx, models.AdminLoginRequest{Password: "miracle-admin"})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(ctx, resp.AccessToken)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized), "expired token")

	svc.now = time.Now
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.AdminClaims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Issuer: "reservation-api"},
	})
	signed, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, signed)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized), "wrong signature")
}

func TestResolvePasswordHash(t *testing.T) {
	hash, err := ResolvePasswordHash("", "secret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))

	same, err := ResolvePasswordHash(hash, "ignored")
	require.NoError(t, err)
	assert.Equal(t, hash, same)

	_, err = ResolvePasswordHash("plain-text", "")
	assert.Error(t, err)

	empty, err := ResolvePasswordHash("", "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
