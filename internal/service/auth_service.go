package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/reservation-api/internal/models"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

// SessionStore persists admin sessions so tokens can be revoked.
type SessionStore interface {
	Create(ctx context.Context, session *models.AdminSession, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Find(ctx context.Context, id string) (*models.AdminSession, error)
	Delete(ctx context.Context, id string) error
}

// AuthConfig defines configuration for admin authentication.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	PasswordHash      string
}

// AuthService authenticates the single admin principal.
type AuthService struct {
	sessions  SessionStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService. A nil session store falls back to
// stateless tokens that stay valid until they expire.
func NewAuthService(sessions SessionStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{sessions: sessions, validator: validate, metrics: metrics, logger: logger, config: config, now: time.Now}
}

// ResolvePasswordHash returns the configured bcrypt hash, hashing plain when no hash is given.
func ResolvePasswordHash(hash, plain string) (string, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return "", fmt.Errorf("admin password hash: %w", err)
		}
		return hash, nil
	}
	if plain == "" {
		return "", nil
	}
	generated, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(generated), nil
}

// Login checks the admin password and issues a session-bound access token.
func (s *AuthService) Login(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "password is required")
	}
	if s.config.PasswordHash == "" {
		s.logger.Warn("admin login attempted without a configured password")
		s.metrics.RecordAdminLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("admin login rejected", zap.String("ip", req.IP))
		s.metrics.RecordAdminLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	issuedAt := s.now().UTC()
	session := &models.AdminSession{
		ID:        uuid.NewString(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.config.AccessTokenExpiry),
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}

	token, err := s.generateAccessToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if s.sessions != nil {
		if err := s.sessions.Create(ctx, session, s.config.AccessTokenExpiry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
		}
	}

	s.metrics.RecordAdminLogin(true)
	s.logger.Info("admin logged in", zap.String("session_id", session.ID), zap.String("ip", req.IP))

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

// ValidateToken parses the access token and checks that its session is still live.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid || claims.Role != models.RoleAdmin || claims.SessionID() == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	if s.sessions != nil {
		live, err := s.sessions.Exists(ctx, claims.SessionID())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session")
		}
		if !live {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or revoked")
		}
	}
	return claims, nil
}

// Session describes the session behind claims.
func (s *AuthService) Session(ctx context.Context, claims *models.AdminClaims) (*models.AdminSession, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if s.sessions != nil {
		session, err := s.sessions.Find(ctx, claims.SessionID())
		if err == nil {
			return session, nil
		}
		s.logger.Debug("session lookup failed, using token claims", zap.Error(err))
	}
	session := &models.AdminSession{ID: claims.SessionID()}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Logout revokes the session behind claims.
func (s *AuthService) Logout(ctx context.Context, claims *models.AdminClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	s.logger.Info("admin logged out", zap.String("session_id", claims.SessionID()))
	return nil
}

func (s *AuthService) generateAccessToken(session *models.AdminSession) (string, error) {
	claims := &models.AdminClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.config.Issuer,
			Subject:   models.RoleAdmin,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			NotBefore: jwt.NewNumericDate(session.IssuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", err
	}
	return signed, nil
}
