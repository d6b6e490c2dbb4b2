package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	autherrors "hrflow/internal/auth/errors"
	"hrflow/internal/config"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"
)

const (
	accessTokenTTL  = 15 * 60
	refreshTokenTTL = 7 * 24 * 3600
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, resp AuthResponse, err error)
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, resp AuthResponse, err error)
	GetMe(ctx context.Context, userID string) (*AuthResponse, error)
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
}

type service struct {
	users  user.Repository
	clk    clock.Clock
	cfg    config.Config
	logger *zap.Logger
}

func NewService(users user.Repository, clk clock.Clock, cfg config.Config, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &service{users: users, clk: clk, cfg: cfg, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (string, string, AuthResponse, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// Hash anyway so a missing account costs the same as a wrong password.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if !u.Active {
		return "", "", AuthResponse{}, autherrors.ErrAccountInactive
	}

	accessToken, err := s.generateToken(u.ID.String(), accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, err
	}
	refreshToken, err := s.generateToken(u.ID.String(), refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, err
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID.String()))

	return accessToken, refreshToken, mapToResponse(u), nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, string, AuthResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidToken
	}
	if !u.Active {
		return "", "", AuthResponse{}, autherrors.ErrAccountInactive
	}

	newAccess, err := s.generateToken(u.ID.String(), accessTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, err
	}
	newRefresh, err := s.generateToken(u.ID.String(), refreshTokenTTL)
	if err != nil {
		return "", "", AuthResponse{}, err
	}

	return newAccess, newRefresh, mapToResponse(u), nil
}

func (s *service) GetMe(ctx context.Context, userID string) (*AuthResponse, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, autherrors.ErrInvalidToken
	}
	resp := mapToResponse(u)
	return &resp, nil
}

func (s *service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return autherrors.ErrInvalidToken
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return autherrors.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hashed)
	return s.users.Update(ctx, u)
}

func (s *service) generateToken(userID string, ttlSeconds int64) (string, error) {
	now := s.clk.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Unix() + ttlSeconds,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func mapToResponse(u *user.User) AuthResponse {
	return AuthResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		FullName: u.FullName,
		RoleBand: u.RoleBand,
	}
}
