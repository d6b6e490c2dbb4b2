package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hrflow/internal/auth"
	autherrors "hrflow/internal/auth/errors"
	"hrflow/internal/config"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"
)

type fakeUserRepo struct {
	user.Repository
	users map[string]*user.User
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, assert.AnError
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, assert.AnError
	}
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	f.users[u.ID.String()] = u
	return nil
}

func newAuthService(t *testing.T, repo *fakeUserRepo) (auth.Service, clock.Clock, config.Config) {
	t.Helper()
	// Token expiry is validated against wall-clock time inside jwt.Parse,
	// so the fixed clock pins to the real now rather than a past date.
	clk := clock.NewFixedClock(time.Now())
	cfg := config.Config{JWTSecret: "test-secret"}
	return auth.NewService(repo, clk, cfg, zap.NewNop()), clk, cfg
}

func seedUser(repo *fakeUserRepo, password string, active bool) *user.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user.User{
		ID:           uuid.New(),
		Email:        "dewi@example.com",
		FullName:     "Dewi Lestari",
		PasswordHash: string(hashed),
		RoleBand:     user.RoleHR,
		Active:       active,
	}
	repo.users[u.ID.String()] = u
	return u
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(repo, "hunter2hunter2", true)
	svc, _, cfg := newAuthService(t, repo)

	access, refresh, resp, err := svc.Login(context.Background(), u.Email, "hunter2hunter2")

	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, u.Email, resp.Email)
	assert.Equal(t, user.RoleHR, resp.RoleBand)

	token, err := jwt.Parse(access, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, u.ID.String(), claims["user_id"])
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(repo, "hunter2hunter2", true)
	svc, _, _ := newAuthService(t, repo)

	_, _, _, err := svc.Login(context.Background(), u.Email, "wrong")

	assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	svc, _, _ := newAuthService(t, repo)

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")

	assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(repo, "hunter2hunter2", false)
	svc, _, _ := newAuthService(t, repo)

	_, _, _, err := svc.Login(context.Background(), u.Email, "hunter2hunter2")

	assert.ErrorIs(t, err, autherrors.ErrAccountInactive)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(repo, "hunter2hunter2", true)
	svc, _, _ := newAuthService(t, repo)

	_, refresh, _, err := svc.Login(context.Background(), u.Email, "hunter2hunter2")
	require.NoError(t, err)

	newAccess, newRefresh, resp, err := svc.RefreshToken(context.Background(), refresh)

	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
	assert.Equal(t, u.ID.String(), resp.ID)
}

func TestRefreshTokenGarbageRejected(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	svc, _, _ := newAuthService(t, repo)

	_, _, _, err := svc.RefreshToken(context.Background(), "not-a-jwt")

	assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
}

func TestRefreshTokenWrongSecretRejected(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(repo, "hunter2hunter2", true)
	svc, _, _ := newAuthService(t, repo)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	raw, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, _, _, err = svc.RefreshToken(context.Background(), raw)

	assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(repo, "old-password-1", true)
	svc, _, _ := newAuthService(t, repo)

	err := svc.ChangePassword(context.Background(), u.ID.String(), auth.ChangePasswordRequest{
		CurrentPassword: "guessing",
		NewPassword:     "new-password-1",
	})
	assert.ErrorIs(t, err, autherrors.ErrWrongPassword)

	err = svc.ChangePassword(context.Background(), u.ID.String(), auth.ChangePasswordRequest{
		CurrentPassword: "old-password-1",
		NewPassword:     "new-password-1",
	})
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), u.Email, "new-password-1")
	assert.NoError(t, err)
}
