package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrflow/internal/auth"
	autherrors "hrflow/internal/auth/errors"
)

type fakeAuthService struct {
	auth.Service
	loginFn func(ctx context.Context, email, password string) (string, string, auth.AuthResponse, error)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, string, auth.AuthResponse, error) {
	return f.loginFn(ctx, email, password)
}

func loginRouter(svc auth.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := auth.NewHandler(svc)
	r.POST("/auth/login", h.Login)
	return r
}

func TestLoginHandlerSetsCookiesForWebClient(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(_ context.Context, email, _ string) (string, string, auth.AuthResponse, error) {
			return "access-abc", "refresh-xyz", auth.AuthResponse{Email: email}, nil
		},
	}
	r := loginRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"dewi@example.com","password":"hunter2hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Type", "web")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	names := map[string]bool{}
	for _, c := range cookies {
		names[c.Name] = true
		assert.True(t, c.HttpOnly, "cookie %s must be HttpOnly", c.Name)
	}
	assert.True(t, names["access_token"])
	assert.True(t, names["refresh_token"])
	assert.Contains(t, w.Body.String(), "access-abc")
}

func TestLoginHandlerNoCookiesForAPIClient(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(_ context.Context, email, _ string) (string, string, auth.AuthResponse, error) {
			return "access-abc", "refresh-xyz", auth.AuthResponse{Email: email}, nil
		},
	}
	r := loginRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"dewi@example.com","password":"hunter2hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Contains(t, w.Body.String(), "refresh-xyz")
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(context.Context, string, string) (string, string, auth.AuthResponse, error) {
			return "", "", auth.AuthResponse{}, autherrors.ErrInvalidCredentials
		},
	}
	r := loginRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"dewi@example.com","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginHandlerRejectsMalformedBody(t *testing.T) {
	r := loginRouter(&fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
