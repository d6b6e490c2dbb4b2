package auth

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	autherrors "hrflow/internal/auth/errors"
	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

// Browser clients get HttpOnly cookies, everything else reads the body.
func isWebClient(c *gin.Context) bool {
	return c.GetHeader("X-Client-Type") == "web"
}

func secureCookies() bool {
	return os.Getenv("APP_ENV") == "production"
}

func (ctrl *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	token, refreshToken, userResp, err := ctrl.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	if isWebClient(c) {
		setAuthCookies(c, token, refreshToken)
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":          userResp,
		"access_token":  token,
		"refresh_token": refreshToken,
	})
}

func (ctrl *Handler) RefreshToken(c *gin.Context) {
	var refreshToken string
	if isWebClient(c) {
		var err error
		refreshToken, err = c.Cookie("refresh_token")
		if err != nil {
			response.Error(c, autherrors.ErrTokenMissing)
			return
		}
	} else {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, autherrors.ErrTokenMissing)
			return
		}
		refreshToken = req.RefreshToken
	}

	newAccess, newRefresh, userResp, err := ctrl.service.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	if isWebClient(c) {
		setAuthCookies(c, newAccess, newRefresh)
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":          userResp,
		"access_token":  newAccess,
		"refresh_token": newRefresh,
	})
}

func (ctrl *Handler) Me(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	if userID == "" {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	userResp, err := ctrl.service.GetMe(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, userResp)
}

func (ctrl *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	if userID == "" {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.MapValidationError(err))
		return
	}

	if err := ctrl.service.ChangePassword(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
}

func (ctrl *Handler) Logout(c *gin.Context) {
	clearCookie(c, "access_token")
	clearCookie(c, "refresh_token")
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

func setAuthCookies(c *gin.Context, access, refresh string) {
	isProd := secureCookies()

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "access_token",
		Value:    access,
		Path:     "/",
		MaxAge:   accessTokenTTL,
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "refresh_token",
		Value:    refresh,
		Path:     "/",
		MaxAge:   refreshTokenTTL,
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}
