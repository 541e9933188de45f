package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/service"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login signs a faculty member in.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, 12001, "email or password is incorrect")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Refresh rotates a refresh token into a fresh pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request parameters")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			response.Unauthorized(c, 12002, "refresh token is invalid or revoked")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout revokes the presented access token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		// JWTAuth already ran; an empty token here means nothing to revoke.
		response.OK(c, nil)
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// GetCurrentUser returns the caller's profile.
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 12003, "user does not exist")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, user)
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
