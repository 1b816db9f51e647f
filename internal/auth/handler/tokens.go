package handler

import (
	"errors"
	"net/http"

	"hearhere-auth/internal/auth/login"
	"hearhere-auth/internal/auth/principal"
	"hearhere-auth/internal/auth/token"
	"hearhere-auth/internal/logger"
	"hearhere-auth/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type userResponse struct {
	ID        string `json:"user_id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// refresh swaps a current refresh token for a new access/refresh pair.
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	pair, err := h.logins.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, "token refresh failed", err, nil)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		UserID:       pair.UserID.String(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	})
}

func (h *Handler) logout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.logins.Revoke(c.Request.Context(), userID); err != nil {
		respondError(c, "logout failed", err, map[string]any{"user_id": userID.String()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	u, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "user lookup failed", err, map[string]any{"user_id": userID.String()})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to a generic client message. Details
// only go to the log.
func respondError(c *gin.Context, msg string, err error, fields map[string]any) {
	status := http.StatusInternalServerError
	public := msg

	switch {
	case errors.Is(err, principal.ErrUnsupportedProvider):
		status, public = http.StatusBadRequest, "unsupported provider"
	case errors.Is(err, principal.ErrMissingAttribute):
		status, public = http.StatusBadGateway, "provider returned an incomplete profile"
	case errors.Is(err, login.ErrRefreshTokenRevoked),
		errors.Is(err, token.ErrExpiredToken),
		errors.Is(err, token.ErrMalformedToken),
		errors.Is(err, token.ErrInvalidSignature),
		errors.Is(err, token.ErrInvalidToken):
		status, public = http.StatusUnauthorized, "invalid token"
	}

	if fields == nil {
		fields = map[string]any{}
	}
	fields["error"] = err.Error()
	fields["status"] = status
	if status >= http.StatusInternalServerError {
		logger.Error(msg, fields)
	} else {
		logger.Warn(msg, fields)
	}

	c.JSON(status, gin.H{"error": public})
}
