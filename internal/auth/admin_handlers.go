package auth

import (
	"net/http"
	"strconv"

	"MenuAPI/internal/common"
	"MenuAPI/internal/logging"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin-only endpoints
type AdminHandler struct {
	repo         *Repository
	tokenStore   *TokenStore
	sessionStore *SessionStore
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(repo *Repository, tokenStore *TokenStore, sessionStore *SessionStore) *AdminHandler {
	return &AdminHandler{repo: repo, tokenStore: tokenStore, sessionStore: sessionStore}
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) serverError(c *gin.Context, err error, message string) {
	logging.WithError(err).ErrorContext(c.Request.Context(), "Admin request failed", "message", message)
	common.Fail(c, http.StatusInternalServerError, message)
}

// ListUsers returns all users with pagination
// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.repo.GetAllUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.serverError(c, err, "failed to list users")
		return
	}

	common.Success(c, http.StatusOK, gin.H{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUser returns a user by ID
// GET /admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.repo.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.serverError(c, err, "failed to get user")
		return
	}
	if user == nil {
		common.Fail(c, http.StatusNotFound, "user not found")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateUser changes role, status or token allowance. Suspending a user ends
// all of their sessions.
// PATCH /admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		common.Fail(c, http.StatusBadRequest, "invalid role")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		common.Fail(c, http.StatusBadRequest, "invalid status")
		return
	}

	if current := GetUserFromContext(c); current != nil && current.ID == id {
		if (req.Role != nil && *req.Role != RoleAdmin) || (req.Status != nil && *req.Status != StatusActive) {
			common.Fail(c, http.StatusBadRequest, "admins cannot demote or suspend themselves")
			return
		}
	}

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		h.serverError(c, err, "failed to get user")
		return
	}
	if user == nil {
		common.Fail(c, http.StatusNotFound, "user not found")
		return
	}

	if err := h.repo.UpdateUser(ctx, id, req.Role, req.Status, req.MaxTokens); err != nil {
		h.serverError(c, err, "failed to update user")
		return
	}

	if req.Status != nil && *req.Status == StatusSuspended {
		if err := h.sessionStore.DeleteUserSessions(ctx, id); err != nil {
			h.serverError(c, err, "failed to end user sessions")
			return
		}
	}

	user, err = h.repo.GetUserByID(ctx, id)
	if err != nil {
		h.serverError(c, err, "failed to get user")
		return
	}
	logging.WithUser(id).InfoContext(ctx, "User updated", "role", user.Role, "status", user.Status)
	common.Success(c, http.StatusOK, gin.H{"user": user})
}

// ListUserTokens returns all tokens for a user
// GET /admin/users/:id/tokens
func (h *AdminHandler) ListUserTokens(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	tokens, err := h.tokenStore.ListUserTokens(c.Request.Context(), id)
	if err != nil {
		h.serverError(c, err, "failed to list tokens")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// RevokeToken revokes any token
// DELETE /admin/tokens/:id
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokenStore.AdminRevokeToken(c.Request.Context(), id); err != nil {
		common.Fail(c, http.StatusNotFound, err.Error())
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "token revoked"})
}
