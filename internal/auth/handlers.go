package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"MenuAPI/internal/common"
	"MenuAPI/internal/logging"
	"MenuAPI/internal/metrics"

	"github.com/gin-gonic/gin"
)

const (
	OAuthStateCookieName = "menuapi_oauth_state"
)

// Handler handles authentication endpoints
type Handler struct {
	repo            *Repository
	oauthConfig     *OAuthConfig
	stateStore      *OAuthStateStore
	sessionStore    *SessionStore
	tokenStore      *TokenStore
	successRedirect string
}

// NewHandler creates a new auth handler. When successRedirect is set, OAuth
// callbacks redirect there instead of answering with JSON.
func NewHandler(
	repo *Repository,
	oauthConfig *OAuthConfig,
	stateStore *OAuthStateStore,
	sessionStore *SessionStore,
	tokenStore *TokenStore,
	successRedirect string,
) *Handler {
	return &Handler{
		repo:            repo,
		oauthConfig:     oauthConfig,
		stateStore:      stateStore,
		sessionStore:    sessionStore,
		tokenStore:      tokenStore,
		successRedirect: successRedirect,
	}
}

func userPayload(u *User) gin.H {
	return gin.H{
		"id":          u.ID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        u.Role,
	}
}

func (h *Handler) serverError(c *gin.Context, err error, message string) {
	logging.WithError(err).ErrorContext(c.Request.Context(), "Auth request failed", "message", message)
	common.Fail(c, http.StatusInternalServerError, message)
}

// startSession creates a session for an active user and sets its cookie.
func (h *Handler) startSession(c *gin.Context, user *User, method string) bool {
	if user.Status != StatusActive {
		metrics.LoginsTotal.WithLabelValues(method, "suspended").Inc()
		common.Fail(c, http.StatusForbidden, "account is "+string(user.Status))
		return false
	}

	session, err := h.sessionStore.CreateSession(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err, "failed to create session")
		return false
	}
	h.sessionStore.SetSessionCookie(c, session.ID)
	metrics.LoginsTotal.WithLabelValues(method, "success").Inc()
	logging.WithUser(user.ID).InfoContext(c.Request.Context(), "User signed in", "method", method)
	return true
}

// Providers lists the OAuth providers that can be used to sign in
// GET /auth/providers
func (h *Handler) Providers(c *gin.Context) {
	providers := h.oauthConfig.Providers()
	if providers == nil {
		providers = []Provider{}
	}
	common.Success(c, http.StatusOK, gin.H{"providers": providers})
}

// Login initiates OAuth flow
// GET /auth/login/:provider
func (h *Handler) Login(c *gin.Context) {
	provider := Provider(c.Param("provider"))

	if provider != ProviderGoogle && provider != ProviderGitHub {
		common.Fail(c, http.StatusBadRequest, "unsupported provider")
		return
	}
	if !h.oauthConfig.IsProviderConfigured(provider) {
		common.Fail(c, http.StatusBadRequest, "provider not configured")
		return
	}

	// Generate state for CSRF protection
	state, err := h.stateStore.CreateState(c.Request.Context())
	if err != nil {
		h.serverError(c, err, "failed to create auth state")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		OAuthStateCookieName,
		state,
		int(OAuthStateExpiry.Seconds()),
		"/",
		"",
		h.sessionStore.secureCookie,
		true,
	)

	authURL, err := h.oauthConfig.GetAuthURL(provider, state)
	if err != nil {
		h.serverError(c, err, "failed to create auth URL")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback handles OAuth callback
// GET /auth/callback/:provider
func (h *Handler) Callback(c *gin.Context) {
	provider := Provider(c.Param("provider"))
	ctx := c.Request.Context()

	if provider != ProviderGoogle && provider != ProviderGitHub {
		common.Fail(c, http.StatusBadRequest, "unsupported provider")
		return
	}

	queryState := c.Query("state")
	cookieState, err := c.Cookie(OAuthStateCookieName)
	if err != nil || cookieState == "" {
		common.Fail(c, http.StatusBadRequest, "missing OAuth state cookie")
		return
	}
	if queryState != cookieState {
		common.Fail(c, http.StatusBadRequest, "OAuth state mismatch")
		return
	}

	valid, err := h.stateStore.ValidateState(ctx, queryState)
	if err != nil || !valid {
		common.Fail(c, http.StatusBadRequest, "invalid or expired OAuth state")
		return
	}
	c.SetCookie(OAuthStateCookieName, "", -1, "/", "", h.sessionStore.secureCookie, true)

	if errMsg := c.Query("error"); errMsg != "" {
		metrics.LoginsTotal.WithLabelValues(string(provider), "denied").Inc()
		common.Fail(c, http.StatusBadRequest, "OAuth error: "+errMsg)
		return
	}

	code := c.Query("code")
	if code == "" {
		common.Fail(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.oauthConfig.ExchangeCode(ctx, provider, code)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(provider), "error").Inc()
		h.serverError(c, err, "failed to exchange code")
		return
	}

	userInfo, err := h.oauthConfig.GetUserInfo(ctx, provider, token)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(provider), "error").Inc()
		h.serverError(c, err, "failed to get user info")
		return
	}

	user, err := h.findOrCreateUser(ctx, userInfo, provider, token.AccessToken, token.RefreshToken)
	if err != nil {
		h.serverError(c, err, "failed to create user")
		return
	}

	if !h.startSession(c, user, string(provider)) {
		return
	}

	if h.successRedirect != "" {
		c.Redirect(http.StatusTemporaryRedirect, h.successRedirect)
		return
	}
	common.Success(c, http.StatusOK, gin.H{
		"message": "authenticated successfully",
		"user":    userPayload(user),
	})
}

// findOrCreateUser resolves a provider account: by linked identity first, then
// by email (linking the identity), otherwise a new user is created.
func (h *Handler) findOrCreateUser(ctx context.Context, info *OAuthUserInfo, provider Provider, accessToken, refreshToken string) (*User, error) {
	identity, err := h.repo.GetOAuthIdentity(ctx, provider, info.ProviderID)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		if err := h.repo.UpdateOAuthIdentityTokens(ctx, identity.ID, accessToken, refreshToken); err != nil {
			return nil, err
		}
		return h.repo.GetUserByID(ctx, identity.UserID)
	}

	user, err := h.repo.GetUserByEmail(ctx, info.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = h.repo.CreateUser(ctx, info.Email, info.DisplayName, nil)
		if err != nil {
			return nil, err
		}
	}

	if err := h.repo.CreateOAuthIdentity(ctx, user.ID, provider, info.ProviderID, accessToken, refreshToken); err != nil {
		return nil, err
	}
	return user, nil
}

// Signup creates an email/password account and signs it in
// POST /auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if problems := ValidateSignup(req); len(problems) > 0 {
		common.Fail(c, http.StatusUnprocessableEntity, problems...)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.serverError(c, err, "failed to create account")
		return
	}

	user, err := h.repo.CreateUser(c.Request.Context(), req.Email, req.Name, &hash)
	if errors.Is(err, ErrEmailTaken) {
		common.Fail(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.serverError(c, err, "failed to create account")
		return
	}

	if !h.startSession(c, user, "password") {
		return
	}
	common.Success(c, http.StatusCreated, gin.H{"user": userPayload(user)})
}

// Signin checks an email/password pair and starts a session
// POST /auth/signin
func (h *Handler) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.repo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.serverError(c, err, "failed to sign in")
		return
	}
	if err := CheckPassword(user, req.Password); err != nil {
		metrics.LoginsTotal.WithLabelValues("password", "failure").Inc()
		common.Fail(c, http.StatusUnauthorized, err.Error())
		return
	}

	if !h.startSession(c, user, "password") {
		return
	}
	common.Success(c, http.StatusOK, gin.H{"user": userPayload(user)})
}

// Me returns the current authenticated user
// GET /auth/me
func (h *Handler) Me(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	common.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":          user.ID,
			"email":       user.Email,
			"displayName": user.DisplayName,
			"role":        user.Role,
			"status":      user.Status,
			"hasPassword": user.PasswordHash != nil,
			"maxTokens":   user.MaxTokens,
			"createdAt":   user.CreatedAt,
		},
	})
}

// Session reports whether the caller is signed in, without failing when not
// GET /auth/session
func (h *Handler) Session(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.Success(c, http.StatusOK, gin.H{"authenticated": false, "user": nil})
		return
	}
	common.Success(c, http.StatusOK, gin.H{"authenticated": true, "user": userPayload(user)})
}

// Logout logs out the current user
// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	sessionID, err := h.sessionStore.GetSessionFromCookie(c)
	if err == nil && sessionID != "" {
		if err := h.sessionStore.DeleteSession(c.Request.Context(), sessionID); err != nil {
			h.serverError(c, err, "failed to log out")
			return
		}
	}

	h.sessionStore.ClearSessionCookie(c)
	common.Success(c, http.StatusOK, gin.H{"message": "logged out successfully"})
}

// ListTokens returns all tokens for the current user
// GET /auth/tokens
func (h *Handler) ListTokens(c *gin.Context) {
	user := GetUserFromContext(c)

	tokens, err := h.tokenStore.ListUserTokens(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err, "failed to list tokens")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// CreateToken creates a new token for the current user
// POST /auth/tokens
func (h *Handler) CreateToken(c *gin.Context) {
	user := GetUserFromContext(c)

	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokenStore.CreateUserToken(c.Request.Context(), user, req.Label, req.ExpiresAt)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	common.Success(c, http.StatusCreated, gin.H{
		"token":   token.RawToken,
		"details": token.Token,
		"message": "Token created. Save this token now, it will not be shown again.",
	})
}

// RevokeToken revokes a token owned by the current user
// DELETE /auth/tokens/:id
func (h *Handler) RevokeToken(c *gin.Context) {
	user := GetUserFromContext(c)

	tokenID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokenStore.RevokeToken(c.Request.Context(), tokenID, user.ID); err != nil {
		common.Fail(c, http.StatusNotFound, err.Error())
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "token revoked"})
}
