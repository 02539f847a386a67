package http

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adoptapaw/backend/internal/domain"
	"github.com/adoptapaw/backend/internal/service/session"
	"github.com/adoptapaw/backend/internal/transport/http/middleware"
	"github.com/adoptapaw/backend/pkg/auth"
	"github.com/adoptapaw/backend/pkg/useragent"
)

const authTimeout = 5 * time.Second

type UserRegistry interface {
	CreateUser(email, name, passwordHash, role string) (int64, error)
	GetUserByEmail(email string) (*domain.User, error)
}

type AuthHandler struct {
	Users       UserRegistry
	AuthService *session.AuthService
}

func NewAuthHandler(users UserRegistry, authService *session.AuthService) *AuthHandler {
	return &AuthHandler{
		Users:       users,
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role == "" {
		req.Role = domain.RoleAdopter
	}
	if req.Role != domain.RoleAdopter && req.Role != domain.RoleShelter {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	existing, err := h.Users.GetUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hashedPwd, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	userID, err := h.Users.CreateUser(req.Email, req.Name, hashedPwd, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": gin.H{
			"id":       userID,
			"email":    req.Email,
			"name":     req.Name,
			"role":     req.Role,
			"verified": false,
		},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
	defer cancel()

	deviceInfo := useragent.ExtractDeviceInfo(c.Request)
	ipAddress := useragent.ExtractIPAddress(c.Request)

	user, pair, err := h.AuthService.Login(ctx, strings.TrimSpace(strings.ToLower(req.Email)), req.Password, deviceInfo, ipAddress)
	if err != nil {
		// A store failure rejects the login the same way bad credentials
		// do: authentication fails closed, and the client learns nothing
		// about why.
		if err != domain.ErrInvalidCredentials && err != domain.ErrAccountInactive {
			log.Printf("[AUTH] Login failed: %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user.UserResponse(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
	defer cancel()

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if err != domain.ErrCredentialNotFound && err != domain.ErrAccountInactive {
			log.Printf("[AUTH] Refresh failed: %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken  string `json:"refreshToken"`
		LogoutFromAll bool   `json:"logoutFromAll"`
	}
	// Body is optional: a bare logout only blacklists the access token.
	_ = c.ShouldBindJSON(&req)

	claims := c.MustGet(middleware.ContextClaims).(*auth.Claims)
	accessToken := c.MustGet(middleware.ContextAccessToken).(string)

	ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
	defer cancel()

	if err := h.AuthService.Logout(ctx, claims, accessToken, req.RefreshToken, req.LogoutFromAll); err != nil {
		log.Printf("[AUTH] Logout failed for user %d: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	user, err := h.AuthService.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.UserResponse()})
}

func (h *AuthHandler) GetSessionHistory(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(int64)

	sessions, err := h.AuthService.GetUserSessionHistory(userID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session history"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}
