// Package auth authenticates back-office admins with bcrypt passwords and
// issues JWTs for the protected endpoints.
package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/response"
	"github.com/summercamp/backend/pkg/utils"
)

// Store looks up and creates admin accounts.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	Create(ctx context.Context, email, passwordHash, fullName string) (*models.Admin, error)
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string             `json:"token"`
	Admin models.AdminPublic `json:"admin"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	store  Store
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(store Store, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	admin, err := h.store.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, admin.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(admin.ID, admin.Email, admin.Role)
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, Admin: admin.ToPublic()})
}

// EnsureAdmin creates the bootstrap admin account at startup when it does not
// exist yet. Credentials come from configuration; a blank email disables the
// bootstrap entirely.
func EnsureAdmin(ctx context.Context, store Store, email, password, fullName string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if email == "" || password == "" {
		logger.Info("admin bootstrap disabled, no credentials configured")
		return nil
	}
	if _, err := store.GetByEmail(ctx, email); err == nil {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := store.Create(ctx, email, hash, fullName); err != nil {
		return err
	}
	logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
