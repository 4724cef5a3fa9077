package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/queue"
	"github.com/summercamp/backend/pkg/response"
)

// Lister reads delivery records.
type Lister interface {
	List(ctx context.Context, status string) ([]models.EmailLog, error)
}

// Enqueuer pushes resend jobs onto the worker queue.
type Enqueuer interface {
	EnqueueEmailResend(ctx context.Context, payload queue.EmailResendPayload) error
}

// Handler handles admin email log endpoints.
type Handler struct {
	store    Lister
	enqueuer Enqueuer
	logger   *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(store Lister, enqueuer Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, enqueuer: enqueuer, logger: logger}
}

// List handles GET /emails?status=failed.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", models.EmailLogStatusPending, models.EmailLogStatusSent, models.EmailLogStatusFailed:
	default:
		response.BadRequest(c, "invalid status filter")
		return
	}
	logs, err := h.store.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err))
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, logs)
}

type resendRequest struct {
	InscriptionID string `json:"inscription_id" binding:"required"`
}

// Resend handles POST /emails/resend. It enqueues the job; the worker rebuilds
// the confirmation link from the stored token and delivers asynchronously.
func (h *Handler) Resend(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "inscription_id is required")
		return
	}
	id, err := uuid.Parse(req.InscriptionID)
	if err != nil {
		response.BadRequest(c, "invalid inscription_id")
		return
	}
	if err := h.enqueuer.EnqueueEmailResend(c.Request.Context(), queue.EmailResendPayload{InscriptionID: id}); err != nil {
		h.logger.Error("enqueue email resend failed", zap.Error(err), zap.String("inscription_id", id.String()))
		response.Internal(c, "failed to queue resend")
		return
	}
	response.OK(c, gin.H{"queued": true, "inscription_id": id})
}
