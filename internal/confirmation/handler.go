// Package confirmation verifies registrations from emailed token links.
package confirmation

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/response"
)

// Store looks up and verifies inscriptions by confirmation token.
type Store interface {
	GetByToken(ctx context.Context, token string) (*models.Inscription, error)
	MarkVerified(ctx context.Context, token string) error
}

// RedirectSeconds is how long clients display the confirmation result before
// navigating back to the home page.
const RedirectSeconds = 3

// Handler handles confirmation link visits.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a confirmation handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Confirm handles GET /confirmer-inscription?token=... It is idempotent: the
// first visit flips valide, every later visit reports already-confirmed
// without touching the row.
func (h *Handler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.BadRequest(c, "token de confirmation manquant")
		return
	}

	ins, err := h.store.GetByToken(ctx, token)
	if err != nil {
		h.logger.Warn("confirmation token lookup failed", zap.Error(err))
		response.NotFound(c, "lien de confirmation invalide ou expiré")
		return
	}

	if ins.Valide {
		response.OK(c, gin.H{
			"already_confirmed": true,
			"message":           "votre inscription a déjà été confirmée",
			"redirect":          gin.H{"url": "/", "after_seconds": RedirectSeconds},
		})
		return
	}

	if err := h.store.MarkVerified(ctx, token); err != nil {
		h.logger.Error("mark inscription verified failed", zap.Error(err), zap.String("inscription_id", ins.ID.String()))
		response.Internal(c, "la confirmation a échoué, veuillez réessayer")
		return
	}

	h.logger.Info("inscription confirmed", zap.String("inscription_id", ins.ID.String()))
	response.OK(c, gin.H{
		"already_confirmed": false,
		"message":           "inscription confirmée avec succès",
		"redirect":          gin.H{"url": "/", "after_seconds": RedirectSeconds},
	})
}
