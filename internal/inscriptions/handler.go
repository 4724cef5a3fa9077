package inscriptions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summercamp/backend/internal/ateliers"
	"github.com/summercamp/backend/internal/email"
	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/response"
	"github.com/summercamp/backend/pkg/storage"
)

// ConfirmationPath is the route confirmation links point at.
const ConfirmationPath = "/confirmer-inscription"

// Store persists inscriptions.
type Store interface {
	Ping(ctx context.Context) error
	CreateWithAteliers(ctx context.Context, ins *models.Inscription, atelierIDs []string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Inscription, error)
	List(ctx context.Context) ([]models.Inscription, error)
	CountUnverified(ctx context.Context) (int, error)
}

// ProofStorage uploads proof-of-payment files and returns their public URL.
type ProofStorage interface {
	UploadProof(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

// Sender delivers the confirmation email.
type Sender interface {
	SendConfirmation(ctx context.Context, to, confirmationLink, ateliers string) error
}

// Cleaner is the manual cleanup trigger, piggy-backed before each submission.
type Cleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// EmailJournal records confirmation email deliveries.
type EmailJournal interface {
	Create(ctx context.Context, log *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// Deps wires the registration workflow's collaborators.
type Deps struct {
	Store   Store
	Storage ProofStorage
	Sender  Sender
	Cleaner Cleaner
	Journal EmailJournal
	BaseURL string
	Logger  *zap.Logger
}

// Handler handles inscription HTTP endpoints.
type Handler struct {
	store   Store
	storage ProofStorage
	sender  Sender
	cleaner Cleaner
	journal EmailJournal
	baseURL string
	logger  *zap.Logger
}

// NewHandler creates an inscriptions handler.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   deps.Store,
		storage: deps.Storage,
		sender:  deps.Sender,
		cleaner: deps.Cleaner,
		journal: deps.Journal,
		baseURL: strings.TrimRight(deps.BaseURL, "/"),
		logger:  logger,
	}
}

// Register handles POST /inscriptions (multipart/form-data). The workflow is
// strictly ordered: validate, probe, upload, persist, email, and a later step
// never starts when an earlier required one failed.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	nom := strings.TrimSpace(c.PostForm("nom"))
	prenom := strings.TrimSpace(c.PostForm("prenom"))
	dateNaissance := strings.TrimSpace(c.PostForm("date_naissance"))
	emailAddr := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
	telephone := strings.TrimSpace(c.PostForm("telephone"))
	atelierIDs := c.PostFormArray("ateliers")

	// Field-level validation happens before any call to the store.
	switch {
	case nom == "":
		response.BadRequest(c, "nom is required")
		return
	case prenom == "":
		response.BadRequest(c, "prenom is required")
		return
	case dateNaissance == "":
		response.BadRequest(c, "date_naissance is required")
		return
	case emailAddr == "":
		response.BadRequest(c, "email is required")
		return
	case telephone == "":
		response.BadRequest(c, "telephone is required")
		return
	}
	if !email.IsValidAddress(emailAddr) {
		response.BadRequest(c, "invalid email address")
		return
	}
	birthDate, err := time.Parse("2006-01-02", dateNaissance)
	if err != nil {
		response.BadRequest(c, "date_naissance must be an ISO date (YYYY-MM-DD)")
		return
	}
	if len(atelierIDs) == 0 {
		response.BadRequest(c, "at least one atelier must be selected")
		return
	}
	seen := make(map[string]bool, len(atelierIDs))
	for _, id := range atelierIDs {
		if _, ok := ateliers.ByID(id); !ok {
			response.BadRequest(c, "unknown atelier: "+id)
			return
		}
		if seen[id] {
			response.BadRequest(c, "duplicate atelier: "+id)
			return
		}
		seen[id] = true
	}

	proof, err := c.FormFile("preuve")
	if err != nil {
		response.BadRequest(c, "preuve de paiement file is required")
		return
	}
	if proof.Size > storage.MaxPreuveSize {
		response.BadRequest(c, "preuve file exceeds the 10MB limit")
		return
	}
	proofType := proof.Header.Get("Content-Type")
	if !storage.ValidateProofType(proofType, proof.Filename) {
		response.BadRequest(c, "unsupported preuve file type (PDF, JPG or PNG required)")
		return
	}

	// The table must be reachable before the submission is attempted at all.
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("inscriptions table unreachable", zap.Error(err))
		response.ServiceUnavailable(c, "registration service is temporarily unavailable")
		return
	}

	// Opportunistic cleanup of stale unverified rows; never blocks the
	// submission it rides on.
	if h.cleaner != nil {
		if n, err := h.cleaner.Cleanup(ctx); err != nil {
			h.logger.Warn("pre-submission cleanup failed", zap.Error(err))
		} else if n > 0 {
			h.logger.Info("pre-submission cleanup deleted stale registrations", zap.Int("count", n))
		}
	}

	file, err := proof.Open()
	if err != nil {
		response.Internal(c, "failed to read preuve file")
		return
	}
	defer file.Close()

	preuveURL, err := h.storage.UploadProof(ctx, proof.Filename, proofType, file, proof.Size)
	if err != nil {
		h.logger.Error("proof upload failed", zap.Error(err))
		response.Internal(c, "failed to store preuve de paiement")
		return
	}

	token, err := generateToken()
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to generate confirmation token")
		return
	}

	ins := &models.Inscription{
		Nom:           nom,
		Prenom:        prenom,
		DateNaissance: birthDate,
		Email:         emailAddr,
		Telephone:     telephone,
		PreuveURL:     preuveURL,
		Token:         token,
	}
	if err := h.store.CreateWithAteliers(ctx, ins, atelierIDs); err != nil {
		h.logger.Error("create inscription failed", zap.Error(err), zap.String("email", emailAddr))
		response.Internal(c, "failed to save registration")
		return
	}

	link := h.baseURL + ConfirmationPath + "?token=" + token
	summary := strings.Join(ateliers.TitlesFor(atelierIDs), ", ")

	logEntry := &models.EmailLog{
		InscriptionID:  ins.ID,
		EmailType:      models.EmailTypeConfirmation,
		RecipientEmail: ins.Email,
		Subject:        "Confirmez votre inscription",
		Status:         models.EmailLogStatusPending,
	}
	if h.journal != nil {
		if err := h.journal.Create(ctx, logEntry); err != nil {
			h.logger.Warn("record email log failed", zap.Error(err))
		}
	}

	// A send failure is reported but never rolls back the persisted
	// registration; it stays unverified until re-sent or cleaned up.
	sendErr := h.sender.SendConfirmation(ctx, ins.Email, link, summary)
	if h.journal != nil && logEntry.ID != uuid.Nil {
		if sendErr != nil {
			if err := h.journal.MarkFailed(ctx, logEntry.ID, sendErr.Error()); err != nil {
				h.logger.Warn("mark email log failed", zap.Error(err))
			}
		} else {
			if err := h.journal.MarkSent(ctx, logEntry.ID); err != nil {
				h.logger.Warn("mark email log sent failed", zap.Error(err))
			}
		}
	}

	if sendErr != nil {
		h.logger.Error("confirmation email failed", zap.Error(sendErr), zap.String("inscription_id", ins.ID.String()))
		response.Created(c, gin.H{
			"inscription": ins,
			"email_sent":  false,
			"message":     "registration saved but the confirmation email could not be sent",
		})
		return
	}

	response.Created(c, gin.H{
		"inscription": ins,
		"email_sent":  true,
		"message":     "confirmation email sent",
	})
}

// List handles GET /inscriptions (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list inscriptions failed", zap.Error(err))
		response.Internal(c, "failed to list inscriptions")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /inscriptions/:id (admin only).
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid inscription id")
		return
	}
	ins, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "inscription not found")
		return
	}
	response.OK(c, ins)
}

// UnverifiedCount handles GET /inscriptions/unverified-count (admin only).
func (h *Handler) UnverifiedCount(c *gin.Context) {
	count, err := h.store.CountUnverified(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to count unverified inscriptions")
		return
	}
	response.OK(c, gin.H{"unverified_count": count})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:43], nil
}
