// Package worker consumes queued jobs, currently confirmation email resends.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/summercamp/backend/internal/ateliers"
	"github.com/summercamp/backend/internal/inscriptions"
	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/queue"
)

// InscriptionStore fetches inscriptions for resend jobs.
type InscriptionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Inscription, error)
}

// Sender delivers the confirmation email.
type Sender interface {
	SendConfirmation(ctx context.Context, to, confirmationLink, ateliers string) error
}

// EmailJournal records delivery attempts.
type EmailJournal interface {
	Create(ctx context.Context, log *models.EmailLog) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// JobQueue dequeues and retries jobs.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EmailProcessor replays confirmation emails for inscriptions whose first
// delivery failed. The link is rebuilt from the token already stored on the
// row; no new token is issued.
type EmailProcessor struct {
	queue   JobQueue
	store   InscriptionStore
	sender  Sender
	journal EmailJournal
	baseURL string
	logger  *zap.Logger
}

// NewEmailProcessor creates an email resend processor.
func NewEmailProcessor(q JobQueue, store InscriptionStore, sender Sender, journal EmailJournal, baseURL string, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		queue:   q,
		store:   store,
		sender:  sender,
		journal: journal,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Process handles one resend job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmailResend {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	var payload queue.EmailResendPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	ins, err := p.store.GetByID(ctx, payload.InscriptionID)
	if err != nil {
		return fmt.Errorf("load inscription %s: %w", payload.InscriptionID, err)
	}
	if ins.Valide {
		p.logger.Info("inscription already confirmed, skipping resend",
			zap.String("inscription_id", ins.ID.String()))
		return nil
	}

	link := p.baseURL + inscriptions.ConfirmationPath + "?token=" + ins.Token
	summary := strings.Join(ateliers.TitlesFor(ins.Ateliers), ", ")

	logEntry := &models.EmailLog{
		InscriptionID:  ins.ID,
		EmailType:      models.EmailTypeConfirmation,
		RecipientEmail: ins.Email,
		Subject:        "Confirmez votre inscription",
		Status:         models.EmailLogStatusPending,
	}
	if p.journal != nil {
		if err := p.journal.Create(ctx, logEntry); err != nil {
			p.logger.Warn("record email log failed", zap.Error(err))
		}
	}

	sendErr := p.sender.SendConfirmation(ctx, ins.Email, link, summary)
	if p.journal != nil && logEntry.ID != uuid.Nil {
		if sendErr != nil {
			if err := p.journal.MarkFailed(ctx, logEntry.ID, sendErr.Error()); err != nil {
				p.logger.Warn("mark email log failed", zap.Error(err))
			}
		} else if err := p.journal.MarkSent(ctx, logEntry.ID); err != nil {
			p.logger.Warn("mark email log sent failed", zap.Error(err))
		}
	}
	if sendErr != nil {
		return fmt.Errorf("send confirmation: %w", sendErr)
	}

	p.logger.Info("confirmation email resent", zap.String("inscription_id", ins.ID.String()))
	return nil
}

// Run consumes jobs until ctx is cancelled. Failed jobs are retried with
// backoff and land in the DLQ once retries are exhausted.
func (p *EmailProcessor) Run(ctx context.Context) {
	p.logger.Info("email resend worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email resend worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.Error(err),
				zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
			time.Sleep(queue.RetryBackoff)
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}
