package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType values.
const (
	EmailTypeConfirmation = "confirmation"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records confirmation emails sent for an inscription.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	InscriptionID  uuid.UUID  `json:"inscription_id"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
