package models

import (
	"time"

	"github.com/google/uuid"
)

// Inscription is one submitted registration awaiting or having completed
// email verification. Token is the sole confirmation credential and is never
// exposed through the API; the confirmation email is its only channel.
type Inscription struct {
	ID            uuid.UUID `json:"id"`
	Nom           string    `json:"nom"`
	Prenom        string    `json:"prenom"`
	DateNaissance time.Time `json:"date_naissance"`
	Email         string    `json:"email"`
	Telephone     string    `json:"telephone"`
	PreuveURL     string    `json:"preuve_url"`
	Token         string    `json:"-"`
	Valide        bool      `json:"valide"`
	Ateliers      []string  `json:"ateliers,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InscriptionAtelier is one row of the inscription/atelier join table.
type InscriptionAtelier struct {
	InscriptionID uuid.UUID `json:"inscription_id"`
	AtelierID     string    `json:"atelier_id"`
}
