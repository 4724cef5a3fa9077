// Package email sends confirmation emails through the EmailJS REST API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// emailRe is the syntactic check applied before any network call.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidAddress reports whether s looks like an email address.
func IsValidAddress(s string) bool {
	return emailRe.MatchString(s)
}

// Doer executes an HTTP request. http.DefaultClient satisfies it; tests
// substitute a recorder.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the EmailJS identifiers and sender identity.
type Config struct {
	BaseURL    string
	ServiceID  string
	TemplateID string
	PublicKey  string
	FromName   string
	FromEmail  string
}

// Sender formats template parameters and invokes the EmailJS send endpoint.
type Sender struct {
	cfg    Config
	client Doer
	logger *zap.Logger
}

// NewSender creates a Sender. A nil client falls back to http.DefaultClient.
func NewSender(cfg Config, client Doer, logger *zap.Logger) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{cfg: cfg, client: client, logger: logger}
}

// sendRequest is the EmailJS API body.
type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// SendConfirmation sends the registration confirmation email carrying the
// token link and a summary of the selected workshops. Every precondition is
// checked before the network call; a failing check raises without contacting
// the provider.
func (s *Sender) SendConfirmation(ctx context.Context, to, confirmationLink, ateliers string) error {
	if !IsValidAddress(to) {
		return fmt.Errorf("invalid email address: %s", to)
	}
	if strings.TrimSpace(confirmationLink) == "" {
		return errors.New("confirmation link is empty")
	}
	if strings.TrimSpace(ateliers) == "" {
		return errors.New("ateliers description is empty")
	}
	if s.cfg.ServiceID == "" || s.cfg.TemplateID == "" || s.cfg.PublicKey == "" {
		return errors.New("email provider is not configured (service id, template id and public key are required)")
	}

	params := map[string]string{
		"to_email":          to,
		"to_name":           localPart(to),
		"from_name":         s.cfg.FromName,
		"from_email":        s.cfg.FromEmail,
		"reply_to":          s.cfg.FromEmail,
		"subject":           "Confirmez votre inscription",
		"confirmation_link": confirmationLink,
		"ateliers":          ateliers,
		"message":           "Veuillez confirmer votre inscription en cliquant sur le lien ci-dessous :",
	}
	body, err := json.Marshal(sendRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/api/v1.0/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// EmailJS returns a plain-text reason on failure
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("send confirmation email: status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	s.logger.Info("confirmation email sent", zap.String("to", to))
	return nil
}

func localPart(addr string) string {
	if i := strings.Index(addr, "@"); i > 0 {
		return addr[:i]
	}
	return addr
}
