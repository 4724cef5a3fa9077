package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDoer struct {
	req    *http.Request
	body   []byte
	status int
	text   string
	err    error
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.req = req
	if req.Body != nil {
		d.body, _ = io.ReadAll(req.Body)
	}
	if d.err != nil {
		return nil, d.err
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(d.text)),
	}, nil
}

func testConfig() Config {
	return Config{
		BaseURL:    "https://api.emailjs.com",
		ServiceID:  "service_x",
		TemplateID: "template_y",
		PublicKey:  "key_z",
		FromName:   "Summer Camp Registration",
		FromEmail:  "noreply@summercamp.com",
	}
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("jean@example.com"))
	assert.True(t, IsValidAddress("a.b+c@sub.domain.org"))
	assert.False(t, IsValidAddress("not-an-email"))
	assert.False(t, IsValidAddress("a b@example.com"))
	assert.False(t, IsValidAddress("jean@example"))
	assert.False(t, IsValidAddress(""))
}

func TestSendConfirmationRejectsInvalidRecipient(t *testing.T) {
	doer := &recordingDoer{}
	s := NewSender(testConfig(), doer, nil)

	err := s.SendConfirmation(context.Background(), "not-an-email", "https://camp/confirmer-inscription?token=t", "Développement Web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email address")
	assert.Nil(t, doer.req, "provider must not be called")
}

func TestSendConfirmationRejectsEmptyLink(t *testing.T) {
	doer := &recordingDoer{}
	s := NewSender(testConfig(), doer, nil)

	err := s.SendConfirmation(context.Background(), "jean@example.com", "  ", "Développement Web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation link")
	assert.Nil(t, doer.req)
}

func TestSendConfirmationRejectsEmptyAteliers(t *testing.T) {
	doer := &recordingDoer{}
	s := NewSender(testConfig(), doer, nil)

	err := s.SendConfirmation(context.Background(), "jean@example.com", "https://camp/c?token=t", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ateliers")
	assert.Nil(t, doer.req)
}

func TestSendConfirmationRejectsMissingConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PublicKey = ""
	doer := &recordingDoer{}
	s := NewSender(cfg, doer, nil)

	err := s.SendConfirmation(context.Background(), "jean@example.com", "https://camp/c?token=t", "Développement Web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
	assert.Nil(t, doer.req)
}

func TestSendConfirmationSuccess(t *testing.T) {
	doer := &recordingDoer{}
	s := NewSender(testConfig(), doer, nil)

	link := "https://camp.example.com/confirmer-inscription?token=T123"
	err := s.SendConfirmation(context.Background(), "jean@example.com", link, "Développement Web, Intelligence Artificielle")
	require.NoError(t, err)

	require.NotNil(t, doer.req)
	assert.Equal(t, http.MethodPost, doer.req.Method)
	assert.Equal(t, "https://api.emailjs.com/api/v1.0/email/send", doer.req.URL.String())
	assert.Equal(t, "application/json", doer.req.Header.Get("Content-Type"))

	var body sendRequest
	require.NoError(t, json.Unmarshal(doer.body, &body))
	assert.Equal(t, "service_x", body.ServiceID)
	assert.Equal(t, "template_y", body.TemplateID)
	assert.Equal(t, "key_z", body.UserID)
	assert.Equal(t, "jean@example.com", body.TemplateParams["to_email"])
	assert.Equal(t, "jean", body.TemplateParams["to_name"])
	assert.Equal(t, link, body.TemplateParams["confirmation_link"])
	assert.Equal(t, "Développement Web, Intelligence Artificielle", body.TemplateParams["ateliers"])
}

func TestSendConfirmationWrapsProviderError(t *testing.T) {
	doer := &recordingDoer{status: http.StatusBadRequest, text: "The template ID is invalid"}
	s := NewSender(testConfig(), doer, nil)

	err := s.SendConfirmation(context.Background(), "jean@example.com", "https://camp/c?token=t", "Photographie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "The template ID is invalid")
}
