package inscriptions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/response"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *mockStore) CreateWithAteliers(ctx context.Context, ins *models.Inscription, atelierIDs []string) error {
	return m.Called(ctx, ins, atelierIDs).Error(0)
}
func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Inscription, error) {
	args := m.Called(ctx, id)
	if ins, _ := args.Get(0).(*models.Inscription); ins != nil {
		return ins, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) List(ctx context.Context) ([]models.Inscription, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Inscription)
	return list, args.Error(1)
}
func (m *mockStore) CountUnverified(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) UploadProof(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	args := m.Called(ctx, filename, contentType, body, size)
	return args.String(0), args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) SendConfirmation(ctx context.Context, to, confirmationLink, ateliers string) error {
	return m.Called(ctx, to, confirmationLink, ateliers).Error(0)
}

type mockCleaner struct{ mock.Mock }

func (m *mockCleaner) Cleanup(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockJournal struct{ mock.Mock }

func (m *mockJournal) Create(ctx context.Context, log *models.EmailLog) error {
	return m.Called(ctx, log).Error(0)
}
func (m *mockJournal) MarkSent(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockJournal) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

// --- helpers ---

type deps struct {
	store   *mockStore
	storage *mockStorage
	sender  *mockSender
	cleaner *mockCleaner
	journal *mockJournal
}

func newTestRouter(t *testing.T) (*gin.Engine, *deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := &deps{
		store:   &mockStore{},
		storage: &mockStorage{},
		sender:  &mockSender{},
		cleaner: &mockCleaner{},
		journal: &mockJournal{},
	}
	h := NewHandler(Deps{
		Store:   d.store,
		Storage: d.storage,
		Sender:  d.sender,
		Cleaner: d.cleaner,
		Journal: d.journal,
		BaseURL: "https://camp.example.com",
	})
	r := gin.New()
	r.POST("/inscriptions", h.Register)
	return r, d
}

type formOptions struct {
	omit     []string
	override map[string]string
	ateliers []string
	noFile   bool
	filename string
	fileType string
}

func buildForm(t *testing.T, opts formOptions) (*bytes.Buffer, string) {
	t.Helper()
	fields := map[string]string{
		"nom":            "Dupont",
		"prenom":         "Jean",
		"date_naissance": "2010-05-01",
		"email":          "jean@example.com",
		"telephone":      "0600000000",
	}
	for k, v := range opts.override {
		fields[k] = v
	}
	for _, k := range opts.omit {
		delete(fields, k)
	}
	ateliersSel := opts.ateliers
	if ateliersSel == nil {
		ateliersSel = []string{"web", "ai"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, a := range ateliersSel {
		require.NoError(t, w.WriteField("ateliers", a))
	}
	if !opts.noFile {
		filename := opts.filename
		if filename == "" {
			filename = "preuve.pdf"
		}
		fileType := opts.fileType
		if fileType == "" {
			fileType = "application/pdf"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="preuve"; filename="`+filename+`"`)
		header.Set("Content-Type", fileType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fake proof"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postForm(t *testing.T, r *gin.Engine, opts formOptions) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := buildForm(t, opts)
	req := httptest.NewRequest(http.MethodPost, "/inscriptions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response.Body {
	t.Helper()
	var body response.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- validation short-circuits: no store call of any kind ---

func TestRegisterMissingRequiredFields(t *testing.T) {
	for _, field := range []string{"nom", "prenom", "date_naissance", "email", "telephone"} {
		t.Run(field, func(t *testing.T) {
			r, d := newTestRouter(t)
			rec := postForm(t, r, formOptions{omit: []string{field}})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			d.store.AssertNotCalled(t, "Ping", mock.Anything)
			d.store.AssertNotCalled(t, "CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything)
			d.storage.AssertNotCalled(t, "UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			d.sender.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRegisterBlankFieldAfterTrim(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{override: map[string]string{"nom": "   "}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterInvalidEmail(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{override: map[string]string{"email": "not-an-email"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec).Error, "email")
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterInvalidBirthDate(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{override: map[string]string{"date_naissance": "01/05/2010"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterNoAtelierSelected(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{ateliers: []string{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec).Error, "atelier")
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterUnknownAtelier(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{ateliers: []string{"web", "cooking"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec).Error, "cooking")
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterDuplicateAtelier(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{ateliers: []string{"web", "web"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterMissingProofFile(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{noFile: true})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec).Error, "preuve")
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestRegisterUnsupportedProofType(t *testing.T) {
	r, d := newTestRouter(t)
	rec := postForm(t, r, formOptions{filename: "proof.gif", fileType: "image/gif"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	d.store.AssertNotCalled(t, "Ping", mock.Anything)
	d.storage.AssertNotCalled(t, "UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- store/storage failures ---

func TestRegisterStoreUnreachable(t *testing.T) {
	r, d := newTestRouter(t)
	d.store.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	rec := postForm(t, r, formOptions{})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	d.store.AssertNotCalled(t, "CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything)
	d.storage.AssertNotCalled(t, "UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterUploadFailureAbortsBeforePersist(t *testing.T) {
	r, d := newTestRouter(t)
	d.store.On("Ping", mock.Anything).Return(nil)
	d.cleaner.On("Cleanup", mock.Anything).Return(0, nil)
	d.storage.On("UploadProof", mock.Anything, "preuve.pdf", "application/pdf", mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable"))

	rec := postForm(t, r, formOptions{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	d.store.AssertNotCalled(t, "CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything)
	d.sender.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPersistFailureSendsNoEmail(t *testing.T) {
	r, d := newTestRouter(t)
	d.store.On("Ping", mock.Anything).Return(nil)
	d.cleaner.On("Cleanup", mock.Anything).Return(0, nil)
	d.storage.On("UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("https://bucket/preuves/x.pdf", nil)
	d.store.On("CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	rec := postForm(t, r, formOptions{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	d.sender.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- happy path ---

func TestRegisterHappyPath(t *testing.T) {
	r, d := newTestRouter(t)
	d.store.On("Ping", mock.Anything).Return(nil)
	d.cleaner.On("Cleanup", mock.Anything).Return(2, nil)
	d.storage.On("UploadProof", mock.Anything, "preuve.pdf", "application/pdf", mock.Anything, mock.Anything).
		Return("https://bucket/preuves/abc.pdf", nil)

	var persisted *models.Inscription
	var persistedAteliers []string
	insID := uuid.New()
	d.store.On("CreateWithAteliers", mock.Anything, mock.AnythingOfType("*models.Inscription"), mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*models.Inscription)
			persisted.ID = insID
			persistedAteliers = args.Get(2).([]string)
		}).Return(nil)

	logID := uuid.New()
	d.journal.On("Create", mock.Anything, mock.AnythingOfType("*models.EmailLog")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.EmailLog).ID = logID
		}).Return(nil)
	d.journal.On("MarkSent", mock.Anything, logID).Return(nil)

	var sentTo, sentLink, sentAteliers string
	d.sender.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentTo = args.String(1)
			sentLink = args.String(2)
			sentAteliers = args.String(3)
		}).Return(nil)

	rec := postForm(t, r, formOptions{override: map[string]string{"email": "Jean@Example.COM"}})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, persisted)

	// one atomic insert carrying all selected workshop ids
	assert.Equal(t, []string{"web", "ai"}, persistedAteliers)
	d.store.AssertNumberOfCalls(t, "CreateWithAteliers", 1)

	// normalization
	assert.Equal(t, "jean@example.com", persisted.Email)
	assert.Equal(t, "Dupont", persisted.Nom)
	assert.Equal(t, "https://bucket/preuves/abc.pdf", persisted.PreuveURL)
	require.NotEmpty(t, persisted.Token)
	assert.Len(t, persisted.Token, 43)

	// the link embeds the exact token stored on the row
	assert.Equal(t, "jean@example.com", sentTo)
	assert.Equal(t, "https://camp.example.com/confirmer-inscription?token="+persisted.Token, sentLink)
	assert.Equal(t, "Développement Web, Intelligence Artificielle", sentAteliers)

	body := decodeBody(t, rec)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, true, data["email_sent"])
	d.journal.AssertCalled(t, "MarkSent", mock.Anything, logID)
}

func TestRegisterEmailFailureDoesNotRollBack(t *testing.T) {
	r, d := newTestRouter(t)
	d.store.On("Ping", mock.Anything).Return(nil)
	d.cleaner.On("Cleanup", mock.Anything).Return(0, nil)
	d.storage.On("UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("https://bucket/preuves/abc.pdf", nil)
	d.store.On("CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	logID := uuid.New()
	d.journal.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.EmailLog).ID = logID
		}).Return(nil)
	d.journal.On("MarkFailed", mock.Anything, logID, mock.Anything).Return(nil)
	d.sender.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("provider down"))

	rec := postForm(t, r, formOptions{})

	// the registration is persisted; only the notification failed
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeBody(t, rec).Data.(map[string]interface{})
	assert.Equal(t, false, data["email_sent"])
	d.journal.AssertCalled(t, "MarkFailed", mock.Anything, logID, mock.Anything)
}

func TestRegisterCleanupFailureIsIgnored(t *testing.T) {
	r, d := newTestRouter(t)
	d.store.On("Ping", mock.Anything).Return(nil)
	d.cleaner.On("Cleanup", mock.Anything).Return(0, errors.New("cleanup rpc failed"))
	d.storage.On("UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("https://bucket/preuves/abc.pdf", nil)
	d.store.On("CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	d.journal.On("Create", mock.Anything, mock.Anything).Return(nil)
	d.sender.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := postForm(t, r, formOptions{})

	assert.Equal(t, http.StatusCreated, rec.Code)
	d.store.AssertCalled(t, "CreateWithAteliers", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateTokenIsUniqueAndURLSafe(t *testing.T) {
	a, err := generateToken()
	require.NoError(t, err)
	b, err := generateToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
	assert.False(t, strings.ContainsAny(a, " \t\n"))
}
