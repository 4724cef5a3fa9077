package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/summercamp/backend/internal/models"
	"github.com/summercamp/backend/pkg/response"
	"github.com/summercamp/backend/pkg/utils"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*models.Admin); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, email, passwordHash, fullName string) (*models.Admin, error) {
	args := m.Called(ctx, email, passwordHash, fullName)
	if a, _ := args.Get(0).(*models.Admin); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestRouter(t *testing.T) (*gin.Engine, *mockStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := &mockStore{}
	h := NewHandler(store, NewJWTService("test-secret", 24), nil)
	r := gin.New()
	r.POST("/auth/login", h.Login)
	return r, store
}

func postLogin(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	r, store := newTestRouter(t)
	hash, err := utils.HashPassword("s3cret!")
	require.NoError(t, err)
	store.On("GetByEmail", mock.Anything, "admin@summercamp.com").
		Return(&models.Admin{Email: "admin@summercamp.com", Password: hash, Role: models.RoleAdmin}, nil)

	rec := postLogin(t, r, `{"email":"admin@summercamp.com","password":"s3cret!"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body response.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	// the password hash never leaves the server
	assert.NotContains(t, rec.Body.String(), hash)
}

func TestLoginWrongPassword(t *testing.T) {
	r, store := newTestRouter(t)
	hash, err := utils.HashPassword("s3cret!")
	require.NoError(t, err)
	store.On("GetByEmail", mock.Anything, "admin@summercamp.com").
		Return(&models.Admin{Email: "admin@summercamp.com", Password: hash}, nil)

	rec := postLogin(t, r, `{"email":"admin@summercamp.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	r, store := newTestRouter(t)
	store.On("GetByEmail", mock.Anything, "nobody@summercamp.com").Return(nil, errors.New("no rows"))

	rec := postLogin(t, r, `{"email":"nobody@summercamp.com","password":"whatever"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMissingFields(t *testing.T) {
	r, store := newTestRouter(t)

	rec := postLogin(t, r, `{"email":"admin@summercamp.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestEnsureAdminCreatesWhenMissing(t *testing.T) {
	store := &mockStore{}
	store.On("GetByEmail", mock.Anything, "admin@summercamp.com").Return(nil, errors.New("no rows"))
	store.On("Create", mock.Anything, "admin@summercamp.com", mock.Anything, "Camp Admin").
		Return(&models.Admin{Email: "admin@summercamp.com"}, nil)

	err := EnsureAdmin(context.Background(), store, "admin@summercamp.com", "s3cret!", "Camp Admin", nil)

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestEnsureAdminSkipsWhenPresent(t *testing.T) {
	store := &mockStore{}
	store.On("GetByEmail", mock.Anything, "admin@summercamp.com").
		Return(&models.Admin{Email: "admin@summercamp.com"}, nil)

	err := EnsureAdmin(context.Background(), store, "admin@summercamp.com", "s3cret!", "Camp Admin", nil)

	require.NoError(t, err)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureAdminDisabledWithoutCredentials(t *testing.T) {
	store := &mockStore{}

	err := EnsureAdmin(context.Background(), store, "", "", "", nil)

	require.NoError(t, err)
	store.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}
