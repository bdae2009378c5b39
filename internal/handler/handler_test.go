package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	"marketplace/internal/handler"
	"marketplace/internal/infra/system"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// =====================
// mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in handler tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in handler tests")
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, userID int64, name string, profile datatypes.JSON) error {
	panic("not used in handler tests")
}

func (m *UserRepoMock) SetVerified(ctx context.Context, userID int64, verified bool) error {
	panic("not used in handler tests")
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used in handler tests")
}

type RequestRepoMock struct{ mock.Mock }

func (m *RequestRepoMock) Create(ctx context.Context, r *model.ServiceRequest) error {
	args := m.Called(ctx, r)
	r.ID = 1
	return args.Error(0)
}

func (m *RequestRepoMock) FindByID(ctx context.Context, id int64) (model.ServiceRequest, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(model.ServiceRequest)
	return r, args.Error(1)
}

func (m *RequestRepoMock) List(ctx context.Context, f repo.ServiceRequestFilter) ([]model.ServiceRequest, int64, error) {
	args := m.Called(ctx, f)
	rows, _ := args.Get(0).([]model.ServiceRequest)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *RequestRepoMock) UpdateStatus(ctx context.Context, id int64, status model.ServiceRequestStatus) error {
	panic("not used in handler tests")
}

// =====================
// helpers
// =====================

const testSecret = "handler-test-secret"

type env struct {
	e        *echo.Echo
	tokens   *auth.Tokens
	users    *UserRepoMock
	requests *RequestRepoMock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	users := &UserRepoMock{}
	requests := &RequestRepoMock{}
	tokens := auth.NewTokens(testSecret, 15*time.Minute)

	e := echo.New()
	e.Validator = validator.New()

	guard := handler.Guard{Tokens: tokens, AdminCookie: "admin_session", Users: users}
	h := handler.NewServiceHandler(nil, usecase.NewServiceRequestUsecase(requests, system.Clock{}))
	h.RegisterRoutes(e.Group("/api"), guard)

	return &env{e: e, tokens: tokens, users: users, requests: requests}
}

func (en *env) login(t *testing.T, u *model.User) string {
	t.Helper()
	en.users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
	raw, _, err := en.tokens.Issue(u, time.Now())
	require.NoError(t, err)
	return raw
}

func (en *env) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	en.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func ngoUser(verified bool) *model.User {
	return &model.User{ID: 40, Role: model.RoleUser, UserType: model.UserTypeNGO, IsVerified: verified, IsActive: true}
}

const requestBody = `{"title":"Flood relief","description":"Pack kits","volunteers_needed":5,"skills":["logistics"]}`

// =====================
// tests
// =====================

func TestCreateServiceRequest_NoToken(t *testing.T) {
	en := newEnv(t)

	rec := en.do(http.MethodPost, "/api/service-requests", "", requestBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	en.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateServiceRequest_UnverifiedNGO(t *testing.T) {
	en := newEnv(t)
	token := en.login(t, ngoUser(false))

	rec := en.do(http.MethodPost, "/api/service-requests", token, requestBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["requiresVerification"])
}

func TestCreateServiceRequest_Created(t *testing.T) {
	en := newEnv(t)
	token := en.login(t, ngoUser(true))
	en.requests.On("Create", mock.Anything, mock.AnythingOfType("*model.ServiceRequest")).Return(nil).Once()

	rec := en.do(http.MethodPost, "/api/service-requests", token, requestBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	req, ok := body["request"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "open", req["status"])
	assert.Equal(t, float64(40), req["ngo_id"])
}

func TestCreateServiceRequest_ValidationFields(t *testing.T) {
	en := newEnv(t)
	token := en.login(t, ngoUser(true))

	rec := en.do(http.MethodPost, "/api/service-requests", token, `{"title":"","description":"x","volunteers_needed":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "required", fields["CreateServiceRequestInput.Title"])
}

func TestCreateServiceRequest_BrokenJSON(t *testing.T) {
	en := newEnv(t)
	token := en.login(t, ngoUser(true))

	rec := en.do(http.MethodPost, "/api/service-requests", token, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", decode(t, rec)["error"])
}

func TestListServiceRequests(t *testing.T) {
	en := newEnv(t)
	open := model.ServiceRequestOpen
	en.requests.On("List", mock.Anything, repo.ServiceRequestFilter{Status: &open, Page: 1, Limit: 20}).
		Return([]model.ServiceRequest{{ID: 1, Title: "a", Status: open}}, int64(1), nil).Once()

	rec := en.do(http.MethodGet, "/api/service-requests", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total"])

	rec = en.do(http.MethodGet, "/api/service-requests?status=archived", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status", decode(t, rec)["error"])

	rec = en.do(http.MethodGet, "/api/service-requests?page=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceRequestDetail_NotFound(t *testing.T) {
	en := newEnv(t)
	en.requests.On("FindByID", mock.Anything, int64(9)).Return(model.ServiceRequest{}, repo.ErrNotFound)

	rec := en.do(http.MethodGet, "/api/service-requests/9", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode(t, rec)["error"])
}
