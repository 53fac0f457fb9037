package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Agamvashisht/fintrack/internal/auth"
	"github.com/Agamvashisht/fintrack/internal/domain"
	"github.com/Agamvashisht/fintrack/internal/event"
	"github.com/Agamvashisht/fintrack/internal/repository/memory"
	"github.com/Agamvashisht/fintrack/internal/service"
	"github.com/Agamvashisht/fintrack/pkg/health"
	pkgkafka "github.com/Agamvashisht/fintrack/pkg/kafka"
)

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) SeedDefaults(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockCategoryRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Category, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter builds the full router over in-memory stores.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := newTestLogger()
	codec := auth.NewCodec(
		"access-secret-for-tests-0123456789ab",
		"refresh-secret-for-tests-0123456789a",
		15*time.Minute,
		168*time.Hour,
	)
	categories := new(mockCategoryRepo)
	categories.On("SeedDefaults", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)

	svc := service.NewAuthService(
		memory.NewUserStore(),
		memory.NewRefreshTokenStore(),
		categories,
		codec,
		auth.NewHasher(bcrypt.MinCost),
		producer,
		logger,
	)

	return NewRouter(
		svc,
		health.NewHandler(),
		logger,
		CORSConfig{AllowedOrigins: []string{"*"}, Environment: "development"},
		RateLimitConfig{RPS: 1000, Burst: 1000},
	)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func registerAndTokens(t *testing.T, router http.Handler) (accessToken, refreshToken string) {
	t.Helper()

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "Sup3rSecret",
		"name":     "Alice",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeResponse(t, rr)
	tokens := body["data"].(map[string]any)["tokens"].(map[string]any)
	return tokens["access_token"].(string), tokens["refresh_token"].(string)
}

func TestRegister_Endpoint_Created(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "Sup3rSecret",
		"name":     "Alice",
	})

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeResponse(t, rr)
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	tokens := data["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestRegister_Endpoint_DuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	registerAndTokens(t, router)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "Sup3rSecret",
		"name":     "Alice",
	})

	assert.Equal(t, http.StatusConflict, rr.Code)
	body := decodeResponse(t, rr)
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}

func TestRegister_Endpoint_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "x",
		"name":     "A",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeResponse(t, rr)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	fields := errObj["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegister_Endpoint_RequiresJSONContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString("email=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestLogin_Endpoint_Success(t *testing.T) {
	router := newTestRouter(t)
	registerAndTokens(t, router)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Sup3rSecret",
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeResponse(t, rr)
	tokens := body["data"].(map[string]any)["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestLogin_Endpoint_WrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerAndTokens(t, router)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "WrongPass1",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeResponse(t, rr)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
}

func TestRefresh_Endpoint_RotatesAndRejectsReplay(t *testing.T) {
	router := newTestRouter(t)
	_, refreshToken := registerAndTokens(t, router)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeResponse(t, rr)
	rotated := body["data"].(map[string]any)["tokens"].(map[string]any)["refresh_token"].(string)
	assert.NotEqual(t, refreshToken, rotated)

	// Replaying the retired token fails and cascades.
	rr = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": rotated,
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout_Endpoint_Idempotent(t *testing.T) {
	router := newTestRouter(t)
	_, refreshToken := registerAndTokens(t, router)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMe_Endpoint_Success(t *testing.T) {
	router := newTestRouter(t)
	accessToken, _ := registerAndTokens(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeResponse(t, rr)
	user := body["data"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
}

func TestMe_Endpoint_MissingToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe_Endpoint_RefreshTokenRejected(t *testing.T) {
	router := newTestRouter(t)
	_, refreshToken := registerAndTokens(t, router)

	// A refresh token must not pass as an access token.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
