package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"medmonics/internal/domain"
	"medmonics/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		headers        map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{name: "disabled", key: "", expectedStatus: http.StatusOK},
		{name: "missing", key: "secret", expectedStatus: http.StatusUnauthorized, expectedCode: "MISSING_API_KEY"},
		{name: "header", key: "secret", headers: map[string]string{"X-API-Key": "secret"}, expectedStatus: http.StatusOK},
		{name: "bearer", key: "secret", headers: map[string]string{"Authorization": "Bearer secret"}, expectedStatus: http.StatusOK},
		{name: "basic scheme", key: "secret", headers: map[string]string{"Authorization": "Basic c2VjcmV0"}, expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_AUTH_SCHEME"},
		{name: "wrong key", key: "secret", headers: map[string]string{"X-API-Key": "guess"}, expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/api/mnemonics", middleware.RequireAPIKey(tt.key), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/mnemonics", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedCode != "" {
				var body middleware.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedCode, body.Code)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "not found", err: domain.NewNotFoundError("generation"), expectedStatus: http.StatusNotFound, expectedCode: string(domain.CodeNotFound)},
		{name: "schema", err: domain.NewSchemaError("staging[0].id", "missing"), expectedStatus: http.StatusBadRequest, expectedCode: string(domain.CodeSchema)},
		{name: "generation", err: domain.NewGenerationError("image", errors.New("quota")), expectedStatus: http.StatusBadGateway, expectedCode: string(domain.CodeGeneration)},
		{name: "job", err: domain.NewJobError("batches/1", "failed"), expectedStatus: http.StatusConflict, expectedCode: string(domain.CodeJob)},
		{name: "validation", err: domain.ValidationErrors{domain.NewMissingFieldError("topic")}, expectedStatus: http.StatusBadRequest, expectedCode: string(domain.CodeValidation)},
		{name: "fiber", err: fiber.ErrMethodNotAllowed, expectedStatus: http.StatusMethodNotAllowed, expectedCode: "HTTP_ERROR"},
		{name: "unknown", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedCode: string(domain.CodeInternal)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedCode, body["code"])
		})
	}
}

func TestErrorHandler_ServerErrorsHideInternals(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "io error",
			err:            domain.NewIOError("write", "/srv/medmonics/generations/cardiology/abc/data.json", errors.New("disk quota exceeded")),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Internal server error",
		},
		{
			name:           "generation error",
			err:            domain.NewGenerationError("image", errors.New("api key AIza-secret rejected")),
			expectedStatus: http.StatusBadGateway,
			expectedMsg:    "image failed",
		},
		{
			name:           "internal error",
			err:            domain.NewInternalError("failed to encode job handle", errors.New("json: unsupported value")),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			body := string(raw)
			assert.NotContains(t, body, "/srv/medmonics")
			assert.NotContains(t, body, "disk quota")
			assert.NotContains(t, body, "AIza-secret")
			assert.NotContains(t, body, "json: unsupported")
			assert.NotContains(t, body, "details")

			var decoded middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, tt.expectedMsg, decoded.Message)
		})
	}
}

func TestErrorHandler_ClientErrorsKeepDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
	app.Get("/", func(c *fiber.Ctx) error { return domain.NewSchemaError("staging[1].id", "duplicate tag") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var decoded middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "staging[1].id", decoded.Details["field"])
	assert.Contains(t, decoded.Message, "duplicate tag")
}
