package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/revenue-forecasting-api/internal/domain"
	"github.com/vfg2006/revenue-forecasting-api/internal/usecases/authenticating/mocks"
	"github.com/vfg2006/revenue-forecasting-api/pkg/log"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	log.SetupTestLogger()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthenticator(ctrl)

	tests := []struct {
		name           string
		path           string
		header         string
		setup          func()
		expectedStatus int
	}{
		{
			name:           "Rota pública não exige token",
			path:           "/healthcheck",
			setup:          func() {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Sem cabeçalho Authorization",
			path:           "/v1/forecasts/latest",
			setup:          func() {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Cabeçalho sem prefixo Bearer",
			path:           "/v1/forecasts/latest",
			header:         "abc",
			setup:          func() {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "Token inválido",
			path:   "/v1/forecasts/latest",
			header: "Bearer abc",
			setup: func() {
				mockAuth.EXPECT().ValidateToken("abc").Return(nil, errors.New("invalid"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "Token válido",
			path:   "/v1/forecasts/latest",
			header: "Bearer good",
			setup: func() {
				mockAuth.EXPECT().ValidateToken("good").Return(&domain.Claims{UserID: 1, UserRoleID: RoleAdmin}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(mockAuth)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	log.SetupTestLogger()

	tests := []struct {
		name           string
		claims         *domain.Claims
		expectedStatus int
	}{
		{"Sem usuário no contexto", nil, http.StatusUnauthorized},
		{"Visualizador bloqueado", &domain.Claims{UserID: 3, UserRoleID: RoleViewer}, http.StatusForbidden},
		{"Supervisor permitido", &domain.Claims{UserID: 2, UserRoleID: RoleSupervisor}, http.StatusOK},
		{"Administrador permitido", &domain.Claims{UserID: 1, UserRoleID: RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/analysis/run", nil)
			if tt.claims != nil {
				req = req.WithContext(context.WithValue(req.Context(), ContextKeyUser, tt.claims))
			}
			rec := httptest.NewRecorder()

			AdminOrSupervisor()(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestCors(t *testing.T) {
	handler := Cors([]string{"http://localhost:3000"})(okHandler())

	t.Run("Origem permitida recebe cabeçalhos", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/alerts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Origem desconhecida não recebe cabeçalhos", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/alerts", nil)
		req.Header.Set("Origin", "http://evil.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight responde 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/alerts", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLogPanicMiddleware(t *testing.T) {
	log.SetupTestLogger()

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts", nil)
	rec := httptest.NewRecorder()

	LoggingMiddleware()(LogPanicMiddleware()(panicking)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500 µs", formatDuration(500_000))
	assert.Equal(t, "250 ms", formatDuration(250_000_000))
	assert.Equal(t, "1.50 s", formatDuration(1_500_000_000))
}
