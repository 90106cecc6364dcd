package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carsna/carsna/pkg/cache"
	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/onboarding"
	"github.com/carsna/carsna/pkg/persistence/file"
	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/web"
	"github.com/carsna/carsna/pkg/wizard"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app         *fiber.App
	dealerships *services.Dealership
	sessions    *wizard.Sessions
}

func setupTestApp(t *testing.T) *testServer {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	options := services.NewOptions(persistence, cache.NewMemoryCache(cache.DefaultTTL), slog.Default())
	dealerships := services.NewDealership(persistence, nil, options, slog.Default())
	users := services.NewUser(persistence, nil, slog.Default())

	sessions := wizard.NewSessions()
	onboarding.Register(sessions, dealerships, users, slog.Default())

	handlers := web.NewAPIHandlers(dealerships, users, options, sessions, services.NewValidator())

	app := fiber.New()
	handlers.Routes(app)
	web.NewWizardHandlers(sessions).Routes(app)

	return &testServer{app: app, dealerships: dealerships, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, target string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func validDealershipRequest() web.CreateDealershipRequest {
	return web.CreateDealershipRequest{
		Name:               "Windhoek Motors",
		RegistrationNumber: "CC/2024/0001",
		BusinessType:       "independent",
		ContactName:        "Anna Shikongo",
		Email:              "Anna@WindhoekMotors.na",
		Phone:              "+264 61 000 000",
		Address:            "1 Independence Ave",
		City:               "Windhoek",
		Region:             "Khomas",
		Documents: models.DealershipDocuments{
			BusinessLicense: &models.Document{Name: "license.pdf"},
			TaxCertificate:  &models.Document{Name: "tax.pdf"},
		},
		Plan: "premium",
	}
}

func createDealership(t *testing.T, s *testServer) models.Dealership {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/dealerships", validDealershipRequest())
	require.Equal(t, http.StatusCreated, status, string(body))

	var dealership models.Dealership
	require.NoError(t, json.Unmarshal(body, &dealership))

	return dealership
}

func TestAPIHandlers_CreateDealership(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		mutate         func(req *web.CreateDealershipRequest)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful creation",
			mutate:         func(*web.CreateDealershipRequest) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			mutate:         func(req *web.CreateDealershipRequest) { req.Name = "" },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Name",
		},
		{
			name:           "invalid business type",
			mutate:         func(req *web.CreateDealershipRequest) { req.BusinessType = "kiosk" },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "BusinessType",
		},
		{
			name: "commission rate above range",
			mutate: func(req *web.CreateDealershipRequest) {
				rate := 25.0
				req.CommissionRate = &rate
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "CommissionRate",
		},
		{
			name:           "missing business license",
			mutate:         func(req *web.CreateDealershipRequest) { req.Documents.BusinessLicense = nil },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "BusinessLicense",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := setupTestApp(t)

			req := validDealershipRequest()
			tt.mutate(&req)

			status, body := s.do(t, http.MethodPost, "/dealerships", req)
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedError != "" {
				assert.Contains(t, string(body), tt.expectedError)

				return
			}

			var dealership models.Dealership
			require.NoError(t, json.Unmarshal(body, &dealership))
			assert.NotEmpty(t, dealership.ID)
			assert.Equal(t, models.DealershipStatusPending, dealership.Status)
			assert.Equal(t, "anna@windhoekmotors.na", dealership.Email)
			assert.InDelta(t, onboarding.DefaultCommissionRate, dealership.CommissionRate, 0.001)
		})
	}
}

func TestAPIHandlers_CreateDealership_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	status, body := s.do(t, http.MethodPost, "/dealerships", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Invalid JSON format")
}

func TestAPIHandlers_GetDealership(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	created := createDealership(t, s)

	status, body := s.do(t, http.MethodGet, "/dealerships/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var fetched models.Dealership
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	status, body = s.do(t, http.MethodGet, "/dealerships/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "dealership_not_found")
}

func TestAPIHandlers_GetDealerships(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	createDealership(t, s)
	createDealership(t, s)

	status, body := s.do(t, http.MethodGet, "/dealerships?status=PENDING&limit=1", nil)
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Dealerships []models.Dealership `json:"dealerships"`
		TotalCount  int64               `json:"total_count"`
		HasNextPage bool                `json:"has_next_page"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Len(t, result.Dealerships, 1)
	assert.Equal(t, int64(2), result.TotalCount)
	assert.True(t, result.HasNextPage)

	status, _ = s.do(t, http.MethodGet, "/dealerships?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/dealerships?sort_by=email", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/dealerships?status=UNKNOWN", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_UpdateDealershipStatus(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	created := createDealership(t, s)
	target := "/dealerships/" + created.ID + "/status"

	status, body := s.do(t, http.MethodPatch, target, web.UpdateDealershipStatusRequest{Status: "ACTIVE"})
	require.Equal(t, http.StatusOK, status, string(body))

	var updated models.Dealership
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.DealershipStatusActive, updated.Status)

	status, body = s.do(t, http.MethodPatch, target, web.UpdateDealershipStatusRequest{Status: "REJECTED"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "cannot move dealership")

	status, _ = s.do(t, http.MethodPatch, target, web.UpdateDealershipStatusRequest{Status: "CLOSED"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPatch, "/dealerships/missing/status", web.UpdateDealershipStatusRequest{Status: "ACTIVE"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_DashboardStats(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	createDealership(t, s)

	status, body := s.do(t, http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, status)

	var stats services.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[models.DealershipStatusPending])
	assert.Equal(t, int64(0), stats.ByStatus[models.DealershipStatusActive])
}

func TestAPIHandlers_Users(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	admin := web.CreateUserRequest{
		FirstName:       "Maria",
		LastName:        "Amutenya",
		Email:           "maria@cars.na",
		Role:            "admin",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	}

	status, body := s.do(t, http.MethodPost, "/users", admin)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.NotContains(t, string(body), "s3cret-pass")
	assert.NotContains(t, string(body), "password")

	var user models.User
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, models.UserStatusActive, user.Status)

	status, _ = s.do(t, http.MethodGet, "/users/"+user.ID, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "user_not_found")

	duplicate := admin
	duplicate.Email = "MARIA@cars.na"
	status, body = s.do(t, http.MethodPost, "/users", duplicate)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "email_taken")

	mismatch := admin
	mismatch.Email = "other@cars.na"
	mismatch.ConfirmPassword = "different-pass"
	status, _ = s.do(t, http.MethodPost, "/users", mismatch)
	assert.Equal(t, http.StatusBadRequest, status)

	agent := admin
	agent.Email = "agent@cars.na"
	agent.Role = "sales_agent"
	status, _ = s.do(t, http.MethodPost, "/users", agent)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/users?role=admin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "maria@cars.na")
}

func TestAPIHandlers_GetOptions(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	created := createDealership(t, s)

	tests := []struct {
		kind           string
		expectedStatus int
		expectedCount  int
	}{
		{"roles", http.StatusOK, 4},
		{"plans", http.StatusOK, 3},
		{"business-types", http.StatusOK, 3},
		{"dealerships", http.StatusOK, 1},
		{"colours", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/options/"+tt.kind, nil)
			require.Equal(t, tt.expectedStatus, status)

			if tt.expectedStatus != http.StatusOK {
				return
			}

			var result struct {
				Options []models.Option `json:"options"`
			}
			require.NoError(t, json.Unmarshal(body, &result))
			assert.Len(t, result.Options, tt.expectedCount)
		})
	}

	status, body := s.do(t, http.MethodGet, "/options/dealerships", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), created.ID)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	status, body := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "healthy", result["status"])
	assert.InDelta(t, 0, result["open_wizards"], 0)
}
