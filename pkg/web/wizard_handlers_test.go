package web_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/carsna/carsna/pkg/web"
	"github.com/carsna/carsna/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSnapshot(t *testing.T, body []byte) wizard.Snapshot {
	t.Helper()

	var snapshot wizard.Snapshot
	require.NoError(t, json.Unmarshal(body, &snapshot), string(body))

	return snapshot
}

func openWizard(t *testing.T, s *testServer, kind string) wizard.Snapshot {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/wizards/"+kind, nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	return decodeSnapshot(t, body)
}

func TestWizardHandlers_ListKinds(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	status, body := s.do(t, http.MethodGet, "/wizards", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"kinds":["dealership","user"]}`, string(body))
}

func TestWizardHandlers_OpenUnknownKind(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	status, body := s.do(t, http.MethodPost, "/wizards/boat", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "unknown_wizard_kind")
}

func TestWizardHandlers_UserFlow(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	opened := openWizard(t, s, "user")
	assert.Equal(t, "user", opened.Kind)
	assert.Equal(t, 1, opened.CurrentStep)
	assert.Equal(t, 3, opened.TotalSteps)
	assert.Len(t, opened.Steps, 3)

	base := "/wizards/" + opened.ID

	status, body := s.do(t, http.MethodGet, base+"/schema", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "first_name")

	// Unknown fields are rejected by the patch schema.
	status, body = s.do(t, http.MethodPatch, base+"/fields", map[string]any{"nickname": "mo"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Invalid field patch")

	// Fields of later steps are not editable yet.
	status, _ = s.do(t, http.MethodPatch, base+"/fields", map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	rejected := decodeSnapshot(t, body)
	assert.Equal(t, 1, rejected.CurrentStep)
	assert.Equal(t, "First name is required", rejected.Errors["first_name"])
	assert.Contains(t, rejected.Errors, "email")

	status, body = s.do(t, http.MethodPatch, base+"/fields", map[string]any{
		"first_name": "Maria",
		"last_name":  "Amutenya",
		"email":      "maria@cars.na",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decodeSnapshot(t, body).Errors)

	status, body = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 2, decodeSnapshot(t, body).CurrentStep)

	status, _ = s.do(t, http.MethodPost, base+"/steps/3", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, base+"/steps/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPatch, base+"/fields", map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, base+"/previous", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, decodeSnapshot(t, body).CurrentStep)

	status, body = s.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, decodeSnapshot(t, body).FurthestStep)

	status, _ = s.do(t, http.MethodPatch, base+"/fields", map[string]any{"password": "short", "confirm_password": "short"})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Password must be at least 8 characters", decodeSnapshot(t, body).Errors["password"])

	status, body = s.do(t, http.MethodPatch, base+"/fields", map[string]any{
		"password":         "s3cret-pass",
		"confirm_password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body), "s3cret-pass")
	assert.Contains(t, string(body), "********")

	status, body = s.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	committed := decodeSnapshot(t, body)
	assert.Equal(t, wizard.StatusCommitted, committed.Status)

	record, ok := committed.Record.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "maria@cars.na", record["email"])
	assert.Equal(t, "ACTIVE", record["status"])

	status, _ = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, s.sessions.Len())
}

func TestWizardHandlers_SubmitEmailTaken(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	status, _ := s.do(t, http.MethodPost, "/users", web.CreateUserRequest{
		FirstName:       "Maria",
		LastName:        "Amutenya",
		Email:           "maria@cars.na",
		Role:            "viewer",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, status)

	opened := openWizard(t, s, "user")
	base := "/wizards/" + opened.ID

	steps := []map[string]any{
		{"first_name": "Maria", "last_name": "Other", "email": "Maria@Cars.na"},
		{"role": "viewer"},
		{"password": "another-pass", "confirm_password": "another-pass"},
	}

	for i, fields := range steps {
		status, body := s.do(t, http.MethodPatch, base+"/fields", fields)
		require.Equal(t, http.StatusOK, status, string(body))

		if i < len(steps)-1 {
			status, body = s.do(t, http.MethodPost, base+"/next", nil)
			require.Equal(t, http.StatusOK, status, string(body))
		}
	}

	status, body := s.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	snapshot := decodeSnapshot(t, body)
	assert.Equal(t, "Email already in use", snapshot.Errors["email"])
	assert.Equal(t, wizard.StatusOpen, snapshot.Status)
	assert.Equal(t, 3, snapshot.CurrentStep)
	assert.Equal(t, 1, snapshot.ErrorStep)

	status, body = s.do(t, http.MethodPost, base+"/steps/1", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodPatch, base+"/fields", map[string]any{"email": "maria.other@cars.na"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Empty(t, decodeSnapshot(t, body).Errors)
}

func TestWizardHandlers_Cancel(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	opened := openWizard(t, s, "dealership")
	assert.Equal(t, 4, opened.TotalSteps)

	status, _ := s.do(t, http.MethodDelete, "/wizards/"+opened.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodGet, "/wizards/"+opened.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := s.do(t, http.MethodDelete, "/wizards/"+opened.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "wizard_not_found")
}

func TestWizardHandlers_Reset(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	opened := openWizard(t, s, "dealership")
	base := "/wizards/" + opened.ID

	status, _ := s.do(t, http.MethodPatch, base+"/fields", map[string]any{"name": "Windhoek Motors"})
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, status)

	draft, ok := decodeSnapshot(t, body).Draft.(map[string]any)
	require.True(t, ok)
	assert.Empty(t, draft["name"])
	assert.Equal(t, "basic", draft["plan"])
}

func TestWizardHandlers_InvalidValueType(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	opened := openWizard(t, s, "dealership")

	status, _ := s.do(t, http.MethodPatch, "/wizards/"+opened.ID+"/fields", map[string]any{"name": 42})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPatch, "/wizards/"+opened.ID+"/fields", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
}
