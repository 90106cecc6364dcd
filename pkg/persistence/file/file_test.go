package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	// Test with regular path
	p := NewPersistence("/tmp/test")
	fp := p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	// Test with file:// prefix
	p = NewPersistence("file:///tmp/test")
	fp = p.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_Close(t *testing.T) {
	p := NewPersistence("./test-data")
	err := p.Close(t.Context())
	assert.NoError(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.Error(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()))
}

func newDealership(id, name string, status models.DealershipStatus) *models.Dealership {
	return &models.Dealership{
		ID:                 id,
		Name:               name,
		RegistrationNumber: "CC/2024/" + id,
		BusinessType:       models.BusinessTypeIndependent,
		ContactName:        "Anna Shikongo",
		Email:              id + "@dealer.na",
		Phone:              "+264 81 000 0000",
		Address:            "1 Independence Ave",
		City:               "Windhoek",
		Region:             "Khomas",
		Documents: models.DealershipDocuments{
			BusinessLicense: &models.Document{Name: "license.pdf"},
			TaxCertificate:  &models.Document{Name: "tax.pdf"},
		},
		Plan:           models.PlanBasic,
		CommissionRate: 5,
		Status:         status,
	}
}

func TestDealershipRepository_Save(t *testing.T) {
	testDir := t.TempDir()
	repo := NewPersistence(testDir).DealershipRepository()

	dealership := newDealership("abc123", "Windhoek Motors", models.DealershipStatusPending)

	err := repo.Save(t.Context(), dealership)
	require.NoError(t, err)

	// Verify file was created
	assert.FileExists(t, filepath.Join(testDir, "dealerships", "abc123.json"))

	// Verify timestamps were set
	assert.False(t, dealership.CreatedAt.IsZero())
	assert.False(t, dealership.UpdatedAt.IsZero())

	loaded, err := repo.GetByID(t.Context(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Windhoek Motors", loaded.Name)
	assert.Equal(t, "license.pdf", loaded.Documents.BusinessLicense.Name)
	assert.Nil(t, loaded.Documents.ProofOfAddress)
}

func TestDealershipRepository_Save_KeepsCreatedAt(t *testing.T) {
	repo := NewPersistence(t.TempDir()).DealershipRepository()

	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	dealership := newDealership("keep", "Keep Motors", models.DealershipStatusPending)
	dealership.CreatedAt = created

	require.NoError(t, repo.Save(t.Context(), dealership))

	assert.Equal(t, created, dealership.CreatedAt)
	assert.True(t, dealership.UpdatedAt.After(created))
}

func TestDealershipRepository_GetByID_Missing(t *testing.T) {
	repo := NewPersistence(t.TempDir()).DealershipRepository()

	dealership, err := repo.GetByID(t.Context(), "missing")
	require.NoError(t, err)
	assert.Nil(t, dealership)
}

func TestDealershipRepository_ListDealerships(t *testing.T) {
	repo := NewPersistence(t.TempDir()).DealershipRepository()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []*models.Dealership{
		newDealership("d1", "Alpha Autos", models.DealershipStatusPending),
		newDealership("d2", "Bravo Cars", models.DealershipStatusActive),
		newDealership("d3", "Charlie Fleet", models.DealershipStatusPending),
	}

	for i, d := range fixtures {
		d.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(t.Context(), d))
	}

	pending := models.DealershipStatusPending

	tests := []struct {
		name        string
		opts        persistence.ListDealershipsOptions
		expectedIDs []string
		total       int64
		hasNext     bool
	}{
		{
			name:        "defaults newest first",
			opts:        persistence.ListDealershipsOptions{},
			expectedIDs: []string{"d3", "d2", "d1"},
			total:       3,
		},
		{
			name:        "filter by status",
			opts:        persistence.ListDealershipsOptions{Status: &pending},
			expectedIDs: []string{"d3", "d1"},
			total:       2,
		},
		{
			name:        "sort by name ascending",
			opts:        persistence.ListDealershipsOptions{SortBy: "name", SortOrder: "asc"},
			expectedIDs: []string{"d1", "d2", "d3"},
			total:       3,
		},
		{
			name:        "paged",
			opts:        persistence.ListDealershipsOptions{Limit: 2, SortOrder: "asc"},
			expectedIDs: []string{"d1", "d2"},
			total:       3,
			hasNext:     true,
		},
		{
			name:        "offset past end",
			opts:        persistence.ListDealershipsOptions{Offset: 10},
			expectedIDs: []string{},
			total:       3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.ListDealerships(t.Context(), tt.opts)
			require.NoError(t, err)

			ids := make([]string, 0, len(result.Dealerships))
			for _, d := range result.Dealerships {
				ids = append(ids, d.ID)
			}

			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, tt.total, result.TotalCount)
			assert.Equal(t, tt.hasNext, result.HasNextPage)
		})
	}

	_, err := repo.ListDealerships(t.Context(), persistence.ListDealershipsOptions{SortBy: "email"})
	assert.True(t, persistence.IsInvalidSortField(err))
}

func TestDealershipRepository_CountByStatus(t *testing.T) {
	repo := NewPersistence(t.TempDir()).DealershipRepository()

	require.NoError(t, repo.Save(t.Context(), newDealership("d1", "A", models.DealershipStatusPending)))
	require.NoError(t, repo.Save(t.Context(), newDealership("d2", "B", models.DealershipStatusPending)))
	require.NoError(t, repo.Save(t.Context(), newDealership("d3", "C", models.DealershipStatusActive)))

	counts, err := repo.CountByStatus(t.Context())
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts[models.DealershipStatusPending])
	assert.Equal(t, int64(1), counts[models.DealershipStatusActive])
	assert.Equal(t, int64(0), counts[models.DealershipStatusSuspended])
	assert.Contains(t, counts, models.DealershipStatusRejected)
}

func TestUserRepository_Save(t *testing.T) {
	testDir := t.TempDir()
	repo := NewPersistence(testDir).UserRepository()

	user := &models.User{
		ID:           "u1",
		FirstName:    "Maria",
		LastName:     "Nghipondoka",
		Email:        "Maria@Cars.na",
		Role:         models.RoleAdmin,
		PasswordHash: "$2a$10$hash",
		Status:       models.UserStatusActive,
	}

	require.NoError(t, repo.Save(t.Context(), user))
	assert.FileExists(t, filepath.Join(testDir, "users", "u1.json"))
	assert.False(t, user.CreatedAt.IsZero())

	loaded, err := repo.GetByID(t.Context(), "u1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "$2a$10$hash", loaded.PasswordHash)

	byEmail, err := repo.GetByEmail(t.Context(), "maria@cars.NA")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "u1", byEmail.ID)

	// Saving the same user again is an update, not a duplicate.
	user.Phone = "+264 81 123 4567"
	require.NoError(t, repo.Save(t.Context(), user))
}

func TestUserRepository_Save_DuplicateEmail(t *testing.T) {
	repo := NewPersistence(t.TempDir()).UserRepository()

	require.NoError(t, repo.Save(t.Context(), &models.User{ID: "u1", FirstName: "A", Email: "dup@cars.na", Role: models.RoleViewer}))

	err := repo.Save(t.Context(), &models.User{ID: "u2", FirstName: "B", Email: "DUP@cars.na", Role: models.RoleViewer})
	require.Error(t, err)
	assert.True(t, persistence.IsEmailTaken(err))

	missing, err := repo.GetByID(t.Context(), "u2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_ListUsers(t *testing.T) {
	repo := NewPersistence(t.TempDir()).UserRepository()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fixtures := []*models.User{
		{ID: "u1", FirstName: "Ama", Email: "ama@cars.na", Role: models.RoleAdmin},
		{ID: "u2", FirstName: "Ben", Email: "ben@cars.na", Role: models.RoleSalesAgent, DealershipID: "d1"},
		{ID: "u3", FirstName: "Cas", Email: "cas@cars.na", Role: models.RoleSalesAgent, DealershipID: "d2"},
	}

	for i, u := range fixtures {
		u.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(t.Context(), u))
	}

	agent := models.RoleSalesAgent

	result, err := repo.ListUsers(t.Context(), persistence.ListUsersOptions{Role: &agent})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)
	assert.Equal(t, "u3", result.Users[0].ID)

	result, err = repo.ListUsers(t.Context(), persistence.ListUsersOptions{DealershipID: "d1"})
	require.NoError(t, err)
	require.Len(t, result.Users, 1)
	assert.Equal(t, "u2", result.Users[0].ID)

	result, err = repo.ListUsers(t.Context(), persistence.ListUsersOptions{SortBy: "name", SortOrder: "asc", Limit: 1})
	require.NoError(t, err)
	require.Len(t, result.Users, 1)
	assert.Equal(t, "u1", result.Users[0].ID)
	assert.True(t, result.HasNextPage)
}
