// Package mocks provides testify mocks for the persistence and event bus interfaces.
package mocks

import (
	"context"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockDealershipRepository is a mock implementation of persistence.DealershipRepository interface.
type MockDealershipRepository struct {
	mock.Mock
}

func (m *MockDealershipRepository) ListDealerships(ctx context.Context, opts persistence.ListDealershipsOptions) (*persistence.DealershipListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.DealershipListResult), args.Error(1)
}

func (m *MockDealershipRepository) GetByID(ctx context.Context, id string) (*models.Dealership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Dealership), args.Error(1)
}

func (m *MockDealershipRepository) Save(ctx context.Context, dealership *models.Dealership) error {
	args := m.Called(ctx, dealership)

	return args.Error(0)
}

func (m *MockDealershipRepository) CountByStatus(ctx context.Context) (map[models.DealershipStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[models.DealershipStatus]int64), args.Error(1)
}

// MockUserRepository is a mock implementation of persistence.UserRepository interface.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) ListUsers(ctx context.Context, opts persistence.ListUsersOptions) (*persistence.UserListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.UserListResult), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	dealershipRepo *MockDealershipRepository
	userRepo       *MockUserRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		dealershipRepo: &MockDealershipRepository{},
		userRepo:       &MockUserRepository{},
	}
}

func (m *MockPersistence) GetMockDealershipRepository() *MockDealershipRepository {
	return m.dealershipRepo
}

func (m *MockPersistence) GetMockUserRepository() *MockUserRepository {
	return m.userRepo
}

func (m *MockPersistence) DealershipRepository() persistence.DealershipRepository {
	return m.dealershipRepo
}

func (m *MockPersistence) UserRepository() persistence.UserRepository {
	return m.userRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
