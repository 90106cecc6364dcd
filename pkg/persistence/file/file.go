// Package file provides file-based persistence for dealerships and users.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/carsna/carsna/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	dealershipRepo *DealershipRepository
	userRepo       *UserRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		dealershipRepo: NewDealershipRepository(cleanRoot),
		userRepo:       NewUserRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// DealershipRepository returns the dealership repository implementation for file persistence.
func (fp *Persistence) DealershipRepository() persistence.DealershipRepository {
	return fp.dealershipRepo
}

// UserRepository returns the user repository implementation for file persistence.
func (fp *Persistence) UserRepository() persistence.UserRepository {
	return fp.userRepo
}
