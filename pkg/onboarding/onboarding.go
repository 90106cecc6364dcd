// Package onboarding defines the dealership onboarding and user creation wizards.
package onboarding

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/carsna/carsna/pkg/models"
	"github.com/carsna/carsna/pkg/services"
	"github.com/carsna/carsna/pkg/wizard"
)

const (
	KindDealership = "dealership"
	KindUser       = "user"
)

// DealershipCreator stores a finished onboarding application.
type DealershipCreator interface {
	Create(ctx context.Context, req services.CreateDealershipRequest) (*models.Dealership, error)
}

// UserCreator stores a finished user creation form.
type UserCreator interface {
	Create(ctx context.Context, req services.CreateUserRequest) (*models.User, error)
}

// Register makes both wizard kinds available on sessions.
func Register(sessions *wizard.Sessions, dealerships DealershipCreator, users UserCreator, logger *slog.Logger) {
	logger = logger.With("module", "onboarding")

	dealershipDef := DealershipDefinition(dealerships)
	sessions.Register(KindDealership, func(id string, onClose func()) wizard.Session {
		return wizard.New(id, dealershipDef, wizard.Hooks[*models.Dealership]{
			OnSuccess: func(dealership *models.Dealership) {
				logger.Info("Dealership onboarding submitted", "wizard_id", id, "dealership_id", dealership.ID)
			},
			OnClose: onClose,
		})
	})

	userDef := UserDefinition(users)
	sessions.Register(KindUser, func(id string, onClose func()) wizard.Session {
		return wizard.New(id, userDef, wizard.Hooks[*models.User]{
			OnSuccess: func(user *models.User) {
				logger.Info("User created", "wizard_id", id, "user_id", user.ID, "role", user.Role)
			},
			OnClose: onClose,
		})
	})
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}

	return out
}

func document(ref *wizard.FileRef) *models.Document {
	if !ref.Present() {
		return nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = path.Base(ref.URL)
	}

	return &models.Document{
		Name:        name,
		URL:         ref.URL,
		ContentType: ref.ContentType,
		Size:        ref.Size,
	}
}
