package users

import (
	"context"

	"github.com/dmitrijs2005/gophplaces/internal/server/models"
)

// Repository persists users and each user's place-id set.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	AddPlace(ctx context.Context, userID, placeID string) error
	RemovePlace(ctx context.Context, userID, placeID string) error
	PlaceIDs(ctx context.Context, userID string) ([]string, error)
}
