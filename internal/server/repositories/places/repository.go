package places

import (
	"context"

	"github.com/dmitrijs2005/gophplaces/internal/server/models"
)

// Repository persists places. Keeping the owner's place-id set in step is
// the caller's job, see users.Repository.AddPlace and RemovePlace.
type Repository interface {
	Create(ctx context.Context, place *models.Place) (*models.Place, error)
	GetByID(ctx context.Context, id string) (*models.Place, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error)
	Update(ctx context.Context, place *models.Place) (*models.Place, error)
	Delete(ctx context.Context, id string) error
}
