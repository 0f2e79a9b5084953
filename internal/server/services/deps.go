// Package services implements the place and user workflows. Both sequence
// calls to external collaborators (geocoding, object storage) ahead of a
// database transaction and clean up remote objects that end up unreferenced.
package services

import (
	"context"

	"github.com/dmitrijs2005/gophplaces/internal/server/models"
)

// Geocoder resolves free text to a location.
type Geocoder interface {
	Resolve(ctx context.Context, title, address string) (*models.Location, error)
}

// ObjectStorage stores images remotely.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, contentType, folder string) (*models.Image, error)
	Delete(ctx context.Context, key string) error
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}
