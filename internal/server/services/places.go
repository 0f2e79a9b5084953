package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/dbx"
	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/dmitrijs2005/gophplaces/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophplaces/internal/server/storage"
)

// Operation names used for orphaned-object logging and metrics.
const (
	opCreateOwnerMissing = "place_create_owner_missing"
	opCreateWriteFailed  = "place_create_write_failed"
	opUpdateOldImage     = "place_update_old_image"
	opUpdateWriteFailed  = "place_update_write_failed"
	opDeleteImage        = "place_delete"
)

type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	Image       *models.ImageUpload
}

type UpdatePlaceInput struct {
	Title       string
	Description string
	Image       *models.ImageUpload
}

type PlaceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	geocoder    Geocoder
	storage     ObjectStorage
	logger      logging.Logger
}

func NewPlaceService(db *sql.DB, m repomanager.RepositoryManager, geocoder Geocoder, storage ObjectStorage, logger logging.Logger) *PlaceService {
	return &PlaceService{
		db:          db,
		repomanager: m,
		geocoder:    geocoder,
		storage:     storage,
		logger:      logger.With("module", "places"),
	}
}

// GetByID returns the place with id, or common.ErrNotFound.
func (s *PlaceService) GetByID(ctx context.Context, id string) (*models.Place, error) {
	place, err := s.repomanager.Places(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, persistenceFailed(err)
	}
	return place, nil
}

// ListByUser returns the places owned by userID. A user without places, or
// an unknown user, yields common.ErrUserHasNoPlaces.
func (s *PlaceService) ListByUser(ctx context.Context, userID string) ([]*models.Place, error) {
	list, err := s.repomanager.Places(s.db).ListByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserHasNoPlaces
		}
		return nil, persistenceFailed(err)
	}
	if len(list) == 0 {
		return nil, common.ErrUserHasNoPlaces
	}
	return list, nil
}

// Create geocodes the address, uploads the optional image, and then inserts
// the place and links it to its owner in one transaction. An image uploaded
// for a place that could not be stored is deleted again.
func (s *PlaceService) Create(ctx context.Context, ownerID string, in CreatePlaceInput) (*models.Place, error) {
	location, err := s.geocoder.Resolve(ctx, in.Title, in.Address)
	if err != nil {
		return nil, geocodingFailed(err)
	}

	var image *models.Image
	if in.Image != nil {
		image, err = s.storage.Upload(ctx, in.Image.Data, in.Image.ContentType, storage.FolderPlaces)
		if err != nil {
			return nil, uploadFailed(err)
		}
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID); err != nil {
		discardImage(ctx, s.storage, s.logger, image, opCreateOwnerMissing)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrOwnerNotFound
		}
		return nil, persistenceFailed(err)
	}

	place := &models.Place{
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Location:    *location,
		Image:       image,
		OwnerID:     ownerID,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Places(tx).Create(ctx, place)
		if err != nil {
			return fmt.Errorf("insert place: %w", err)
		}
		place = created

		if err := s.repomanager.Users(tx).AddPlace(ctx, ownerID, place.ID); err != nil {
			return fmt.Errorf("link place to owner: %w", err)
		}
		return nil
	})
	if err != nil {
		discardImage(ctx, s.storage, s.logger, image, opCreateWriteFailed)
		s.logger.Error(ctx, "place create failed", "owner_id", ownerID, "error", err)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrOwnerNotFound
		}
		return nil, persistenceFailed(err)
	}

	s.logger.Info(ctx, "place created", "place_id", place.ID, "owner_id", ownerID)
	return place, nil
}

// Update changes title and description, and swaps the image when a new one
// is given. Only the owner may update a place.
func (s *PlaceService) Update(ctx context.Context, requesterID, placeID string, in UpdatePlaceInput) (*models.Place, error) {
	repo := s.repomanager.Places(s.db)

	place, err := repo.GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, persistenceFailed(err)
	}

	if place.OwnerID != requesterID {
		return nil, common.ErrForbidden
	}

	var newImage *models.Image
	if in.Image != nil {
		discardImage(ctx, s.storage, s.logger, place.Image, opUpdateOldImage)

		newImage, err = s.storage.Upload(ctx, in.Image.Data, in.Image.ContentType, storage.FolderPlaces)
		if err != nil {
			return nil, uploadFailed(err)
		}
		place.Image = newImage
	}

	place.Title = in.Title
	place.Description = in.Description

	updated, err := repo.Update(ctx, place)
	if err != nil {
		discardImage(ctx, s.storage, s.logger, newImage, opUpdateWriteFailed)
		s.logger.Error(ctx, "place update failed", "place_id", placeID, "error", err)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, persistenceFailed(err)
	}

	return updated, nil
}

// Delete removes the place and unlinks it from its owner in one
// transaction. The image is deleted only after the commit.
func (s *PlaceService) Delete(ctx context.Context, requesterID, placeID string) error {
	place, err := s.repomanager.Places(s.db).GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNotFound
		}
		return persistenceFailed(err)
	}

	if place.OwnerID != requesterID {
		return common.ErrForbidden
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).RemovePlace(ctx, place.OwnerID, place.ID); err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("unlink place from owner: %w", err)
			}
			s.logger.Warn(ctx, "place was not in owner's set", "place_id", place.ID, "owner_id", place.OwnerID)
		}

		if err := s.repomanager.Places(tx).Delete(ctx, place.ID); err != nil {
			return fmt.Errorf("delete place: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "place delete failed", "place_id", placeID, "error", err)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNotFound
		}
		return persistenceFailed(err)
	}

	discardImage(ctx, s.storage, s.logger, place.Image, opDeleteImage)

	s.logger.Info(ctx, "place deleted", "place_id", place.ID, "owner_id", place.OwnerID)
	return nil
}
