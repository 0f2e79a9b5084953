package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/dmitrijs2005/gophplaces/internal/server/metrics"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
)

func persistenceFailed(err error) error {
	return fmt.Errorf("%w: %v", common.ErrPersistenceFailed, err)
}

// uploadFailed keeps storage errors inside the taxonomy even when the
// adapter returned something unclassified.
func uploadFailed(err error) error {
	if errors.Is(err, common.ErrUploadFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
}

// geocodingFailed does the same for the geocoder.
func geocodingFailed(err error) error {
	if errors.Is(err, common.ErrLocationNotFound) || errors.Is(err, common.ErrExternalServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrExternalServiceUnavailable, err)
}

// discardImage deletes img from storage, best-effort. A failure is logged
// and counted but never returned. It runs detached from ctx cancellation so
// that an aborted request still gets its cleanup.
func discardImage(ctx context.Context, storage ObjectStorage, logger logging.Logger, img *models.Image, operation string) {
	if img == nil || img.Key == "" {
		return
	}

	if err := storage.Delete(context.WithoutCancel(ctx), img.Key); err != nil {
		logger.Error(ctx, "image delete failed, object orphaned",
			"object_key", img.Key, "operation", operation, "error", err)
		metrics.RecordOrphanedObject(operation)
	}
}
