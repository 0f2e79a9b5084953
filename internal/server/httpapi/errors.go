package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/logging"
)

var errRouteNotFound = errors.New("could not find this route")

// statusFor maps the error taxonomy to an HTTP status and the message shown
// to the client. Unclassified errors become a 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidationFailed):
		return http.StatusUnprocessableEntity, common.ErrValidationFailed.Error()
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusUnprocessableEntity, common.ErrEmailTaken.Error()
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, common.ErrUnauthenticated.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, common.ErrForbidden.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, common.ErrNotFound.Error()
	case errors.Is(err, common.ErrUserHasNoPlaces):
		return http.StatusNotFound, common.ErrUserHasNoPlaces.Error()
	case errors.Is(err, common.ErrOwnerNotFound):
		return http.StatusNotFound, common.ErrOwnerNotFound.Error()
	case errors.Is(err, common.ErrLocationNotFound):
		return http.StatusNotFound, common.ErrLocationNotFound.Error()
	case errors.Is(err, errRouteNotFound):
		return http.StatusNotFound, errRouteNotFound.Error()
	case errors.Is(err, common.ErrExternalServiceUnavailable):
		return http.StatusInternalServerError, common.ErrExternalServiceUnavailable.Error()
	case errors.Is(err, common.ErrUploadFailed):
		return http.StatusInternalServerError, common.ErrUploadFailed.Error()
	case errors.Is(err, common.ErrPersistenceFailed):
		return http.StatusInternalServerError, common.ErrPersistenceFailed.Error()
	default:
		return http.StatusInternalServerError, common.ErrPersistenceFailed.Error()
	}
}

// writeError renders err as {"message": ...}. Server-side failures are
// logged with the full cause, which never reaches the client.
func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "error", err)
	}
	writeJSON(w, code, messageResponse{Message: message})
}
