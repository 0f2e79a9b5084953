package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/dmitrijs2005/gophplaces/internal/server/auth"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/dmitrijs2005/gophplaces/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// PlaceService is the part of services.PlaceService the handlers use.
type PlaceService interface {
	GetByID(ctx context.Context, id string) (*models.Place, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Place, error)
	Create(ctx context.Context, ownerID string, in services.CreatePlaceInput) (*models.Place, error)
	Update(ctx context.Context, requesterID, placeID string, in services.UpdatePlaceInput) (*models.Place, error)
	Delete(ctx context.Context, requesterID, placeID string) error
}

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	List(ctx context.Context) ([]*models.User, error)
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

type handlers struct {
	places PlaceService
	users  UserService
	binder *binder
	logger logging.Logger
}

type createPlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"min=5"`
	Address     string `json:"address" validate:"required"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"min=5"`
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), w, h.logger, err)
}

func (h *handlers) getPlace(w http.ResponseWriter, r *http.Request) {
	place, err := h.places.GetByID(r.Context(), chi.URLParam(r, "pid"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"place": newPlaceResponse(place)})
}

func (h *handlers) listUserPlaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.places.ListByUser(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]placeResponse, 0, len(list))
	for _, p := range list {
		out = append(out, newPlaceResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": out})
}

func (h *handlers) createPlace(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, r, common.ErrUnauthenticated)
		return
	}

	var req createPlaceRequest
	image, err := h.binder.bind(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	place, err := h.places.Create(r.Context(), identity.UserID, services.CreatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Image:       image,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"place": newPlaceResponse(place)})
}

func (h *handlers) updatePlace(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, r, common.ErrUnauthenticated)
		return
	}

	var req updatePlaceRequest
	image, err := h.binder.bind(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	place, err := h.places.Update(r.Context(), identity.UserID, chi.URLParam(r, "pid"), services.UpdatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Image:       image,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"place": newPlaceResponse(place)})
}

func (h *handlers) deletePlace(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, r, common.ErrUnauthenticated)
		return
	}

	if err := h.places.Delete(r.Context(), identity.UserID, chi.URLParam(r, "pid")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted place."})
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, newUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	image, err := h.binder.bind(w, r, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.users.Signup(r.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Image:    image,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAuthResponse(res))
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if _, err := h.binder.bind(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(res))
}
