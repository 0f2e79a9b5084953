package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/dmitrijs2005/gophplaces/internal/server/services"
)

type messageResponse struct {
	Message string `json:"message"`
}

type locationResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placeResponse struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Address          string           `json:"address"`
	CanonicalAddress string           `json:"canonicalAddress"`
	Location         locationResponse `json:"location"`
	Image            string           `json:"image,omitempty"`
	Creator          string           `json:"creator"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type userResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Image  string   `json:"image,omitempty"`
	Places []string `json:"places"`
}

type authResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func newPlaceResponse(p *models.Place) placeResponse {
	resp := placeResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		Address:          p.Address,
		CanonicalAddress: p.Location.CanonicalAddress,
		Location:         locationResponse{Lat: p.Location.Lat, Lng: p.Location.Lng},
		Creator:          p.OwnerID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Image != nil {
		resp.Image = p.Image.URL
	}
	return resp
}

func newUserResponse(u *models.User) userResponse {
	resp := userResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Places: u.PlaceIDs,
	}
	if resp.Places == nil {
		resp.Places = []string{}
	}
	if u.Image != nil {
		resp.Image = u.Image.URL
	}
	return resp
}

func newAuthResponse(r *services.AuthResult) authResponse {
	return authResponse{UserID: r.UserID, Email: r.Email, Token: r.Token}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
