package models

import "time"

// User owns zero or more places. PlaceIDs is the owner's place-id set and
// always equals the ids of the places whose OwnerID is this user.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Image        *Image
	PlaceIDs     []string
	CreatedAt    time.Time
}
