// Package models defines server-side data models persisted in the database.
package models

import "time"

// Place is a titled, geocoded location owned by exactly one user.
type Place struct {
	ID          string
	Title       string
	Description string
	// Address is the free text submitted by the user.
	Address string
	// Location is what geocoding resolved Address to.
	Location Location
	Image    *Image
	OwnerID  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is a geocoding result.
type Location struct {
	Lat              float64
	Lng              float64
	CanonicalAddress string
}

// Image is a handle to an object in remote storage.
type Image struct {
	// Key is the object-storage key, used to delete the object.
	Key string
	// URL is the public URL the object is served from.
	URL string
}

// ImageUpload is an image received from a client, not yet stored.
type ImageUpload struct {
	Data        []byte
	ContentType string
}
