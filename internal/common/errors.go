// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Caller input.
	ErrValidationFailed = errors.New("invalid inputs passed, please check your data")

	// Auth errors.
	ErrUnauthenticated    = errors.New("authentication failed")
	ErrForbidden          = errors.New("you are not allowed to modify this place")
	ErrInvalidCredentials = errors.New("invalid credentials, could not log you in")
	ErrEmailTaken         = errors.New("user already exists, please login instead")

	// Lookup errors.
	ErrNotFound         = errors.New("could not find a place for the provided id")
	ErrUserHasNoPlaces  = errors.New("could not find places for the provided user id")
	ErrOwnerNotFound    = errors.New("could not find user for the provided id")
	ErrLocationNotFound = errors.New("no location found for the given address")

	// External collaborators.
	ErrExternalServiceUnavailable = errors.New("could not fetch location, please try again later")
	ErrUploadFailed               = errors.New("uploading image failed, please try again later")
	ErrPersistenceFailed          = errors.New("something went wrong, please try again later")

	ErrInternal = errors.New("internal error")
)
