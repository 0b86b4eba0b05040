package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidFilter is returned for a listing filter the store cannot apply.
	ErrInvalidFilter = errors.New("invalid filter")
)
