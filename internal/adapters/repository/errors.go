package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound      = errors.New("subject record not found")
	ErrAlreadyExists = errors.New("subject record already exists")
	ErrStorage       = errors.New("record store failure")
)
