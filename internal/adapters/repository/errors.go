package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrNotFound = errors.New("run not found")
	ErrExists   = errors.New("run already exists")
)
