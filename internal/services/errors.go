package services

import "errors"

// Results service errors
var (
	// Dataset errors
	ErrNoStudents       = errors.New("no students in dataset")
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// Lookup errors
	ErrStudentNotFound = errors.New("student not found")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
