package service

import "errors"

// Validation errors, rejected before any mutation is applied
var (
	ErrRegistrationRequired  = errors.New("registration number is required")
	ErrDuplicateRegistration = errors.New("a vehicle with this registration already exists")
	ErrUnknownDocumentKind   = errors.New("unknown document kind")
	ErrCustomNameRequired    = errors.New("custom type name is required for other documents")
	ErrInvalidDate           = errors.New("date must be a YYYY-MM-DD calendar date")
	ErrVehicleNotFound       = errors.New("vehicle not found")
)

// ErrSearchUnavailable is returned when the audit search index is not configured
var ErrSearchUnavailable = errors.New("audit search index is not configured")
