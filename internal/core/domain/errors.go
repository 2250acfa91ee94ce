package domain

import (
	"errors"
	"fmt"
)

// Credential and account errors. Messages are surfaced to clients verbatim.
var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrEmailTaken         = errors.New("Email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrUpdateForbidden    = errors.New("You can only update your own profile")
	ErrDeleteForbidden    = errors.New("You can only delete your own account unless you are an admin")
	ErrViewForbidden      = errors.New("You can only view your own profile unless you are an admin")
	ErrTooManyAttempts    = errors.New("Too many attempts, please try again later")
)

// Guard errors.
var (
	ErrInvalidToken  = errors.New("Invalid token")
	ErrTokenRequired = errors.New("Please provide a valid token")
	ErrAccessDenied  = errors.New("Access denied")
	ErrAdminOnly     = errors.New("Only administrators can access this resource")
)

// Token decode failure classes. ErrMalformedToken covers parse and signature
// failures; ErrTokenUndecodable covers everything else.
var (
	ErrMalformedToken   = errors.New("malformed token or invalid signature")
	ErrTokenUndecodable = errors.New("token could not be decoded")
)

// Telemetry errors.
var (
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrTelemetryDisabled  = errors.New("telemetry store is not configured")
)

// NotFoundError reports an unknown user id. It matches ErrUserNotFound.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("User with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}
