// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common errors that services can return.
var (
	// ErrTrackNotFound is returned when a track ID is not in the catalog.
	ErrTrackNotFound = errors.New("track not found")

	// ErrPlaylistNotFound is returned when a playlist ID does not exist for the user.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrInvalidIndex is returned when a play order cursor is out of bounds.
	ErrInvalidIndex = errors.New("invalid play order index")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to a negative position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrNoTrackLoaded is returned when a device command needs a current track.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrFeatureDisabled is returned when a gated player feature is switched off.
	ErrFeatureDisabled = errors.New("feature disabled")

	// ErrEmptyName is returned when a required name is blank.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrDeviceClosed is returned when a closed playback device is commanded.
	ErrDeviceClosed = errors.New("playback device closed")

	// ErrUnauthenticated is returned when no user identity can be established.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// DeviceError represents a failed playback device command.
// Device errors are reported, never allowed to change player state.
type DeviceError struct {
	Op  string // Command that failed (e.g., "set_source", "play", "seek")
	URL string // Source URL (if applicable)
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("device %s failed for '%s': %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("device %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError creates a new DeviceError.
func NewDeviceError(op, url string, err error) *DeviceError {
	return &DeviceError{Op: op, URL: url, Err: err}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Key     string // Storage key involved
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s %q failed: %s", e.Op, e.Key, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, key, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "LibraryService", "CollectionService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTrackNotFound) || errors.Is(err, ErrPlaylistNotFound)
}

// IsInvalid reports whether err signals bad caller input.
func IsInvalid(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidIndex) ||
		errors.Is(err, ErrInvalidVolume) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrFeatureDisabled)
}
