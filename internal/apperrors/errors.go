package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found,
// or that it exists but does not belong to the caller.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller is authenticated but not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the operation cannot proceed in the resource's current state,
// e.g. a sync job is already running for the user.
var ErrConflict = errors.New("conflict")

// ErrInternal indicates an unexpected failure that should surface as a 500.
var ErrInternal = errors.New("internal error")
