package app

import (
	"errors"

	"blogd/internal/policy"
	"blogd/internal/store"
)

var (
	// ErrNotFound is returned when a requested entity does not exist. It
	// aliases the store sentinel so either layer matches with errors.Is.
	ErrNotFound = store.ErrNotFound

	// ErrForbidden is returned when the actor lacks permission for the
	// action. It aliases the policy sentinel.
	ErrForbidden = policy.ErrForbidden

	// ErrValidation is returned for malformed input to a create or update
	// operation. The wrapped message is safe to show to the caller.
	ErrValidation = errors.New("validation failed")

	// ErrUnableToCreate, ErrUnableToUpdate and ErrUnableToDelete are
	// returned when a persistence operation fails for a reason opaque to
	// the caller, such as a constraint violation.
	ErrUnableToCreate = errors.New("unable to create")
	ErrUnableToUpdate = errors.New("unable to update")
	ErrUnableToDelete = errors.New("unable to delete")
)
