// Package apperr defines the sentinel errors shared across promptdesk layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrReadOnly is returned when a structural edit is attempted while the
	// authoring mode forbids it. State is left unchanged.
	ErrReadOnly = errors.New("document is read-only in the current mode")

	// ErrUnknownParent signals an outline insert under a parent that does not exist.
	ErrUnknownParent = errors.New("unknown parent")

	ErrInvalid = errors.New("invalid argument")
)
