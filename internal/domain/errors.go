package domain

import "fmt"

// ErrNotFound indicates a lookup by id found no matching row.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func NewErrNotFound(entity, id string) error {
	return &ErrNotFound{Entity: entity, ID: id}
}

// ErrValidation indicates malformed caller input; it is the only error
// kind that propagates all the way back to the RPC caller.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func NewErrValidation(field, reason string) error {
	return &ErrValidation{Field: field, Reason: reason}
}

// ErrNotConfigured indicates a provider has no credentials. The channel
// adapters do not construct it: they report "not configured" as a
// literal error string in their uniform result.
type ErrNotConfigured struct {
	Provider string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("%s not configured", e.Provider)
}

func NewErrNotConfigured(provider string) error {
	return &ErrNotConfigured{Provider: provider}
}
