package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrScopeViolation indicates the actor may not touch the entity's shop or business.
	ErrScopeViolation = errors.New("entity out of caller scope")
)
