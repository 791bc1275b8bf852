// Package validation provides common validation utilities for configuration
// parameters across the reqstream library.
//
// Every helper returns a *errors.ValidationError so that callers can match
// failures with errors.Is(err, errors.ErrInvalidConfiguration).
package validation
