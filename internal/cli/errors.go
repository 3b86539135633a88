package cli

import (
	"errors"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/parser"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Project errors
	ErrProjectNotFound = "PROJECT_NOT_FOUND"
	ErrConfigInvalid   = "CONFIG_INVALID"

	// Canonical source errors
	ErrCanonicalNotFound = "CANONICAL_NOT_FOUND"
	ErrParseFailed       = "PARSE_FAILED"

	// Mutation errors
	ErrMutationRejected = "MUTATION_REJECTED"
	ErrEntityNotFound   = "ENTITY_NOT_FOUND"

	// Reconciliation errors
	ErrReconcilePartial     = "RECONCILE_PARTIAL"
	ErrConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrValidationFailed     = "VALIDATION_FAILED"

	// Index errors
	ErrIndexDisabled = "INDEX_DISABLED"
	ErrDatabaseError = "DATABASE_ERROR"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrFileReadError   = "FILE_READ_ERROR"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnSkippedLines     = "SKIPPED_LINES"
	WarnDuplicateNumbers = "DUPLICATE_NUMBERS"
	WarnDescriptorDrift  = "DESCRIPTOR_DRIFT"
	WarnOrphanedMappings = "ORPHANED_MAPPINGS"
)

// classifyError maps a service error to an error code and a suggestion.
func classifyError(err error) (code, suggestion string) {
	var stateErr *mutate.StateError
	switch {
	case errors.Is(err, canon.ErrNotFound):
		return ErrCanonicalNotFound, "Run 'arb init' or set canonical_path in arbor.yaml"
	case errors.Is(err, parser.ErrInvalidEncoding):
		return ErrParseFailed, "Save the canonical file as UTF-8"
	case errors.Is(err, reconcile.ErrConfirmationRequired):
		return ErrConfirmationRequired, "Re-run with --confirm to wipe and regenerate"
	case errors.Is(err, mutate.ErrEntityNotFound):
		return ErrEntityNotFound, "Run 'arb analyze' to list entities"
	case mutate.IsRejected(err):
		return ErrMutationRejected, "Run 'arb analyze' to see taken numbers and domains"
	case errors.Is(err, arch.ErrIndexDisabled):
		return ErrIndexDisabled, "Set index: true in arbor.yaml"
	case errors.As(err, &stateErr) && stateErr.Written():
		return ErrReconcilePartial, "The tree was updated; run 'arb generate' to finish"
	default:
		return ErrInternal, ""
	}
}

// handleServiceError reports err with its classified code.
func handleServiceError(err error) error {
	code, suggestion := classifyError(err)
	return handleError(code, err, suggestion)
}
