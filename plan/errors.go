/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All error types in one place. Store implementations return the sentinel
  errors; the propagate package and the API layer classify them with the
  helpers below.

TAXONOMY (per the error handling contract):
  - ErrRuleSetNotFound: the whole operation aborts before any customer
    mutation; surfaced as a warning, not a partial failure.
  - ErrPlanNotFound: during bulk propagation the customer is skipped,
    never created. Plan creation belongs to the "view my plan" path only.
  - WriteError: a chunk commit failed. Earlier chunks stand; the operator
    re-runs the operation, which is safe because merges are idempotent.
  - An empty customer selection is a no-op success with a notice, not an
    error, so it has no type here.
*/
package plan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRuleSetNotFound is returned when no rule-set document exists for
	// a package key.
	ErrRuleSetNotFound = errors.New("rule set not found")

	// ErrRuleNotFound is returned when a rule id is unknown within its
	// rule set.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrPlanNotFound is returned when a customer has no plan document yet.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrCustomerNotFound is returned when a customer id is unknown.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrTaskNotFound is returned when a task id is not present on a plan.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCustomerNotEligible is returned when the plan view path is asked
	// to materialize a plan for a non-paid or inactive customer.
	ErrCustomerNotEligible = errors.New("customer not eligible for a plan")

	// ErrInvalidRule is the sentinel wrapped by RuleValidationError.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrWriteFailed is the sentinel wrapped by WriteError.
	ErrWriteFailed = errors.New("batch write failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleValidationError reports a rule rejected at write time.
type RuleValidationError struct {
	Field  string
	Reason string
}

func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("invalid rule: %s %s", e.Field, e.Reason)
}

func (e *RuleValidationError) Unwrap() error { return ErrInvalidRule }

// WriteError reports a failed chunk commit. Chunk is the zero-based index
// of the failing chunk; chunks before it were already committed and are
// not rolled back.
type WriteError struct {
	Chunk int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("batch write failed at chunk %d: %v", e.Chunk, e.Err)
}

func (e *WriteError) Unwrap() error { return ErrWriteFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true when the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleSetNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}

// IsClientError returns true when the error is due to invalid input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrCustomerNotEligible)
}
