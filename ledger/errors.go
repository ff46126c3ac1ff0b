/*
errors.go - Centralized error types for the stock engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations and the API layer wrap these with context.

ERROR CATEGORIES:
  1. Lookup errors - Unknown SKUs
  2. Stock errors - Overselling attempts, advisory out-of-stock
  3. Concurrency errors - Races detected at apply time
  4. Validation errors - Malformed lines and items

USAGE:
  Callers branch with errors.Is / errors.As:

    var rejected *ledger.RejectedLinesError
    if errors.As(err, &rejected) {
        // surface every offending line at once
    }

SEE ALSO:
  - applier.go: Produces RejectedLinesError
  - catalog.go: Store implementations return the sentinels
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSKUNotFound is returned when a SKU is unknown to the catalog.
	// SKUs are never auto-created by the ledger.
	ErrSKUNotFound = errors.New("sku not found")

	// ErrDuplicateSKU is returned when creating an item whose SKU
	// already exists.
	ErrDuplicateSKU = errors.New("sku already exists")

	// ErrOutOfStock is the advisory rejection at cart-add time when the
	// catalog quantity is zero. The authoritative check happens again
	// at apply time.
	ErrOutOfStock = errors.New("item out of stock")

	// ErrInsufficientStock is the authoritative rejection at apply time:
	// one or more lines would take an item below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrentModification is returned when a competing writer
	// changed a quantity between validation and mutation. Retryable by
	// resubmitting the whole transaction.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrValidation covers malformed input: non-positive quantities,
	// missing SKUs, empty transactions.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports one line that exceeds available stock.
type InsufficientStockError struct {
	SKU       string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %s, available %s",
		e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// RejectedLine describes why one transaction line failed validation.
type RejectedLine struct {
	SKU       string
	Requested decimal.Decimal
	Available decimal.Decimal
	Reason    error // ErrSKUNotFound or ErrInsufficientStock
}

// RejectedLinesError carries the complete set of offending lines so the
// caller can report all problems at once rather than one at a time.
// The transaction it belongs to was not applied at all.
type RejectedLinesError struct {
	Kind  TransactionKind
	Lines []RejectedLine
}

func (e *RejectedLinesError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		if errors.Is(l.Reason, ErrSKUNotFound) {
			parts[i] = fmt.Sprintf("%s: unknown sku", l.SKU)
			continue
		}
		parts[i] = fmt.Sprintf("%s: requested %s, available %s", l.SKU, l.Requested, l.Available)
	}
	return fmt.Sprintf("%s rejected: %s", e.Kind, strings.Join(parts, "; "))
}

// Unwrap reports the dominant failure: unknown SKUs win over shortages
// because they are not fixable by editing quantities.
func (e *RejectedLinesError) Unwrap() error {
	for _, l := range e.Lines {
		if errors.Is(l.Reason, ErrSKUNotFound) {
			return ErrSKUNotFound
		}
	}
	return ErrInsufficientStock
}

// ValidationError reports malformed transaction input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if resubmitting the same transaction might
// succeed without edits.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to the caller's input
// or cart contents rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateSKU)
}

// IsNotFound returns true if the error indicates a missing SKU.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSKUNotFound)
}
