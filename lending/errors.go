package lending

import (
	"errors"
	"fmt"
	"strings"

	"material_lending/models"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindEmptyCart         Kind = "empty_cart"
	KindInsufficientStock Kind = "insufficient_stock"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_state_transition"
)

// Error is a domain failure. Entity/EntityID name the offending record so callers
// can build messages without parsing Message.
type Error struct {
	Kind     Kind
	Entity   string
	EntityID uint
	Message  string
}

func (e *Error) Error() string {
	if e.Entity != "" && e.EntityID != 0 {
		return fmt.Sprintf("%s: %s %d: %s", e.Kind, e.Entity, e.EntityID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart, Message: "cart is empty"}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock, Message: "insufficient stock"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid state transition"}
)

func NewValidationError(entity string, id uint, msg string) error {
	return &Error{Kind: KindValidation, Entity: entity, EntityID: id, Message: msg}
}

func NewNotFoundError(entity string, id uint) error {
	return &Error{Kind: KindNotFound, Entity: entity, EntityID: id, Message: entity + " not found"}
}

func NewEmptyCartError(requestID uint) error {
	return &Error{Kind: KindEmptyCart, Entity: "request", EntityID: requestID, Message: "cart is empty"}
}

func NewInsufficientStockError(m *models.Material, requested, available int) error {
	return &Error{
		Kind:     KindInsufficientStock,
		Entity:   "material",
		EntityID: m.ID,
		Message:  fmt.Sprintf("insufficient stock for material %q: requested %d, available %d", m.Name, requested, available),
	}
}

func NewForbiddenError(userID uint, msg string) error {
	return &Error{Kind: KindForbidden, Entity: "user", EntityID: userID, Message: msg}
}

// TransitionError reports an operation attempted from the wrong status.
type TransitionError struct {
	RequestID uint
	Operation Operation
	Expected  []models.Status
	Actual    models.Status
}

func (e *TransitionError) Error() string {
	exp := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		exp = append(exp, string(s))
	}
	return fmt.Sprintf("%s: request %d: %s requires status %s, got %s",
		KindInvalidTransition, e.RequestID, e.Operation, strings.Join(exp, " or "), e.Actual)
}

func (e *TransitionError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindInvalidTransition
}

// KindOf returns the domain kind of err, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var te *TransitionError
	if errors.As(err, &te) {
		return KindInvalidTransition
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
