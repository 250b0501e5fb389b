package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds. The text of each is the generic user-facing message.
var (
	ErrUnauthorized = errors.New("Trebuie să fiți autentificat pentru această acțiune")
	ErrForbidden    = errors.New("Nu aveți permisiunea necesară pentru această acțiune")
	ErrNotFound     = errors.New("Resursa solicitată nu a fost găsită")
	ErrValidation   = errors.New("Datele trimise nu sunt valide")
	ErrEmptyCart    = errors.New("Coșul de cumpărături este gol")
)

// DomainError pairs an error kind with a specific user-facing message.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Kind }

func forbidden(msg string) error { return &DomainError{Kind: ErrForbidden, Message: msg} }

func notFound(msg string) error { return &DomainError{Kind: ErrNotFound, Message: msg} }

func invalid(msg string) error { return &DomainError{Kind: ErrValidation, Message: msg} }

// InsufficientStockError names the product a checkout could not reserve.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stoc insuficient pentru %s: solicitat %d, disponibil %d", e.ProductName, e.Requested, e.Available)
}
