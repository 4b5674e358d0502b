package custody

import (
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

// AvailabilityStatus mirrors the status_disponibilidade SQL enum.
type AvailabilityStatus string

const (
	Available   AvailabilityStatus = "DISPONIVEL"
	InUse       AvailabilityStatus = "EM_USO"
	Maintenance AvailabilityStatus = "MANUTENCAO"
	Lost        AvailabilityStatus = "PERDIDO"
)

// Valid reports whether s is a known availability status.
func (s AvailabilityStatus) Valid() bool {
	switch s {
	case Available, InUse, Maintenance, Lost:
		return true
	}
	return false
}

// ParseAvailabilityStatus converts v into an AvailabilityStatus.
func ParseAvailabilityStatus(v string) (AvailabilityStatus, error) {
	s := AvailabilityStatus(v)
	if !s.Valid() {
		return "", errors.Wrapf(cautela.ErrInvalidRecord, "unknown availability status %q", v)
	}
	return s, nil
}

// CheckoutStatus mirrors the status_cautela SQL enum.
type CheckoutStatus string

const (
	CheckoutOpen      CheckoutStatus = "ABERTA"
	CheckoutFinished  CheckoutStatus = "FINALIZADA"
	CheckoutOverdue   CheckoutStatus = "ATRASADA"
	CheckoutCancelled CheckoutStatus = "CANCELADA"
)

// Valid reports whether s is a known checkout status.
func (s CheckoutStatus) Valid() bool {
	switch s {
	case CheckoutOpen, CheckoutFinished, CheckoutOverdue, CheckoutCancelled:
		return true
	}
	return false
}

// ParseCheckoutStatus converts v into a CheckoutStatus.
func ParseCheckoutStatus(v string) (CheckoutStatus, error) {
	s := CheckoutStatus(v)
	if !s.Valid() {
		return "", errors.Wrapf(cautela.ErrInvalidRecord, "unknown checkout status %q", v)
	}
	return s, nil
}

// ConservationState mirrors the estado_conservacao SQL enum.
type ConservationState string

const (
	New         ConservationState = "NOVO"
	Good        ConservationState = "BOM"
	Fair        ConservationState = "REGULAR"
	Poor        ConservationState = "RUIM"
	Inoperative ConservationState = "INOPERAVEL"
)

// Valid reports whether s is a known conservation state.
func (s ConservationState) Valid() bool {
	switch s {
	case New, Good, Fair, Poor, Inoperative:
		return true
	}
	return false
}

// ParseConservationState converts v into a ConservationState.
func ParseConservationState(v string) (ConservationState, error) {
	s := ConservationState(v)
	if !s.Valid() {
		return "", errors.Wrapf(cautela.ErrInvalidRecord, "unknown conservation state %q", v)
	}
	return s, nil
}
