package gifts

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid       = errors.New("invalid reservation request")
	ErrNotFound      = errors.New("gift not found")
	ErrConflict      = errors.New("gift already reserved or purchased")
	ErrMisconfigured = errors.New("gift sheet is missing a required column")
)

// CapacityError reports a quota request larger than what is left.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("requested %d quotas, only %d remaining", e.Requested, e.Remaining)
}

func (e *CapacityError) Unwrap() error { return ErrInvalid }

// ColumnError names the column a quota reservation needs.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("sheet has no %q column", e.Column)
}

func (e *ColumnError) Unwrap() error { return ErrMisconfigured }

// UserMessage is the Portuguese text shown to guests for a reservation error. It never
// includes internal details.
func UserMessage(err error) string {
	var capErr *CapacityError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &capErr):
		return fmt.Sprintf("Quantidade de cotas indisponível. Máximo disponível: %d", capErr.Remaining)
	case errors.Is(err, ErrInvalid):
		return "Dados incompletos"
	case errors.Is(err, ErrNotFound):
		return "Presente não encontrado"
	case errors.Is(err, ErrConflict):
		return "Presente já está reservado ou comprado"
	case errors.Is(err, ErrMisconfigured):
		return "Planilha sem a coluna CotasReservadas; reserva por cotas indisponível"
	default:
		return "Erro ao reservar presente"
	}
}
