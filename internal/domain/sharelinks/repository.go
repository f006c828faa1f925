package sharelinks

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l ShareLink) error

	// GetByToken devuelve ErrNotFound (via errors.Is) cuando el token no
	// existe. Cualquier otro error es falla del store, no ausencia.
	GetByToken(ctx context.Context, token string) (ShareLink, error)

	// SetActive togglea is_active. Idempotente por naturaleza: setear el
	// mismo valor dos veces no es error.
	SetActive(ctx context.Context, token string, active bool, updatedAt time.Time) error

	ListByOwner(ctx context.Context, ownerUserID string) ([]ShareLink, error)
	ListByPet(ctx context.Context, petID string) ([]ShareLink, error)
}
