package accessgrants

import "context"

type Repository interface {
	Create(ctx context.Context, g Grant) error

	// UpdateIfStatus persiste g solo si el status guardado todavía es
	// expected (compare-and-swap). Dos tabs aceptando el mismo invite:
	// exactamente una gana; la otra recibe ErrBadState.
	UpdateIfStatus(ctx context.Context, g Grant, expected Status) error

	// Delete borra el row (remove/cancel explícito). Idempotente:
	// borrar algo inexistente devuelve ErrNotFound y el caller decide.
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (Grant, error)

	// GetByInviteToken devuelve ErrNotFound (via errors.Is) cuando ningún
	// grant tiene ese token. Cualquier otro error es falla del store.
	GetByInviteToken(ctx context.Context, token string) (Grant, error)

	ListByOwner(ctx context.Context, ownerUserID string) ([]Grant, error)

	// ListByGrantee matchea por grantee_user_id o, para invites todavía
	// sin grantee atado, por e-mail case-insensitive. Después del accept
	// la identidad canónica es el user id: el e-mail deja de matchear.
	ListByGrantee(ctx context.Context, granteeUserID, granteeEmail string) ([]Grant, error)
}
