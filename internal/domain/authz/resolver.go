package authz

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-sharing/internal/domain/accessgrants"
	"pet-sharing/internal/domain/expiry"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPetNotFound  = errors.New("pet not found")
)

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	// ActionManage: crear/revocar grants y links de la mascota.
	ActionManage Action = "manage"
)

// Identity es el actor que pide acceso (derivado de la sesión).
type Identity struct {
	UserID string
	Email  string
}

// Decision: allowed + nivel efectivo. Level queda seteado aunque la
// acción pedida exceda el nivel (la UI lo usa para degradar botones).
type Decision struct {
	Allowed bool
	Level   accessgrants.AccessLevel
}

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// GrantSource enumera grants donde una identidad es grantee.
type GrantSource interface {
	ListByGrantee(ctx context.Context, granteeUserID, granteeEmail string) ([]accessgrants.Grant, error)
}

// Resolver decide acceso por mascota. Relee el estado en cada llamada:
// no hay cache de grants porque pueden revocarse o vencer entre requests.
type Resolver struct {
	pets   PetOwnerLookup
	grants GrantSource
	now    func() time.Time
}

func NewResolver(pets PetOwnerLookup, grants GrantSource) *Resolver {
	return &Resolver{
		pets:   pets,
		grants: grants,
		now:    time.Now,
	}
}

// Resolve aplica, en orden:
//  1. owner de la mascota => admin, sin mirar grants
//  2. grants accepted del owner hacia el actor (solo por grantee_user_id;
//     el e-mail deja de ser confiable después de aceptar)
//  3. descarta vencidos (lazy, contra now)
//  4. descarta selected que no cubren la mascota
//  5. entre los que quedan gana el nivel más permisivo
func (r *Resolver) Resolve(ctx context.Context, actor Identity, petID string, action Action) (Decision, error) {
	actor.UserID = strings.TrimSpace(actor.UserID)
	petID = strings.TrimSpace(petID)
	if petID == "" || action == "" {
		return Decision{}, ErrInvalidInput
	}

	// Una mascota borrada/transferida simplemente no resuelve: los IDs
	// stale en grants selected nunca vuelven a matchear.
	ownerID, err := r.pets.OwnerOf(ctx, petID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		return Decision{}, ErrPetNotFound
	}

	if actor.UserID != "" && actor.UserID == ownerID {
		return Decision{Allowed: true, Level: accessgrants.LevelAdmin}, nil
	}

	grants, err := r.grants.ListByGrantee(ctx, actor.UserID, normalizeEmail(actor.Email))
	if err != nil {
		return Decision{}, err
	}

	now := r.now()
	var best accessgrants.AccessLevel

	for _, g := range grants {
		if g.Status != accessgrants.StatusAccepted {
			continue
		}
		if g.OwnerUserID != ownerID {
			continue
		}
		if actor.UserID == "" || g.GranteeUserID != actor.UserID {
			continue
		}
		if expiry.IsExpired(g.ValidUntil, now) {
			continue
		}
		if !g.Permissions.Covers(petID) {
			continue
		}
		// Varios grants solapados no se niegan en silencio: gana el
		// más generoso que aplique.
		if g.Permissions.Level.MoreThan(best) {
			best = g.Permissions.Level
		}
	}

	if best == "" {
		return Decision{}, nil
	}
	return Decision{Allowed: levelAllows(best, action), Level: best}, nil
}

func levelAllows(level accessgrants.AccessLevel, action Action) bool {
	switch action {
	case ActionRead:
		return true
	case ActionWrite:
		return level == accessgrants.LevelEditor || level == accessgrants.LevelAdmin
	case ActionDelete, ActionManage:
		return level == accessgrants.LevelAdmin
	default:
		return false
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
