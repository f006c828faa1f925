package accessgrants

import "time"

type Status string

const (
	StatusPending   Status = "pending"   // el owner invitó a alguien
	StatusRequested Status = "requested" // alguien le pidió acceso al owner
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusRevoked   Status = "revoked"
)

// Terminal: desde acá no hay más transiciones.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusRevoked
}

type Scope string

const (
	// ScopeAll cubre todas las mascotas del owner, incluidas las que
	// registre después de creado el grant. Nunca se snapshotean IDs.
	ScopeAll Scope = "all"
	// ScopeSelected cubre un set fijo de pet IDs elegido al crear.
	ScopeSelected Scope = "selected"
)

type AccessLevel string

const (
	LevelViewer AccessLevel = "viewer"
	LevelEditor AccessLevel = "editor"
	LevelAdmin  AccessLevel = "admin"
)

func (l AccessLevel) rank() int {
	switch l {
	case LevelAdmin:
		return 3
	case LevelEditor:
		return 2
	case LevelViewer:
		return 1
	default:
		return 0
	}
}

func (l AccessLevel) Valid() bool { return l.rank() > 0 }

// MoreThan compara niveles por su orden (viewer < editor < admin).
func (l AccessLevel) MoreThan(other AccessLevel) bool { return l.rank() > other.rank() }

// PermissionSet es la unión discriminada scope + nivel.
// Invariante: Scope == selected <=> PetIDs no vacío.
type PermissionSet struct {
	Scope  Scope
	PetIDs []string
	Level  AccessLevel
}

// DefaultPermissions devuelve un valor fresco en cada llamada.
// Constructor puro a propósito: un default global mutable se aliasea
// entre creaciones concurrentes de grants.
func DefaultPermissions() PermissionSet {
	return PermissionSet{Scope: ScopeAll, Level: LevelViewer}
}

// Covers responde si el set alcanza a petID.
func (p PermissionSet) Covers(petID string) bool {
	if p.Scope == ScopeAll {
		return true
	}
	for _, id := range p.PetIDs {
		if id == petID {
			return true
		}
	}
	return false
}

// Grant conecta a un owner con un grantee (cuenta o e-mail pendiente).
// Antes de aceptar, GranteeEmail identifica al invitado (vacío en flujo
// QR-only); después de aceptar, GranteeUserID es la identidad canónica.
type Grant struct {
	ID string

	OwnerUserID   string
	GranteeUserID string
	GranteeEmail  string

	Permissions PermissionSet
	Status      Status

	// ValidUntil nil = sin vencimiento. Se evalúa lazy en cada resolve.
	ValidUntil *time.Time

	// InviteToken habilita aceptar un invite pendiente por QR.
	// Es independiente de los tokens de links públicos.
	InviteToken string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
