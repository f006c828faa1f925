package accessgrants

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-sharing/internal/domain/audit"
	"pet-sharing/internal/domain/expiry"
	"pet-sharing/internal/platform/securetoken"
	"pet-sharing/internal/ports/identity"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	// ErrBadState: precondición de la máquina de estados no se cumple.
	// Incluye perder el compare-and-swap contra otra transición concurrente;
	// el caller lo trata como fallo idempotente, no como error fatal.
	ErrBadState = errors.New("invalid transition")
	ErrExpired  = errors.New("expired")
)

// maxTokenAttempts acota el reintento del check de unicidad de invite
// tokens. Protege contra un repo roto, no contra la probabilidad.
const maxTokenAttempts = 5

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// Trail registra eventos de acceso. Opcional y best-effort: una falla de
// auditoría nunca corta una transición.
type Trail interface {
	Record(ctx context.Context, in audit.RecordInput) (audit.AccessEvent, error)
}

// Actor es quien ejecuta la transición (derivado de la sesión).
type Actor struct {
	UserID string
	Email  string
}

type Service struct {
	repo Repository
	pets PetOwnerLookup

	// Directory resuelve e-mail cuando los claims no lo traen (matcheo de
	// invites pendientes). nil = solo claims.
	Directory identity.Directory
	// Trail opcional (nil = sin auditoría).
	Trail Trail

	tokenBytes int
	now        func() time.Time
	newToken   func(int) (string, error)
}

func NewService(repo Repository, pets PetOwnerLookup) *Service {
	return &Service{
		repo:       repo,
		pets:       pets,
		tokenBytes: securetoken.DefaultBytes,
		now:        time.Now,
		newToken:   securetoken.New,
	}
}

// SetTokenBytes ajusta la entropía de invite tokens por config. Valores
// por debajo del mínimo los corrige securetoken.New.
func (s *Service) SetTokenBytes(n int) {
	if n > 0 {
		s.tokenBytes = n
	}
}

// uniqueInviteToken genera y verifica contra tokens vivos antes de usar.
func (s *Service) uniqueInviteToken(ctx context.Context) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		token, err := s.newToken(s.tokenBytes)
		if err != nil {
			return "", err
		}
		_, err = s.repo.GetByInviteToken(ctx, token)
		if errors.Is(err, ErrNotFound) {
			return token, nil
		}
		if err != nil {
			// Un store caído no vale como "token libre".
			return "", err
		}
	}
	return "", errors.New("accessgrants: could not generate unique invite token")
}

type InviteInput struct {
	GranteeEmail string
	Permissions  PermissionSet
	Expires      expiry.Spec
	// QR pide un invite_token para aceptar fuera de banda. Si además no
	// hay e-mail, el invite es QR-only: cualquiera con el token acepta.
	QR bool
}

// CreateInvite crea un grant pending direccionado por e-mail y/o QR.
func (s *Service) CreateInvite(ctx context.Context, ownerUserID string, in InviteInput) (Grant, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	email := normalizeEmail(in.GranteeEmail)
	if email == "" && !in.QR {
		// Sin e-mail ni QR no hay forma de entregar el invite.
		return Grant{}, ErrInvalidInput
	}

	perms, err := s.normalizePermissions(ctx, ownerUserID, in.Permissions)
	if err != nil {
		return Grant{}, err
	}

	now := s.now()
	validUntil, err := in.Expires.Compute(now)
	if err != nil {
		return Grant{}, ErrInvalidInput
	}

	var inviteToken string
	if in.QR {
		inviteToken, err = s.uniqueInviteToken(ctx)
		if err != nil {
			return Grant{}, err
		}
	}

	g := Grant{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		GranteeEmail: email,
		Permissions:  perms,
		Status:       StatusPending,
		ValidUntil:   validUntil,
		InviteToken:  inviteToken,
		CreatedBy:    ownerUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: g.OwnerUserID,
		Type:        audit.EventGrantInvited,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: ownerUserID},
		GrantID:     g.ID,
		Detail:      email,
	})
	return g, nil
}

type RequestInput struct {
	Permissions PermissionSet
	Expires     expiry.Spec
}

// CreateRequest es el flujo simétrico: un no-owner pide acceso.
// Solo el owner podrá aprobarlo (ver Accept).
func (s *Service) CreateRequest(ctx context.Context, requesterUserID, ownerUserID string, in RequestInput) (Grant, error) {
	requesterUserID = strings.TrimSpace(requesterUserID)
	ownerUserID = strings.TrimSpace(ownerUserID)
	if requesterUserID == "" || ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}
	if requesterUserID == ownerUserID {
		return Grant{}, ErrInvalidInput
	}

	perms, err := s.normalizePermissions(ctx, ownerUserID, in.Permissions)
	if err != nil {
		return Grant{}, err
	}

	now := s.now()
	validUntil, err := in.Expires.Compute(now)
	if err != nil {
		return Grant{}, ErrInvalidInput
	}

	g := Grant{
		ID:            uuid.NewString(),
		OwnerUserID:   ownerUserID,
		GranteeUserID: requesterUserID,
		Permissions:   perms,
		Status:        StatusRequested,
		ValidUntil:    validUntil,
		CreatedBy:     requesterUserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: g.OwnerUserID,
		Type:        audit.EventGrantRequested,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: requesterUserID},
		GrantID:     g.ID,
	})
	return g, nil
}

// Accept:
// - pending: solo la identidad invitada (match por e-mail).
// - requested: solo el owner aprueba.
// La asimetría es deliberada: un requester no se auto-aprueba y un
// invitado no aprueba invites ajenos.
func (s *Service) Accept(ctx context.Context, grantID string, actor Actor) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	actor.UserID = strings.TrimSpace(actor.UserID)
	if grantID == "" || actor.UserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	switch g.Status {
	case StatusAccepted:
		// Doble accept del mismo grantee: no-op (doble tap de UI).
		if g.GranteeUserID == actor.UserID {
			return g, nil
		}
		return Grant{}, ErrBadState

	case StatusPending:
		if !s.isInvitee(ctx, g, actor) {
			return Grant{}, ErrForbidden
		}
		return s.acceptFrom(ctx, g, StatusPending, actor)

	case StatusRequested:
		if g.OwnerUserID != actor.UserID {
			return Grant{}, ErrForbidden
		}
		return s.acceptFrom(ctx, g, StatusRequested, actor)

	default:
		return Grant{}, ErrBadState
	}
}

// AcceptByToken acepta un invite pendiente vía QR (invite_token).
// Si el invite además tiene e-mail, el token no alcanza: tiene que
// coincidir la identidad invitada.
func (s *Service) AcceptByToken(ctx context.Context, inviteToken string, actor Actor) (Grant, error) {
	inviteToken = strings.TrimSpace(inviteToken)
	actor.UserID = strings.TrimSpace(actor.UserID)
	if inviteToken == "" || actor.UserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByInviteToken(ctx, inviteToken)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.Status != StatusPending {
		return Grant{}, ErrBadState
	}
	if g.GranteeEmail != "" && !s.isInvitee(ctx, g, actor) {
		return Grant{}, ErrForbidden
	}
	return s.acceptFrom(ctx, g, StatusPending, actor)
}

// acceptFrom aplica la transición a accepted con CAS sobre expected.
func (s *Service) acceptFrom(ctx context.Context, g Grant, expected Status, actor Actor) (Grant, error) {
	now := s.now()
	if expiry.IsExpired(g.ValidUntil, now) {
		return Grant{}, ErrExpired
	}

	if expected == StatusPending {
		g.GranteeUserID = actor.UserID
	}
	g.Status = StatusAccepted
	g.InviteToken = "" // el QR muere al aceptar
	g.UpdatedAt = now

	if err := s.repo.UpdateIfStatus(ctx, g, expected); err != nil {
		return Grant{}, err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: g.OwnerUserID,
		Type:        audit.EventGrantAccepted,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: actor.UserID},
		GrantID:     g.ID,
	})
	return g, nil
}

// Decline rechaza un invite (invitado) o un request (owner).
// Sobre un grant ya terminal es no-op: los dobles taps no son errores.
func (s *Service) Decline(ctx context.Context, grantID string, actor Actor) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	actor.UserID = strings.TrimSpace(actor.UserID)
	if grantID == "" || actor.UserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	if g.Status.Terminal() {
		return g, nil
	}

	var expected Status
	switch g.Status {
	case StatusPending:
		if !s.isInvitee(ctx, g, actor) {
			return Grant{}, ErrForbidden
		}
		expected = StatusPending
	case StatusRequested:
		if g.OwnerUserID != actor.UserID {
			return Grant{}, ErrForbidden
		}
		expected = StatusRequested
	default:
		return Grant{}, ErrBadState
	}

	now := s.now()
	g.Status = StatusDeclined
	g.InviteToken = ""
	g.UpdatedAt = now

	if err := s.repo.UpdateIfStatus(ctx, g, expected); err != nil {
		if errors.Is(err, ErrBadState) {
			// Perdimos la carrera; si el otro lado también terminó el
			// grant, el resultado es el mismo: no-op.
			if cur, gerr := s.repo.GetByID(ctx, g.ID); gerr == nil && cur.Status.Terminal() {
				return cur, nil
			}
		}
		return Grant{}, err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: g.OwnerUserID,
		Type:        audit.EventGrantDeclined,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: actor.UserID},
		GrantID:     g.ID,
	})
	return g, nil
}

// Revoke es owner-only y vale desde cualquier estado. Idempotente.
func (s *Service) Revoke(ctx context.Context, grantID, ownerUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerUserID = strings.TrimSpace(ownerUserID)
	if grantID == "" || ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.OwnerUserID != ownerUserID {
		return Grant{}, ErrForbidden
	}

	if g.Status.Terminal() {
		return g, nil
	}

	expected := g.Status
	now := s.now()
	g.Status = StatusRevoked
	g.InviteToken = ""
	g.UpdatedAt = now

	if err := s.repo.UpdateIfStatus(ctx, g, expected); err != nil {
		if errors.Is(err, ErrBadState) {
			if cur, gerr := s.repo.GetByID(ctx, g.ID); gerr == nil && cur.Status.Terminal() {
				return cur, nil
			}
		}
		return Grant{}, err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: g.OwnerUserID,
		Type:        audit.EventGrantRevoked,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: ownerUserID},
		GrantID:     g.ID,
	})
	return g, nil
}

// Remove borra el row (cancel explícito de cualquiera de las dos partes).
func (s *Service) Remove(ctx context.Context, grantID string, actor Actor) error {
	grantID = strings.TrimSpace(grantID)
	actor.UserID = strings.TrimSpace(actor.UserID)
	if grantID == "" || actor.UserID == "" {
		return ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return ErrNotFound
	}

	authorized := g.OwnerUserID == actor.UserID ||
		(g.GranteeUserID != "" && g.GranteeUserID == actor.UserID) ||
		(g.Status == StatusPending && s.isInvitee(ctx, g, actor))
	if !authorized {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, g.ID); err != nil {
		return err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: g.OwnerUserID,
		Type:        audit.EventGrantRemoved,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: actor.UserID},
		GrantID:     g.ID,
	})
	return nil
}

func (s *Service) GetByID(ctx context.Context, grantID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Grant, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// ListSharedWith enumera grants donde actor es grantee: aceptados más
// invites pendientes direccionados a su e-mail.
func (s *Service) ListSharedWith(ctx context.Context, actor Actor) ([]Grant, error) {
	actor.UserID = strings.TrimSpace(actor.UserID)
	if actor.UserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByGrantee(ctx, actor.UserID, s.emailOf(ctx, actor))
}

// isInvitee decide si actor es la identidad invitada de un pending.
// Match por e-mail case-insensitive; post-aceptación ya no se usa e-mail.
func (s *Service) isInvitee(ctx context.Context, g Grant, actor Actor) bool {
	if g.GranteeEmail == "" {
		return false
	}
	email := s.emailOf(ctx, actor)
	return email != "" && strings.EqualFold(email, g.GranteeEmail)
}

// emailOf devuelve el e-mail del actor: claims primero, directorio después.
func (s *Service) emailOf(ctx context.Context, actor Actor) string {
	if email := normalizeEmail(actor.Email); email != "" {
		return email
	}
	if s.Directory == nil {
		return ""
	}
	u, err := s.Directory.LookupByID(ctx, actor.UserID)
	if err != nil {
		return ""
	}
	return normalizeEmail(u.Email)
}

// normalizePermissions valida la unión scope/level contra las mascotas
// del owner. Solo al crear: si después se borra una mascota seleccionada,
// el ID queda stale y simplemente nunca vuelve a matchear.
func (s *Service) normalizePermissions(ctx context.Context, ownerUserID string, p PermissionSet) (PermissionSet, error) {
	if p.Level == "" {
		p.Level = LevelViewer
	}
	if !p.Level.Valid() {
		return PermissionSet{}, ErrInvalidInput
	}

	switch p.Scope {
	case ScopeAll, "":
		if len(p.PetIDs) > 0 {
			// all no snapshotea IDs; un set explícito acá es un bug del caller
			return PermissionSet{}, ErrInvalidInput
		}
		return PermissionSet{Scope: ScopeAll, Level: p.Level}, nil

	case ScopeSelected:
		seen := map[string]struct{}{}
		ids := make([]string, 0, len(p.PetIDs))
		for _, raw := range p.PetIDs {
			id := strings.TrimSpace(raw)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			owner, err := s.pets.OwnerOf(ctx, id)
			if err != nil || owner != ownerUserID {
				return PermissionSet{}, ErrInvalidInput
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return PermissionSet{}, ErrInvalidInput
		}
		return PermissionSet{Scope: ScopeSelected, PetIDs: ids, Level: p.Level}, nil

	default:
		return PermissionSet{}, ErrInvalidInput
	}
}

func (s *Service) record(ctx context.Context, in audit.RecordInput) {
	if s.Trail == nil {
		return
	}
	_, _ = s.Trail.Record(ctx, in) // best-effort
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
