package sharelinks

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-sharing/internal/domain/audit"
	"pet-sharing/internal/domain/expiry"
	"pet-sharing/internal/platform/securetoken"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrRevoked      = errors.New("revoked")
)

// maxTokenAttempts acota el reintento del check de unicidad. Con 24 bytes
// de entropía una colisión real es teórica; esto protege contra un repo
// roto, no contra la probabilidad.
const maxTokenAttempts = 5

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// Trail registra eventos de acceso. Opcional, best-effort.
type Trail interface {
	Record(ctx context.Context, in audit.RecordInput) (audit.AccessEvent, error)
}

type Service struct {
	repo Repository
	pets PetOwnerLookup

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

// SetTokenBytes ajusta la entropía por config. Valores por debajo del
// mínimo los corrige securetoken.New.
func (s *Service) SetTokenBytes(n int) {
	if n > 0 {
		s.tokenBytes = n
	}
}

type IssueInput struct {
	PetID    string
	Settings Settings
	Expires  expiry.Spec
}

// Issue crea un link público para una mascota del owner.
func (s *Service) Issue(ctx context.Context, ownerUserID string, in IssueInput) (ShareLink, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	petID := strings.TrimSpace(in.PetID)
	if ownerUserID == "" || petID == "" {
		return ShareLink{}, ErrInvalidInput
	}

	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil || owner != ownerUserID {
		return ShareLink{}, ErrInvalidInput
	}

	if !in.Settings.Identification && !in.Settings.Medical &&
		!in.Settings.Vaccinations && !in.Settings.Allergies {
		// Un link que no muestra ninguna sección no sirve para nada.
		return ShareLink{}, ErrInvalidInput
	}

	now := s.now()
	validUntil, err := in.Expires.Compute(now)
	if err != nil {
		return ShareLink{}, ErrInvalidInput
	}

	token, err := s.uniqueToken(ctx)
	if err != nil {
		return ShareLink{}, err
	}

	l := ShareLink{
		ID:          uuid.NewString(),
		Token:       token,
		PetID:       petID,
		OwnerUserID: ownerUserID,
		Settings:    in.Settings,
		ValidUntil:  validUntil,
		IsActive:    true,
		CreatedBy:   ownerUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return ShareLink{}, err
	}

	s.record(ctx, audit.RecordInput{
		OwnerUserID: l.OwnerUserID,
		Type:        audit.EventLinkIssued,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: ownerUserID},
		PetID:       l.PetID,
		Token:       l.Token,
	})
	return l, nil
}

// Validate resuelve un token portador. Sin autenticación: el secreto del
// token es el único control, por eso jamás se loguea en plano.
// Chequea vigencia en cada llamada, nunca cachea.
func (s *Service) Validate(ctx context.Context, token string) (ShareLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ShareLink{}, ErrNotFound
	}

	l, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return ShareLink{}, ErrNotFound
	}

	if !l.IsActive {
		s.recordDenied(ctx, l, "revoked")
		return ShareLink{}, ErrRevoked
	}
	if expiry.IsExpired(l.ValidUntil, s.now()) {
		s.recordDenied(ctx, l, "expired")
		return ShareLink{}, ErrExpired
	}

	return l, nil
}

// Revoke apaga el link (owner-only). Idempotente.
func (s *Service) Revoke(ctx context.Context, token, ownerUserID string) (ShareLink, error) {
	token = strings.TrimSpace(token)
	ownerUserID = strings.TrimSpace(ownerUserID)
	if token == "" || ownerUserID == "" {
		return ShareLink{}, ErrInvalidInput
	}

	l, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return ShareLink{}, ErrNotFound
	}
	if l.OwnerUserID != ownerUserID {
		return ShareLink{}, ErrForbidden
	}

	if !l.IsActive {
		return l, nil
	}

	now := s.now()
	if err := s.repo.SetActive(ctx, token, false, now); err != nil {
		return ShareLink{}, err
	}
	l.IsActive = false
	l.UpdatedAt = now

	s.record(ctx, audit.RecordInput{
		OwnerUserID: l.OwnerUserID,
		Type:        audit.EventLinkRevoked,
		Actor:       audit.Actor{Type: audit.ActorTypeUser, ID: ownerUserID},
		PetID:       l.PetID,
		Token:       token,
	})
	return l, nil
}

func (s *Service) ListByPet(ctx context.Context, petID, ownerUserID string) ([]ShareLink, error) {
	petID = strings.TrimSpace(petID)
	ownerUserID = strings.TrimSpace(ownerUserID)
	if petID == "" || ownerUserID == "" {
		return nil, ErrInvalidInput
	}

	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return nil, ErrNotFound
	}
	if owner != ownerUserID {
		return nil, ErrForbidden
	}
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]ShareLink, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// uniqueToken genera y verifica contra tokens existentes antes de usar.
// Los tokens nunca se reusan entre links.
func (s *Service) uniqueToken(ctx context.Context) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		token, err := s.newToken(s.tokenBytes)
		if err != nil {
			return "", err
		}
		_, err = s.repo.GetByToken(ctx, token)
		if errors.Is(err, ErrNotFound) {
			// no existe => lo usamos
			return token, nil
		}
		if err != nil {
			// Un store caído no vale como "token libre".
			return "", err
		}
	}
	return "", errors.New("sharelinks: could not generate unique token")
}

func (s *Service) record(ctx context.Context, in audit.RecordInput) {
	if s.Trail == nil {
		return
	}
	_, _ = s.Trail.Record(ctx, in) // best-effort
}

func (s *Service) recordDenied(ctx context.Context, l ShareLink, reason string) {
	s.record(ctx, audit.RecordInput{
		OwnerUserID: l.OwnerUserID,
		Type:        audit.EventLinkDenied,
		Actor:       audit.Actor{Type: audit.ActorTypePublic},
		PetID:       l.PetID,
		Token:       l.Token,
		Detail:      reason,
	})
}
