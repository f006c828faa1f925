package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RecordInput struct {
	OwnerUserID string
	Type        EventType
	Actor       Actor

	GrantID string
	PetID   string
	// Token plano del link involucrado (si aplica). Se digiere acá;
	// nunca se persiste tal cual.
	Token  string
	Detail string
}

func (s *Service) Record(ctx context.Context, in RecordInput) (AccessEvent, error) {
	if strings.TrimSpace(in.OwnerUserID) == "" || in.Type == "" {
		return AccessEvent{}, ErrInvalidInput
	}

	actor := in.Actor
	if actor.Type == "" {
		actor.Type = ActorTypeUser
	}

	e := AccessEvent{
		ID:          uuid.NewString(),
		OwnerUserID: strings.TrimSpace(in.OwnerUserID),
		Type:        in.Type,
		Actor:       actor,
		GrantID:     strings.TrimSpace(in.GrantID),
		PetID:       strings.TrimSpace(in.PetID),
		TokenDigest: TokenDigest(in.Token),
		Detail:      strings.TrimSpace(in.Detail),
		OccurredAt:  s.now(),
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return AccessEvent{}, err
	}
	return e, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]AccessEvent, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, ownerUserID, filter)
}

// TokenDigest devuelve sha256(token) en hex, o "" si no hay token.
func TokenDigest(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
