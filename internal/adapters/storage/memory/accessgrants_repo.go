package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-sharing/internal/domain/accessgrants"
)

type grantRepo struct {
	mu   sync.Mutex
	byID map[string]accessgrants.Grant
}

func NewAccessGrantsRepo() accessgrants.Repository {
	return &grantRepo{
		byID: make(map[string]accessgrants.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g
	return nil
}

// UpdateIfStatus: el CAS se resuelve bajo el mismo lock que el write.
// Quien llega con un expected viejo recibe ErrBadState, no pisa nada.
func (r *grantRepo) UpdateIfStatus(ctx context.Context, g accessgrants.Grant, expected accessgrants.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	cur, exists := r.byID[g.ID]
	if !exists {
		return accessgrants.ErrNotFound
	}
	if cur.Status != expected {
		return accessgrants.ErrBadState
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return accessgrants.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) GetByInviteToken(ctx context.Context, token string) (accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(token) == "" {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	for _, g := range r.byID {
		if g.InviteToken != "" && g.InviteToken == token {
			return g, nil
		}
	}
	return accessgrants.Grant{}, accessgrants.ErrNotFound
}

func (r *grantRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if g.OwnerUserID == ownerUserID {
			out = append(out, g)
		}
	}
	sortByUpdatedDesc(out)
	return out, nil
}

func (r *grantRepo) ListByGrantee(ctx context.Context, granteeUserID, granteeEmail string) ([]accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if granteeUserID != "" && g.GranteeUserID == granteeUserID {
			out = append(out, g)
			continue
		}
		// Invites pendientes direccionados por e-mail. Una vez atado el
		// grantee, la identidad canónica es el user id, no el e-mail.
		if granteeEmail != "" && g.GranteeUserID == "" && g.GranteeEmail != "" && strings.EqualFold(g.GranteeEmail, granteeEmail) {
			out = append(out, g)
		}
	}
	sortByUpdatedDesc(out)
	return out, nil
}

func sortByUpdatedDesc(items []accessgrants.Grant) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
}
