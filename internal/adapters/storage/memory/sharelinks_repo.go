package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-sharing/internal/domain/sharelinks"
)

type shareLinkRepo struct {
	mu      sync.RWMutex
	byToken map[string]sharelinks.ShareLink
}

func NewShareLinksRepo() sharelinks.Repository {
	return &shareLinkRepo{
		byToken: make(map[string]sharelinks.ShareLink),
	}
}

func (r *shareLinkRepo) Create(ctx context.Context, l sharelinks.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(l.Token) == "" {
		return errors.New("share link token required")
	}
	if _, exists := r.byToken[l.Token]; exists {
		return errors.New("share link token already exists")
	}
	r.byToken[l.Token] = l
	return nil
}

func (r *shareLinkRepo) GetByToken(ctx context.Context, token string) (sharelinks.ShareLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byToken[token]
	if !ok {
		return sharelinks.ShareLink{}, sharelinks.ErrNotFound
	}
	return l, nil
}

func (r *shareLinkRepo) SetActive(ctx context.Context, token string, active bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byToken[token]
	if !ok {
		return sharelinks.ErrNotFound
	}
	l.IsActive = active
	l.UpdatedAt = updatedAt
	r.byToken[token] = l
	return nil
}

func (r *shareLinkRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]sharelinks.ShareLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharelinks.ShareLink, 0)
	for _, l := range r.byToken {
		if l.OwnerUserID == ownerUserID {
			out = append(out, l)
		}
	}
	sortLinksByCreatedDesc(out)
	return out, nil
}

func (r *shareLinkRepo) ListByPet(ctx context.Context, petID string) ([]sharelinks.ShareLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharelinks.ShareLink, 0)
	for _, l := range r.byToken {
		if l.PetID == petID {
			out = append(out, l)
		}
	}
	sortLinksByCreatedDesc(out)
	return out, nil
}

func sortLinksByCreatedDesc(items []sharelinks.ShareLink) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
