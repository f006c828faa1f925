package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-sharing/internal/domain/audit"
)

type auditRepo struct {
	mu   sync.RWMutex
	rows []audit.AccessEvent
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{}
}

func (r *auditRepo) Create(ctx context.Context, e audit.AccessEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	r.rows = append(r.rows, e)
	return nil
}

func (r *auditRepo) ListByOwner(ctx context.Context, ownerUserID string, filter audit.ListFilter) ([]audit.AccessEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := map[audit.EventType]struct{}{}
	for _, t := range filter.Types {
		allowed[t] = struct{}{}
	}

	out := make([]audit.AccessEvent, 0)
	for _, e := range r.rows {
		if e.OwnerUserID != ownerUserID {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[e.Type]; !ok {
				continue
			}
		}
		out = append(out, e)
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
