package audit

import "context"

type Repository interface {
	Create(ctx context.Context, e AccessEvent) error
	ListByOwner(ctx context.Context, ownerUserID string, filter ListFilter) ([]AccessEvent, error)
}

type ListFilter struct {
	Types []EventType
	Limit int
}
