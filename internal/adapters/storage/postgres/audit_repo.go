package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-sharing/internal/domain/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Create(ctx context.Context, e audit.AccessEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_events (
			id, owner_user_id,
			type, actor_type, actor_id,
			grant_id, pet_id, token_digest, detail,
			occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		e.ID,
		e.OwnerUserID,
		string(e.Type),
		string(e.Actor.Type),
		e.Actor.ID,
		e.GrantID,
		e.PetID,
		e.TokenDigest,
		e.Detail,
		e.OccurredAt,
	)
	return err
}

func (r *AuditRepo) ListByOwner(ctx context.Context, ownerUserID string, filter audit.ListFilter) ([]audit.AccessEvent, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			id, owner_user_id,
			type, actor_type, actor_id,
			grant_id, pet_id, token_digest, detail,
			occurred_at
		FROM access_events
		WHERE owner_user_id = $1
	`)

	args := []any{ownerUserID}
	argN := 2

	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND type IN (" + strings.Join(placeholders, ",") + ")")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY occurred_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.AccessEvent, 0)
	for rows.Next() {
		var e audit.AccessEvent
		var typ, actorType string

		if err := rows.Scan(
			&e.ID,
			&e.OwnerUserID,
			&typ,
			&actorType,
			&e.Actor.ID,
			&e.GrantID,
			&e.PetID,
			&e.TokenDigest,
			&e.Detail,
			&e.OccurredAt,
		); err != nil {
			return nil, err
		}

		e.Type = audit.EventType(typ)
		e.Actor.Type = audit.ActorType(actorType)
		out = append(out, e)
	}

	return out, rows.Err()
}
