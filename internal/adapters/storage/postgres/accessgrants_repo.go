package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-sharing/internal/domain/accessgrants"
)

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `
	id, owner_user_id, grantee_user_id, grantee_email,
	scope, pet_ids, access_level,
	status, valid_until, invite_token,
	created_by, created_at, updated_at
`

func (r *AccessGrantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		g.ID,
		g.OwnerUserID,
		g.GranteeUserID,
		g.GranteeEmail,
		string(g.Permissions.Scope),
		toTextArray(g.Permissions.PetIDs),
		string(g.Permissions.Level),
		string(g.Status),
		toNullTime(g.ValidUntil),
		g.InviteToken,
		g.CreatedBy,
		g.CreatedAt,
		g.UpdatedAt,
	)
	return err
}

// UpdateIfStatus: CAS sobre status en el WHERE. Si el row existe pero el
// status ya cambió, el caller perdió la carrera => ErrBadState.
func (r *AccessGrantsRepo) UpdateIfStatus(ctx context.Context, g accessgrants.Grant, expected accessgrants.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_grants
		SET
			grantee_user_id = $3,
			status = $4,
			invite_token = $5,
			updated_at = $6
		WHERE id = $1 AND status = $2
	`,
		g.ID,
		string(expected),
		g.GranteeUserID,
		string(g.Status),
		g.InviteToken,
		g.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM access_grants WHERE id = $1)`, g.ID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return accessgrants.ErrNotFound
	}
	return accessgrants.ErrBadState
}

func (r *AccessGrantsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM access_grants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accessgrants.ErrNotFound
	}
	return nil
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE id = $1
	`, id)

	return scanGrant(row)
}

func (r *AccessGrantsRepo) GetByInviteToken(ctx context.Context, token string) (accessgrants.Grant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE invite_token = $1
	`, token)

	return scanGrant(row)
}

func (r *AccessGrantsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]accessgrants.Grant, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE owner_user_id = $1
		ORDER BY updated_at DESC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGrants(rows)
}

// ListByGrantee cubre los dos lados en un solo query: grants ya atados a
// la cuenta, e invites pendientes direccionados al e-mail. El match por
// e-mail aplica solo mientras el grantee no está atado; después de eso la
// identidad canónica es grantee_user_id.
func (r *AccessGrantsRepo) ListByGrantee(ctx context.Context, granteeUserID, granteeEmail string) ([]accessgrants.Grant, error) {
	granteeUserID = strings.TrimSpace(granteeUserID)
	granteeEmail = strings.TrimSpace(granteeEmail)
	if granteeUserID == "" && granteeEmail == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE ($1 <> '' AND grantee_user_id = $1)
		   OR ($2 <> '' AND grantee_user_id = '' AND grantee_email <> '' AND lower(grantee_email) = lower($2))
		ORDER BY updated_at DESC
	`, granteeUserID, granteeEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGrants(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	var scope, level, status string
	var petIDs []string
	var validUntil sql.NullTime

	if err := row.Scan(
		&g.ID,
		&g.OwnerUserID,
		&g.GranteeUserID,
		&g.GranteeEmail,
		&scope,
		&petIDs,
		&level,
		&status,
		&validUntil,
		&g.InviteToken,
		&g.CreatedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return accessgrants.Grant{}, accessgrants.ErrNotFound
		}
		return accessgrants.Grant{}, err
	}

	g.Permissions = accessgrants.PermissionSet{
		Scope:  accessgrants.Scope(scope),
		PetIDs: petIDs,
		Level:  accessgrants.AccessLevel(level),
	}
	g.Status = accessgrants.Status(status)
	g.ValidUntil = fromNullTime(validUntil)
	return g, nil
}

func scanGrants(rows *sql.Rows) ([]accessgrants.Grant, error) {
	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
