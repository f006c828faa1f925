package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-sharing/internal/domain/sharelinks"
)

type ShareLinksRepo struct {
	db *sql.DB
}

func NewShareLinksRepo(db *sql.DB) *ShareLinksRepo {
	return &ShareLinksRepo{db: db}
}

const shareLinkColumns = `
	id, token, pet_id, owner_user_id,
	show_identification, show_medical, show_vaccinations, show_allergies,
	valid_until, is_active,
	created_by, created_at, updated_at
`

func (r *ShareLinksRepo) Create(ctx context.Context, l sharelinks.ShareLink) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO share_links (`+shareLinkColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		l.ID,
		l.Token,
		l.PetID,
		l.OwnerUserID,
		l.Settings.Identification,
		l.Settings.Medical,
		l.Settings.Vaccinations,
		l.Settings.Allergies,
		toNullTime(l.ValidUntil),
		l.IsActive,
		l.CreatedBy,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (r *ShareLinksRepo) GetByToken(ctx context.Context, token string) (sharelinks.ShareLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return sharelinks.ShareLink{}, sharelinks.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+shareLinkColumns+`
		FROM share_links
		WHERE token = $1
	`, token)

	return scanShareLink(row)
}

func (r *ShareLinksRepo) SetActive(ctx context.Context, token string, active bool, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_links
		SET is_active = $2, updated_at = $3
		WHERE token = $1
	`, token, active, updatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sharelinks.ErrNotFound
	}
	return nil
}

func (r *ShareLinksRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]sharelinks.ShareLink, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shareLinkColumns+`
		FROM share_links
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanShareLinks(rows)
}

func (r *ShareLinksRepo) ListByPet(ctx context.Context, petID string) ([]sharelinks.ShareLink, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shareLinkColumns+`
		FROM share_links
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanShareLinks(rows)
}

func scanShareLink(row rowScanner) (sharelinks.ShareLink, error) {
	var l sharelinks.ShareLink
	var validUntil sql.NullTime

	if err := row.Scan(
		&l.ID,
		&l.Token,
		&l.PetID,
		&l.OwnerUserID,
		&l.Settings.Identification,
		&l.Settings.Medical,
		&l.Settings.Vaccinations,
		&l.Settings.Allergies,
		&validUntil,
		&l.IsActive,
		&l.CreatedBy,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return sharelinks.ShareLink{}, sharelinks.ErrNotFound
		}
		return sharelinks.ShareLink{}, err
	}

	l.ValidUntil = fromNullTime(validUntil)
	return l, nil
}

func scanShareLinks(rows *sql.Rows) ([]sharelinks.ShareLink, error) {
	out := make([]sharelinks.ShareLink, 0)
	for rows.Next() {
		l, err := scanShareLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
