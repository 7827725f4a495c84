package translate

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babelboard/babelboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Locales returns the distinct locales present in the catalog.
func (r *Repository) Locales(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT locale FROM translations ORDER BY locale`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locales []string
	for rows.Next() {
		var locale string
		if err := rows.Scan(&locale); err != nil {
			return nil, err
		}
		locales = append(locales, locale)
	}
	return locales, rows.Err()
}

// ListEntries returns one page of entries for a locale.
func (r *Repository) ListEntries(ctx context.Context, locale string, page, perPage int) ([]Entry, shared.Pagination, error) {
	pagination := shared.NewPagination(page, perPage, 0)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM translations WHERE locale = $1`, locale).Scan(&total); err != nil {
		return nil, pagination, err
	}
	pagination = shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx,
		`SELECT id, locale, key, message, COALESCE(updated_by, 0), updated_at
		 FROM translations WHERE locale = $1 ORDER BY key LIMIT $2 OFFSET $3`,
		locale, pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
	if err != nil {
		return nil, pagination, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Locale, &entry.Key, &entry.Message, &entry.UpdatedBy, &entry.UpdatedAt); err != nil {
			return nil, pagination, err
		}
		entries = append(entries, entry)
	}
	return entries, pagination, rows.Err()
}

// UpsertEntry stores a message for (locale, key) recording who changed it.
func (r *Repository) UpsertEntry(ctx context.Context, locale, key, message string, updatedBy int64) (Entry, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO translations (locale, key, message, updated_by, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (locale, key)
		 DO UPDATE SET message = EXCLUDED.message, updated_by = EXCLUDED.updated_by, updated_at = now()
		 RETURNING id, locale, key, message, COALESCE(updated_by, 0), updated_at`,
		locale, key, message, updatedBy)
	var entry Entry
	if err := row.Scan(&entry.ID, &entry.Locale, &entry.Key, &entry.Message, &entry.UpdatedBy, &entry.UpdatedAt); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// DeleteEntry removes a message.
func (r *Repository) DeleteEntry(ctx context.Context, locale, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM translations WHERE locale = $1 AND key = $2`, locale, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
