package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dkurilov/shortly/internal/database"
	"github.com/dkurilov/shortly/internal/models"
)

type linkRecord struct {
	ID           int64          `db:"id"`
	ShortCode    string         `db:"short_code"`
	OriginalURL  string         `db:"original_url"`
	PasswordHash sql.NullString `db:"password_hash"`
	AccessCount  int64          `db:"access_count"`
	CreatedAt    time.Time      `db:"created_at"`
	ExpiresAt    time.Time      `db:"expires_at"`
}

func (r *linkRecord) ToShortLink() *models.ShortLink {
	return &models.ShortLink{
		ID:           r.ID,
		ShortCode:    r.ShortCode,
		OriginalURL:  r.OriginalURL,
		PasswordHash: r.PasswordHash.String,
		AccessCount:  r.AccessCount,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
	}
}

type accessEventRecord struct {
	ID         int64     `db:"id"`
	LinkID     int64     `db:"link_id"`
	SourceAddr string    `db:"source_addr"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *accessEventRecord) ToAccessEvent() models.AccessEvent {
	return models.AccessEvent{
		ID:         r.ID,
		LinkID:     r.LinkID,
		SourceAddr: r.SourceAddr,
		Timestamp:  r.CreatedAt,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

func (r *LinkRepository) Create(ctx context.Context, shortCode, originalURL, passwordHash string, expiresAt time.Time) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(short_code, original_url, password_hash, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL, passwordHash, expiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.GetByShortCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

// RecordAccess inserts an access event and increments the link counter in
// a single transaction, so the two writes commit or roll back together.
// The in-place increment serializes concurrent accesses at the row level.
func (r *LinkRepository) RecordAccess(ctx context.Context, linkID int64, sourceAddr string) (*models.ShortLink, error) {
	const op = "database.postgres.LinkRepository.RecordAccess"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	insertQuery := `INSERT INTO access_events(link_id, source_addr)
		VALUES ($1, $2)`

	if _, err := tx.ExecContext(ctx, insertQuery, linkID, sourceAddr); err != nil {
		return nil, fmt.Errorf("%s: failed to create access event record: %w", op, err)
	}

	rec := new(linkRecord)
	updateQuery := `UPDATE links
		SET access_count = access_count + 1
		WHERE id = $1
		RETURNING *`

	if err := tx.GetContext(ctx, rec, updateQuery, linkID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to increment access count: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return rec.ToShortLink(), nil
}

func (r *LinkRepository) ListAccessEvents(ctx context.Context, linkID int64) ([]models.AccessEvent, error) {
	const op = "database.postgres.LinkRepository.ListAccessEvents"

	var recs []accessEventRecord
	query := `SELECT * FROM access_events
		WHERE link_id = $1
		ORDER BY id`

	if err := r.db.SelectContext(ctx, &recs, query, linkID); err != nil {
		return nil, fmt.Errorf("%s: failed to list access event records: %w", op, err)
	}

	events := make([]models.AccessEvent, 0, len(recs))
	for _, rec := range recs {
		events = append(events, rec.ToAccessEvent())
	}

	return events, nil
}
