package conversations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRecordNotFound is returned when no conversation exists for the pair.
var ErrRecordNotFound = errors.New("conversation record not found")

const recordColumns = `id, phone, campaign, photo_url, caption, quantity,
	why_important, created_at, updated_at`

// fieldColumns whitelists the columns SetField may write. Field names arrive
// from internal callers only, but the whitelist keeps the dynamic SQL safe.
var fieldColumns = map[string]bool{
	"photo_url":     true,
	"caption":       true,
	"quantity":      true,
	"why_important": true,
}

// Repository provides PostgreSQL persistence for conversation records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a conversation repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindOrCreate returns the record for the phone+campaign pair, creating an
// empty one if none exists. The upsert's no-op update lets RETURNING yield
// the surviving row under concurrent creation; xmax = 0 distinguishes a
// fresh insert from a conflict.
func (r *Repository) FindOrCreate(ctx context.Context, phone, campaign string) (*Record, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO conversations (id, phone, campaign)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone, campaign) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING %s, (xmax = 0) AS created`, recordColumns)

	row := r.pool.QueryRow(ctx, query, uuid.New(), phone, campaign)

	var rec Record
	var created bool
	err := row.Scan(
		&rec.ID, &rec.Phone, &rec.Campaign, &rec.PhotoURL, &rec.Caption,
		&rec.Quantity, &rec.WhyImportant, &rec.CreatedAt, &rec.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("find or create conversation: %w", err)
	}
	return &rec, created, nil
}

// Find returns the record for the phone+campaign pair without creating one.
func (r *Repository) Find(ctx context.Context, phone, campaign string) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE phone = $1 AND campaign = $2`, recordColumns)
	row := r.pool.QueryRow(ctx, query, phone, campaign)

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return record, nil
}

// SetField writes one reportback field. Last write wins; concurrent
// duplicates simply overwrite each other.
func (r *Repository) SetField(ctx context.Context, phone, campaign, field, value string) (*Record, error) {
	if !fieldColumns[field] {
		return nil, fmt.Errorf("unknown conversation field %q", field)
	}

	query := fmt.Sprintf(`
		UPDATE conversations SET %s = $3, updated_at = now()
		WHERE phone = $1 AND campaign = $2
		RETURNING %s`, field, recordColumns)

	row := r.pool.QueryRow(ctx, query, phone, campaign, value)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set conversation field %s: %w", field, err)
	}
	return record, nil
}

// Delete removes the record after a confirmed submission.
func (r *Repository) Delete(ctx context.Context, phone, campaign string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE phone = $1 AND campaign = $2`, phone, campaign)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.Phone, &rec.Campaign, &rec.PhotoURL, &rec.Caption,
		&rec.Quantity, &rec.WhyImportant, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
