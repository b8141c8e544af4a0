package campaigns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no campaign matches the given endpoint.
var ErrNotFound = errors.New("campaign not found")

// ErrDuplicateEndpoint is returned when creating a campaign whose endpoint
// is already taken.
var ErrDuplicateEndpoint = errors.New("campaign endpoint already exists")

const campaignColumns = `id, endpoint, content_campaign_id, completed_campaign_id,
	optout_campaign_id, msg_not_a_photo, msg_ask_caption, msg_ask_quantity,
	msg_ask_why, msg_complete, created_at, updated_at`

// Repository provides PostgreSQL persistence for campaign configs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a campaign repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEndpoint fetches the campaign config listening on the given endpoint.
func (r *Repository) GetByEndpoint(ctx context.Context, endpoint string) (*Config, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE endpoint = $1`, campaignColumns)
	row := r.pool.QueryRow(ctx, query, endpoint)

	cfg, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign by endpoint: %w", err)
	}
	return cfg, nil
}

// List returns all campaign configs ordered by endpoint.
func (r *Repository) List(ctx context.Context) ([]Config, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns ORDER BY endpoint`, campaignColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		cfg, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

// Create inserts a new campaign config and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, cfg *Config) (*Config, error) {
	query := fmt.Sprintf(`
		INSERT INTO campaigns (
			id, endpoint, content_campaign_id, completed_campaign_id,
			optout_campaign_id, msg_not_a_photo, msg_ask_caption,
			msg_ask_quantity, msg_ask_why, msg_complete
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, campaignColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.New(), cfg.Endpoint, cfg.ContentCampaignID, cfg.CompletedCampaignID,
		cfg.OptOutCampaignID, cfg.MsgNotAPhoto, cfg.MsgAskCaption,
		cfg.MsgAskQuantity, cfg.MsgAskWhy, cfg.MsgComplete,
	)

	created, err := scanCampaign(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEndpoint
		}
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return created, nil
}

func scanCampaign(row pgx.Row) (*Config, error) {
	var cfg Config
	err := row.Scan(
		&cfg.ID, &cfg.Endpoint, &cfg.ContentCampaignID, &cfg.CompletedCampaignID,
		&cfg.OptOutCampaignID, &cfg.MsgNotAPhoto, &cfg.MsgAskCaption,
		&cfg.MsgAskQuantity, &cfg.MsgAskWhy, &cfg.MsgComplete,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
