package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3/database"
)

// PostgresStore is the pgx-backed Store used when DATABASE_URL is a postgres DSN.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := migrate(ctx, db, database.DialectPostgres, "migrations/postgres"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) GetCoachingConfig(ctx context.Context, coachingID string) (*CoachingConfig, error) {
	var cfg CoachingConfig
	err := s.pool.QueryRow(ctx, `
SELECT coaching_id, context_prompt, api_key, model, api_provider
FROM coaching_configs WHERE coaching_id = $1
`, coachingID).Scan(&cfg.CoachingID, &cfg.SystemPrompt, &cfg.Credential, &cfg.ModelID, &cfg.ProviderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query coaching config: %w", err)
	}
	return &cfg, nil
}

func (s *PostgresStore) UpdateCoachingConfig(ctx context.Context, cfg CoachingConfig) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE coaching_configs
SET context_prompt = $1, api_key = $2, model = $3,
    api_provider = COALESCE(NULLIF($4, ''), api_provider)
WHERE coaching_id = $5
`, cfg.SystemPrompt, cfg.Credential, cfg.ModelID, cfg.ProviderID, cfg.CoachingID)
	if err != nil {
		return false, fmt.Errorf("failed to execute coaching config update: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpsertCoachingConfig(ctx context.Context, cfg CoachingConfig) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO coaching_configs (coaching_id, context_prompt, api_key, model, api_provider)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (coaching_id) DO UPDATE SET
    context_prompt = EXCLUDED.context_prompt,
    api_key = EXCLUDED.api_key,
    model = EXCLUDED.model,
    api_provider = EXCLUDED.api_provider
`, cfg.CoachingID, cfg.SystemPrompt, cfg.Credential, cfg.ModelID, cfg.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to upsert coaching config: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, turn *ChatTurn) error {
	id := uuid.New()
	createdAt := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
INSERT INTO chat_turns (id, user_id, coaching_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, id, turn.UserID, turn.CoachingID, string(turn.Role), turn.Content, createdAt)
	if err != nil {
		return fmt.Errorf("failed to execute turn insert: %w", err)
	}
	turn.ID = id.String()
	turn.CreatedAt = createdAt
	return nil
}

func (s *PostgresStore) ListTurns(ctx context.Context, userID, coachingID string) ([]ChatTurn, error) {
	query := `SELECT id::text, user_id, coaching_id, role, content, created_at FROM chat_turns WHERE user_id = $1`
	args := []any{userID}
	if coachingID != "" {
		query += ` AND coaching_id = $2`
		args = append(args, coachingID)
	}
	query += ` ORDER BY created_at ASC, seq ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []ChatTurn{}
	for rows.Next() {
		var turn ChatTurn
		var role string
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.CoachingID, &role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		turn.Role = Role(role)
		turn.CreatedAt = turn.CreatedAt.UTC()
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	return turns, nil
}

func (s *PostgresStore) LatestTurnID(ctx context.Context, userID, coachingID string, role Role) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
SELECT id::text FROM chat_turns
WHERE user_id = $1 AND coaching_id = $2 AND role = $3
ORDER BY created_at DESC, seq DESC
LIMIT 1
`, userID, coachingID, string(role)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query latest %s turn: %w", role, err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteTurn(ctx context.Context, turnID string) (bool, error) {
	id, err := uuid.Parse(turnID)
	if err != nil {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_turns WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete turn: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
