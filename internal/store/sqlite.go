package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pressly/goose/v3/database"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withPragmas(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = migrate(context.Background(), db, database.DialectSQLite3, "migrations/sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Coaching config methods
func (s *SQLiteStore) GetCoachingConfig(ctx context.Context, coachingID string) (*CoachingConfig, error) {
	var cfg CoachingConfig
	err := s.db.QueryRowContext(ctx,
		"SELECT coaching_id, context_prompt, api_key, model, api_provider FROM coaching_configs WHERE coaching_id = ?",
		coachingID,
	).Scan(&cfg.CoachingID, &cfg.SystemPrompt, &cfg.Credential, &cfg.ModelID, &cfg.ProviderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query coaching config: %w", err)
	}
	return &cfg, nil
}

func (s *SQLiteStore) UpdateCoachingConfig(ctx context.Context, cfg CoachingConfig) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE coaching_configs
        SET context_prompt = ?, api_key = ?, model = ?,
            api_provider = CASE WHEN ? = '' THEN api_provider ELSE ? END
        WHERE coaching_id = ?`,
		cfg.SystemPrompt, cfg.Credential, cfg.ModelID, cfg.ProviderID, cfg.ProviderID, cfg.CoachingID)
	if err != nil {
		return false, fmt.Errorf("failed to execute coaching config update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLiteStore) UpsertCoachingConfig(ctx context.Context, cfg CoachingConfig) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO coaching_configs (coaching_id, context_prompt, api_key, model, api_provider)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (coaching_id) DO UPDATE SET
            context_prompt = excluded.context_prompt,
            api_key = excluded.api_key,
            model = excluded.model,
            api_provider = excluded.api_provider`,
		cfg.CoachingID, cfg.SystemPrompt, cfg.Credential, cfg.ModelID, cfg.ProviderID)
	if err != nil {
		return fmt.Errorf("failed to upsert coaching config: %w", err)
	}
	return nil
}

// Turn methods
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn *ChatTurn) error {
	turn.ID = uuid.NewString()
	turn.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_turns (id, user_id, coaching_id, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		turn.ID, turn.UserID, turn.CoachingID, string(turn.Role), turn.Content, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute turn insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListTurns(ctx context.Context, userID, coachingID string) ([]ChatTurn, error) {
	query := "SELECT id, user_id, coaching_id, role, content, created_at FROM chat_turns WHERE user_id = ?"
	args := []any{userID}
	if coachingID != "" {
		query += " AND coaching_id = ?"
		args = append(args, coachingID)
	}
	query += " ORDER BY created_at ASC, seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
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
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turn rows: %w", err)
	}
	return turns, nil
}

func (s *SQLiteStore) LatestTurnID(ctx context.Context, userID, coachingID string, role Role) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
        SELECT id FROM chat_turns
        WHERE user_id = ? AND coaching_id = ? AND role = ?
        ORDER BY created_at DESC, seq DESC
        LIMIT 1`,
		userID, coachingID, string(role)).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to query latest %s turn: %w", role, err)
	}
	return id, nil
}

func (s *SQLiteStore) DeleteTurn(ctx context.Context, turnID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_turns WHERE id = ?", turnID)
	if err != nil {
		return false, fmt.Errorf("failed to delete turn: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
