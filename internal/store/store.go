package store

import "context"

// HistoryStore is the append-only log of chat turns keyed by (user, coaching).
type HistoryStore interface {
	// AppendTurn assigns ID and CreatedAt and inserts the turn.
	AppendTurn(ctx context.Context, turn *ChatTurn) error
	// ListTurns returns the user's turns oldest first. An empty coachingID
	// returns turns across all coaching contexts.
	ListTurns(ctx context.Context, userID, coachingID string) ([]ChatTurn, error)
	// LatestTurnID returns the id of the newest turn with the given role,
	// or "" when there is none.
	LatestTurnID(ctx context.Context, userID, coachingID string, role Role) (string, error)
	// DeleteTurn reports whether a row was removed.
	DeleteTurn(ctx context.Context, turnID string) (bool, error)
}

// ConfigStore holds one CoachingConfig per coaching context.
type ConfigStore interface {
	// GetCoachingConfig returns nil, nil when the coaching context is unknown.
	GetCoachingConfig(ctx context.Context, coachingID string) (*CoachingConfig, error)
	// UpdateCoachingConfig changes an existing row and reports whether it existed.
	// An empty ProviderID keeps the stored provider.
	UpdateCoachingConfig(ctx context.Context, cfg CoachingConfig) (bool, error)
	// UpsertCoachingConfig creates or fully replaces a row.
	UpsertCoachingConfig(ctx context.Context, cfg CoachingConfig) error
}

type Store interface {
	HistoryStore
	ConfigStore
	Ping(ctx context.Context) error
	Close() error
}
