package store

import "time"

// Role is the stored speaker of a turn. The stored vocabulary is {user, model}
// regardless of which provider produced the reply.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type ChatTurn struct {
	ID         string    `json:"id"` // UUID, assigned by the store
	UserID     string    `json:"user_id"`
	CoachingID string    `json:"coaching_id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type CoachingConfig struct {
	CoachingID   string `json:"coaching_id" yaml:"coaching_id"`
	SystemPrompt string `json:"context_prompt" yaml:"context_prompt"`
	Credential   string `json:"api_key" yaml:"api_key"`
	ModelID      string `json:"model" yaml:"model"`
	ProviderID   string `json:"api_provider" yaml:"api_provider"` // gemini, openai, deepseek; empty means gemini
}
