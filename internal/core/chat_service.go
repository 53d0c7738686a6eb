package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"coachbot.io/ai-router/internal/llm"
	"coachbot.io/ai-router/internal/store"
)

// FallbackReply is stored as the model turn when the provider produced no text.
const FallbackReply = "Sorry, I could not generate a response."

// Generator produces a reply for one assembled provider request.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// ModelCatalog lists the models a credential can use with a provider.
type ModelCatalog interface {
	ListModels(ctx context.Context, credential, providerID string) ([]string, error)
}

type ChatService struct {
	dbStore   store.Store
	generator Generator
	catalog   ModelCatalog
}

func NewChatService(db store.Store, generator Generator, catalog ModelCatalog) *ChatService {
	return &ChatService{
		dbStore:   db,
		generator: generator,
		catalog:   catalog,
	}
}

type PromptInput struct {
	UserID     string
	CoachingID string
	Prompt     string
	// BaseURL overrides the provider endpoint for this request only.
	BaseURL string
}

// SendPrompt runs one coaching turn. The user turn is stored before the
// provider is called and is not removed if the call fails. The three store
// steps (save prompt, reload history, save reply) are not wrapped in a
// transaction; an orphaned user turn is the accepted failure mode.
func (s *ChatService) SendPrompt(ctx context.Context, in PromptInput) (string, error) {
	if err := required("prompt", in.Prompt, "userId", in.UserID, "coachingId", in.CoachingID); err != nil {
		return "", err
	}

	cfg, err := s.dbStore.GetCoachingConfig(ctx, in.CoachingID)
	if err != nil {
		return "", &StoreError{Op: "load coaching config", Err: err}
	}
	if cfg == nil {
		return "", ErrConfigNotFound
	}

	userTurn := store.ChatTurn{
		UserID:     in.UserID,
		CoachingID: in.CoachingID,
		Role:       store.RoleUser,
		Content:    in.Prompt,
	}
	if err := s.dbStore.AppendTurn(ctx, &userTurn); err != nil {
		return "", &StoreError{Op: "store user turn", Err: err}
	}

	turns, err := s.dbStore.ListTurns(ctx, in.UserID, in.CoachingID)
	if err != nil {
		return "", &StoreError{Op: "load chat history", Err: err}
	}

	reply, err := s.generator.Generate(ctx, llm.Request{
		Provider:     cfg.ProviderID,
		Model:        cfg.ModelID,
		Credential:   cfg.Credential,
		SystemPrompt: cfg.SystemPrompt,
		History:      conversation(turns, userTurn.ID),
		Prompt:       in.Prompt,
		BaseURL:      in.BaseURL,
	})
	if errors.Is(err, llm.ErrEmptyReply) {
		log.Printf("Provider %q returned no text for coaching %s, storing fallback reply", llm.Resolve(cfg.ProviderID), in.CoachingID)
		if storeErr := s.appendModelTurn(ctx, in, FallbackReply); storeErr != nil {
			return "", storeErr
		}
		return "", err
	}
	if err != nil {
		log.Printf("Provider call failed for user %s, coaching %s: %v", in.UserID, in.CoachingID, err)
		return "", err
	}

	if err := s.appendModelTurn(ctx, in, reply); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *ChatService) appendModelTurn(ctx context.Context, in PromptInput, content string) error {
	modelTurn := store.ChatTurn{
		UserID:     in.UserID,
		CoachingID: in.CoachingID,
		Role:       store.RoleModel,
		Content:    content,
	}
	if err := s.dbStore.AppendTurn(ctx, &modelTurn); err != nil {
		return &StoreError{Op: "store model turn", Err: err}
	}
	return nil
}

// conversation converts stored turns into provider-neutral messages. The turn
// holding the current prompt is skipped since the prompt is sent separately
// as the final user message.
func conversation(turns []store.ChatTurn, promptTurnID string) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		if turn.ID == promptTurnID {
			continue
		}
		messages = append(messages, llm.Message{Role: llm.Role(turn.Role), Text: turn.Content})
	}
	return messages
}

// UndoLastTurn deletes the newest model turn and the newest user turn of the
// pair. The two rows are looked up independently, so they need not be
// adjacent. A count below two comes back with ErrIncompleteUndo.
func (s *ChatService) UndoLastTurn(ctx context.Context, userID, coachingID string) (int, error) {
	if err := required("userId", userID, "coachingId", coachingID); err != nil {
		return 0, err
	}

	lastModelID, err := s.dbStore.LatestTurnID(ctx, userID, coachingID, store.RoleModel)
	if err != nil {
		return 0, &StoreError{Op: "find last model turn", Err: err}
	}
	lastUserID, err := s.dbStore.LatestTurnID(ctx, userID, coachingID, store.RoleUser)
	if err != nil {
		return 0, &StoreError{Op: "find last user turn", Err: err}
	}

	deleted := 0
	for _, target := range []struct {
		role store.Role
		id   string
	}{
		{store.RoleModel, lastModelID},
		{store.RoleUser, lastUserID},
	} {
		if target.id == "" {
			log.Printf("Undo for user %s, coaching %s: no %s turn found", userID, coachingID, target.role)
			continue
		}
		ok, err := s.dbStore.DeleteTurn(ctx, target.id)
		if err != nil {
			return deleted, &StoreError{Op: fmt.Sprintf("delete last %s turn", target.role), Err: err}
		}
		if ok {
			deleted++
		}
	}

	if deleted < 2 {
		return deleted, ErrIncompleteUndo
	}
	return deleted, nil
}

// GetHistory returns the user's turns oldest first. An empty coachingID
// spans every coaching context.
func (s *ChatService) GetHistory(ctx context.Context, userID, coachingID string) ([]store.ChatTurn, error) {
	if err := required("userId", userID); err != nil {
		return nil, err
	}
	turns, err := s.dbStore.ListTurns(ctx, userID, coachingID)
	if err != nil {
		return nil, &StoreError{Op: "load chat history", Err: err}
	}
	return turns, nil
}

func (s *ChatService) GetConfig(ctx context.Context, coachingID string) (*store.CoachingConfig, error) {
	if err := required("coachingId", coachingID); err != nil {
		return nil, err
	}
	cfg, err := s.dbStore.GetCoachingConfig(ctx, coachingID)
	if err != nil {
		return nil, &StoreError{Op: "load coaching config", Err: err}
	}
	if cfg == nil {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

// UpdateConfig changes the settings of an existing coaching context. An empty
// ProviderID keeps the stored provider.
func (s *ChatService) UpdateConfig(ctx context.Context, cfg store.CoachingConfig) error {
	if err := required(
		"coachingId", cfg.CoachingID,
		"contextPrompt", cfg.SystemPrompt,
		"apiKey", cfg.Credential,
		"model", cfg.ModelID,
	); err != nil {
		return err
	}
	if cfg.ProviderID != "" {
		p, err := llm.ParseProvider(cfg.ProviderID)
		if err != nil {
			return &ValidationError{Fields: []string{"apiProvider"}, Reason: fmt.Sprintf("unknown provider %q", cfg.ProviderID)}
		}
		cfg.ProviderID = string(p)
	}

	found, err := s.dbStore.UpdateCoachingConfig(ctx, cfg)
	if err != nil {
		return &StoreError{Op: "update coaching config", Err: err}
	}
	if !found {
		return ErrConfigNotFound
	}
	return nil
}

// ListModels asks the provider which models the credential can use.
func (s *ChatService) ListModels(ctx context.Context, credential, providerID string) ([]string, error) {
	if err := required("apiKey", credential, "provider", providerID); err != nil {
		return nil, err
	}
	if _, err := llm.ParseProvider(providerID); err != nil {
		return nil, &ValidationError{Fields: []string{"provider"}, Reason: fmt.Sprintf("unknown provider %q", providerID)}
	}
	return s.catalog.ListModels(ctx, credential, providerID)
}

// Ready reports whether the backing store is reachable.
func (s *ChatService) Ready(ctx context.Context) error {
	return s.dbStore.Ping(ctx)
}
