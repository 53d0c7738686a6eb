// Package container wires the coaching router services using go.uber.org/dig.
package container

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/dig"

	"coachbot.io/ai-router/internal/api"
	"coachbot.io/ai-router/internal/config"
	"coachbot.io/ai-router/internal/core"
	"coachbot.io/ai-router/internal/llm"
	"coachbot.io/ai-router/internal/store"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	dbStore store.Store
	chat    *core.ChatService
	catalog *llm.Catalog
	handler http.Handler
}

func (c *Container) Store() store.Store             { return c.dbStore }
func (c *Container) ChatService() *core.ChatService { return c.chat }
func (c *Container) Catalog() *llm.Catalog          { return c.catalog }
func (c *Container) Handler() http.Handler          { return c.handler }

// Close releases the database connection.
func (c *Container) Close() error {
	return c.dbStore.Close()
}

// New builds and wires all services from cfg. The returned container owns the
// store and must be closed by the caller.
func New(ctx context.Context, cfg config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() context.Context { return ctx },
		func() config.Config { return cfg },
		newStore,
		newEndpoints,
		llm.NewRouter,
		llm.NewCatalog,
		newChatService,
		api.NewAPIHandler,
		api.NewRouter,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	var result *Container
	err := d.Invoke(func(
		dbStore store.Store,
		chat *core.ChatService,
		catalog *llm.Catalog,
		handler http.Handler,
	) {
		result = &Container{
			dbStore: dbStore,
			chat:    chat,
			catalog: catalog,
			handler: handler,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", dig.RootCause(err))
	}
	return result, nil
}

func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.UsesPostgres() {
		log.Println("Using PostgreSQL store")
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	log.Printf("Using SQLite store at %s", cfg.DatabaseURL)
	return store.NewSQLiteStore(cfg.DatabaseURL)
}

func newEndpoints(cfg config.Config) llm.Endpoints {
	return llm.Endpoints{
		OpenAI:      cfg.OpenAIBaseURL,
		DeepSeek:    cfg.DeepSeekBaseURL,
		Gemini:      cfg.GeminiEndpoint,
		Temperature: cfg.Temperature,
	}
}

func newChatService(dbStore store.Store, router *llm.Router, catalog *llm.Catalog) *core.ChatService {
	return core.NewChatService(dbStore, router, catalog)
}
