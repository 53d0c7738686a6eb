package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachbot.io/ai-router/internal/core"
	"coachbot.io/ai-router/internal/llm"
	"coachbot.io/ai-router/internal/store"
)

type stubGenerator struct {
	reply string
	err   error
	last  llm.Request
}

func (g *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.last = req
	return g.reply, g.err
}

type stubCatalog struct {
	models []string
	err    error
}

func (c *stubCatalog) ListModels(context.Context, string, string) ([]string, error) {
	return c.models, c.err
}

type testServer struct {
	handler http.Handler
	db      *store.SQLiteStore
	gen     *stubGenerator
	catalog *stubCatalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.UpsertCoachingConfig(context.Background(), store.CoachingConfig{
		CoachingID:   "coach-1",
		SystemPrompt: "You are a nutrition coach.",
		Credential:   "key-1",
		ModelID:      "gemini-1.5-flash",
		ProviderID:   "gemini",
	}))

	gen := &stubGenerator{reply: "Eat more greens."}
	catalog := &stubCatalog{models: []string{"gpt-4o", "gpt-4o-mini"}}
	svc := core.NewChatService(db, gen, catalog)
	return &testServer{
		handler: NewRouter(NewAPIHandler(svc)),
		db:      db,
		gen:     gen,
		catalog: catalog,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec, body := ts.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestPromptAndHistory(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodPost, "/api/prompt", PromptRequest{
		Prompt:     "What should I eat?",
		UserID:     "u1",
		CoachingID: "coach-1",
		BaseURL:    "http://localhost:9999/v1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Eat more greens.", body["aiResponse"])
	assert.Equal(t, "http://localhost:9999/v1", ts.gen.last.BaseURL)
	assert.Equal(t, "gemini", ts.gen.last.Provider)

	rec, body = ts.do(t, http.MethodGet, "/api/history?userId=u1&coachingId=coach-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history, ok := body["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, map[string]any{"role": "user", "message": "What should I eat?"}, history[0])
	assert.Equal(t, map[string]any{"role": "model", "message": "Eat more greens."}, history[1])
}

func TestHistory_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?userId=nobody", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"history":[]}`, rec.Body.String())
}

func TestPrompt_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		genErr  error
		status  int
		errText string
	}{
		{
			name:    "missing fields",
			body:    PromptRequest{Prompt: "hi"},
			status:  http.StatusBadRequest,
			errText: "missing required parameters: userId, coachingId",
		},
		{
			name:   "unknown coaching context",
			body:   PromptRequest{Prompt: "hi", UserID: "u1", CoachingID: "nope"},
			status: http.StatusNotFound,
		},
		{
			name:   "provider rejected",
			body:   PromptRequest{Prompt: "hi", UserID: "u1", CoachingID: "coach-1"},
			genErr: &llm.ProviderError{Provider: llm.Gemini, StatusCode: 429, Body: "quota"},
			status: http.StatusBadGateway,
		},
		{
			name:   "empty reply",
			body:   PromptRequest{Prompt: "hi", UserID: "u1", CoachingID: "coach-1"},
			genErr: llm.ErrEmptyReply,
			status: http.StatusInternalServerError,
		},
		{
			name:   "unexpected failure",
			body:   PromptRequest{Prompt: "hi", UserID: "u1", CoachingID: "coach-1"},
			genErr: errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.gen.err = tt.genErr
			rec, body := ts.do(t, http.MethodPost, "/api/prompt", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["error"])
			if tt.errText != "" {
				assert.Equal(t, tt.errText, body["error"])
			}
		})
	}
}

func TestPrompt_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/prompt", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteLast(t *testing.T) {
	ts := newTestServer(t)
	_, _ = ts.do(t, http.MethodPost, "/api/prompt", PromptRequest{Prompt: "one", UserID: "u1", CoachingID: "coach-1"})

	rec, body := ts.do(t, http.MethodPost, "/api/history/delete_last", DeleteLastRequest{UserID: "u1", CoachingID: "coach-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, body["deleted"])

	rec, body = ts.do(t, http.MethodPost, "/api/history/delete_last", DeleteLastRequest{UserID: "u1", CoachingID: "coach-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 0, body["deleted"])
	assert.NotEmpty(t, body["error"])

	rec, _ = ts.do(t, http.MethodPost, "/api/history/delete_last", DeleteLastRequest{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/coach/settings/coach-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You are a nutrition coach.", body["context_prompt"])
	assert.Equal(t, "gemini-1.5-flash", body["model"])
	assert.Equal(t, "gemini", body["api_provider"])

	rec, body = ts.do(t, http.MethodPost, "/api/coach/settings", UpdateSettingsRequest{
		CoachingID:    "coach-1",
		ContextPrompt: "You are a sleep coach.",
		APIKey:        "key-2",
		Model:         "deepseek-chat",
		APIProvider:   "DeepSeek",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Settings updated successfully.", body["message"])

	cfg, err := ts.db.GetCoachingConfig(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.Equal(t, "You are a sleep coach.", cfg.SystemPrompt)
	assert.Equal(t, "key-2", cfg.Credential)
	assert.Equal(t, "deepseek", cfg.ProviderID)

	rec, _ = ts.do(t, http.MethodGet, "/api/coach/settings/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/coach/settings", UpdateSettingsRequest{
		CoachingID: "missing", ContextPrompt: "p", APIKey: "k", Model: "m",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/coach/settings", UpdateSettingsRequest{
		CoachingID: "coach-1", ContextPrompt: "p", APIKey: "k", Model: "m", APIProvider: "mistral",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/coach/settings", UpdateSettingsRequest{CoachingID: "coach-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListModels(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/models?apiKey=k&provider=openai", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"gpt-4o", "gpt-4o-mini"}, body["models"])

	rec, _ = ts.do(t, http.MethodGet, "/api/models?provider=openai", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/models?apiKey=k&provider=mistral", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.catalog.err = &llm.CredentialError{Provider: llm.OpenAI, StatusCode: 401, Body: "bad key"}
	rec, _ = ts.do(t, http.MethodGet, "/api/models?apiKey=k&provider=openai", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.catalog.err = &llm.UnavailableError{Provider: llm.OpenAI, StatusCode: 503}
	rec, _ = ts.do(t, http.MethodGet, "/api/models?apiKey=k&provider=openai", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWriteError_StoreErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &core.StoreError{Op: "load chat history", Err: errors.New("disk I/O error at /var/lib/db")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error."}`, rec.Body.String())
}
