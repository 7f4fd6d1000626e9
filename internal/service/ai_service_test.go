package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"app/internal/config"
	"app/internal/model"

	"github.com/rs/zerolog"
)

func newTestAIService(t *testing.T, cfg *config.Config, provider string) *aiService {
	t.Helper()
	modelRepo := &fakeAIModelRepo{models: map[string]*model.AIModel{
		"m1": {ID: "m1", Provider: provider, ModelName: "test-model", IsActive: true},
		"m2": {ID: "m2", Provider: provider, ModelName: "retired-model", IsActive: false},
	}}
	return NewAIService(modelRepo, cfg, nil, zerolog.Nop()).(*aiService)
}

func TestInterpretGoogle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "test-model") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "shared-key" {
			t.Errorf("expected API key in query, got %q", r.URL.Query().Get("key"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{
						"text": "```json\n{\"action\": \"crop\", \"parameters\": {\"aspect\": \"1:1\"}}\n```",
					}},
				},
			}},
		})
	}))
	defer ts.Close()

	svc := newTestAIService(t, &config.Config{GoogleAIAPIKey: "shared-key"}, "google")
	svc.googleURL = ts.URL

	action, err := svc.Interpret(context.Background(), "u1", "crop to a square", "m1")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if action.Action != "crop" {
		t.Fatalf("expected crop, got %q", action.Action)
	}
	if action.Parameters["aspect"] != "1:1" {
		t.Fatalf("unexpected parameters: %v", action.Parameters)
	}
}

func TestInterpretOpenAI(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer shared-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]string{
					"content": `{"action": "resize", "parameters": {"width": 800}}`,
				},
			}},
		})
	}))
	defer ts.Close()

	svc := newTestAIService(t, &config.Config{OpenAIAPIKey: "shared-key"}, "openai")
	svc.openAIURL = ts.URL

	action, err := svc.Interpret(context.Background(), "u1", "make it 800 wide", "m1")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if action.Action != "resize" {
		t.Fatalf("expected resize, got %q", action.Action)
	}
}

func TestInterpretAnthropic(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "shared-key" {
			t.Errorf("unexpected x-api-key %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{
				"text": `{"action": "filter", "parameters": {"name": "sepia"}}`,
			}},
		})
	}))
	defer ts.Close()

	svc := newTestAIService(t, &config.Config{AnthropicAPIKey: "shared-key"}, "anthropic")
	svc.anthropicURL = ts.URL

	action, err := svc.Interpret(context.Background(), "u1", "sepia please", "m1")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if action.Action != "filter" {
		t.Fatalf("expected filter, got %q", action.Action)
	}
}

func TestInterpretProviderFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer ts.Close()

	svc := newTestAIService(t, &config.Config{OpenAIAPIKey: "shared-key"}, "openai")
	svc.openAIURL = ts.URL

	_, err := svc.Interpret(context.Background(), "u1", "anything", "m1")
	if !errors.Is(err, ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected the upstream message to surface, got %v", err)
	}
}

func TestInterpretInactiveModel(t *testing.T) {
	svc := newTestAIService(t, &config.Config{GoogleAIAPIKey: "shared-key"}, "google")
	if _, err := svc.Interpret(context.Background(), "u1", "anything", "m2"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound for inactive model, got %v", err)
	}
	if _, err := svc.Interpret(context.Background(), "u1", "anything", "bogus"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound for unknown model, got %v", err)
	}
}

func TestInterpretMissingAPIKey(t *testing.T) {
	svc := newTestAIService(t, &config.Config{}, "google")
	if _, err := svc.Interpret(context.Background(), "u1", "anything", "m1"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestParseEditAction(t *testing.T) {
	action, err := parseEditAction(`{"action": "crop", "parameters": {"x": 1}}`)
	if err != nil {
		t.Fatalf("plain JSON: %v", err)
	}
	if action.Action != "crop" {
		t.Fatalf("expected crop, got %q", action.Action)
	}

	action, err = parseEditAction("```json\n{\"action\": \"crop\"}\n```")
	if err != nil {
		t.Fatalf("fenced JSON: %v", err)
	}
	if action.Parameters == nil {
		t.Fatal("missing parameters must default to an empty map")
	}

	if _, err := parseEditAction(`{"parameters": {}}`); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for missing action, got %v", err)
	}
	if _, err := parseEditAction("not json at all"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for junk, got %v", err)
	}
}
