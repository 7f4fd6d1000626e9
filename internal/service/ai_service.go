package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrModelNotFound means the model id is unknown or inactive.
	ErrModelNotFound = errors.New("ai model not found")
	// ErrProviderNotConfigured means no API key is available for the
	// model's provider, neither shared nor user-supplied.
	ErrProviderNotConfigured = errors.New("ai provider not configured")
	// ErrProviderError means the upstream provider call failed.
	ErrProviderError = errors.New("ai provider error")
	// ErrMalformedResponse means the provider's output did not parse into an
	// edit action.
	ErrMalformedResponse = errors.New("malformed ai response")
)

const (
	googleBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	openAIBaseURL    = "https://api.openai.com/v1"
	anthropicBaseURL = "https://api.anthropic.com/v1"

	anthropicVersion = "2023-06-01"
)

const interpretPrompt = `You are an image editing assistant. Interpret the user's instruction and
return the editing action to apply together with its parameters, as JSON.

User instruction: %s

Respond in exactly this JSON shape:
{
  "action": "name of the edit (e.g. adjust_brightness, adjust_contrast, crop, resize, filter)",
  "parameters": {
    "parameter name": "value"
  }
}

Return only the JSON, no explanation.`

// AIService interprets free-text editing instructions into structured edit
// actions by calling the provider behind the selected model. All failure
// modes are terminal for the current request; retry policy belongs to
// callers further out.
type AIService interface {
	// Interpret maps an instruction to an EditAction using the given model.
	// The user id selects a fallback API key when no shared key is set.
	Interpret(ctx context.Context, userID, instruction, modelID string) (*model.EditAction, error)
	// ListModels returns the active models users can choose from.
	ListModels(ctx context.Context) ([]model.AIModel, error)
}

// APIKeySource resolves a user-supplied provider API key, if any.
type APIKeySource interface {
	GetUserAPIKey(ctx context.Context, userID, provider string) (string, error)
}

type aiService struct {
	modelRepo    repository.AIModelRepository
	keys         map[string]string // provider -> shared API key
	userKeys     APIKeySource      // optional fallback, may be nil
	client       *http.Client
	googleURL    string
	openAIURL    string
	anthropicURL string
	logger       zerolog.Logger
}

// NewAIService creates a new AIService with the shared provider keys from
// config. userKeys may be nil when per-user keys are not supported.
func NewAIService(modelRepo repository.AIModelRepository, cfg *config.Config, userKeys APIKeySource, logger zerolog.Logger) AIService {
	return &aiService{
		modelRepo: modelRepo,
		keys: map[string]string{
			"google":    cfg.GoogleAIAPIKey,
			"openai":    cfg.OpenAIAPIKey,
			"anthropic": cfg.AnthropicAPIKey,
		},
		userKeys: userKeys,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		googleURL:    googleBaseURL,
		openAIURL:    openAIBaseURL,
		anthropicURL: anthropicBaseURL,
		logger:       logger.With().Str("service", "AIService").Logger(),
	}
}

// ListModels returns the active models.
func (s *aiService) ListModels(ctx context.Context) ([]model.AIModel, error) {
	return s.modelRepo.ListActiveModels(ctx)
}

// Interpret resolves the model, dispatches to its provider and parses the
// returned action JSON.
func (s *aiService) Interpret(ctx context.Context, userID, instruction, modelID string) (*model.EditAction, error) {
	m, err := s.modelRepo.GetModelByID(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("fetching ai model %s: %w", modelID, err)
	}
	if m == nil || !m.IsActive {
		return nil, ErrModelNotFound
	}

	apiKey, err := s.resolveAPIKey(ctx, userID, m.Provider)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(interpretPrompt, instruction)

	var text string
	switch m.Provider {
	case "google":
		text, err = s.callGoogle(ctx, m.ModelName, apiKey, prompt)
	case "openai":
		text, err = s.callOpenAI(ctx, m.ModelName, apiKey, prompt)
	case "anthropic":
		text, err = s.callAnthropic(ctx, m.ModelName, apiKey, prompt)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrProviderNotConfigured, m.Provider)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("provider", m.Provider).Str("model", m.ModelName).Msg("Interpretation call failed")
		return nil, err
	}

	action, err := parseEditAction(text)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", m.Provider).Msg("Failed to parse interpretation response")
		return nil, err
	}
	return action, nil
}

// resolveAPIKey prefers the shared key and falls back to the user's own key
// stored in Secret Manager.
func (s *aiService) resolveAPIKey(ctx context.Context, userID, provider string) (string, error) {
	if key := s.keys[provider]; key != "" {
		return key, nil
	}
	if s.userKeys != nil {
		key, err := s.userKeys.GetUserAPIKey(ctx, userID, provider)
		if err == nil && key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: no API key for provider %q", ErrProviderNotConfigured, provider)
}

func (s *aiService) callGoogle(ctx context.Context, modelName, apiKey, prompt string) (string, error) {
	requestBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.googleURL, modelName, apiKey)
	body, err := s.post(ctx, url, nil, requestBody)
	if err != nil {
		return "", err
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrMalformedResponse)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (s *aiService) callOpenAI(ctx context.Context, modelName, apiKey, prompt string) (string, error) {
	requestBody := map[string]any{
		"model": modelName,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	body, err := s.post(ctx, s.openAIURL+"/chat/completions", headers, requestBody)
	if err != nil {
		return "", err
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *aiService) callAnthropic(ctx context.Context, modelName, apiKey, prompt string) (string, error) {
	requestBody := map[string]any{
		"model":      modelName,
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}
	body, err := s.post(ctx, s.anthropicURL+"/messages", headers, requestBody)
	if err != nil {
		return "", err
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	return resp.Content[0].Text, nil
}

func (s *aiService) post(ctx context.Context, url string, headers map[string]string, requestBody any) ([]byte, error) {
	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProviderError, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrProviderError, errorResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrProviderError, resp.StatusCode)
	}

	return body, nil
}

// parseEditAction parses the model's answer into an EditAction, tolerating a
// markdown code fence around the JSON.
func parseEditAction(text string) (*model.EditAction, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var action model.EditAction
	if err := json.Unmarshal([]byte(trimmed), &action); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if action.Action == "" {
		return nil, fmt.Errorf("%w: missing action", ErrMalformedResponse)
	}
	if action.Parameters == nil {
		action.Parameters = map[string]any{}
	}
	return &action, nil
}
