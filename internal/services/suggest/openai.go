package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRecipesInPrompt caps the catalog portion of the prompt
	DefaultMaxRecipesInPrompt = 50
)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client             openai.Client
	model              string
	maxRecipesInPrompt int
	logger             *zap.Logger
	debugMode          bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:             client,
		model:              model,
		maxRecipesInPrompt: DefaultMaxRecipesInPrompt,
		logger:             logger,
		debugMode:          debugMode,
	}
}

// SuggestMeals proposes meals for the unplanned days in the request
func (p *OpenAIProvider) SuggestMeals(ctx context.Context, req Request) ([]Suggestion, error) {
	prompt := buildSuggestionPrompt(req, p.maxRecipesInPrompt)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a meal planning assistant for a family. Propose meals for the listed days, preferring recipes from the family's catalog. Respect the dietary constraints strictly. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}

	apiReq := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "suggest_meals"),
			zap.String("model", p.model),
			zap.String("prompt_preview", SanitizePrompt(prompt, false)),
			zap.Int("recipe_count", len(req.Recipes)),
			zap.Int("day_count", len(req.Days)),
		)
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, apiReq)
	latency := time.Since(startTime)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "suggest_meals"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to suggest meals: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to suggest meals: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "suggest_meals"),
			zap.String("model", p.model),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parseSuggestionResponse(resp.Choices[0].Message.Content)
}

// buildSuggestionPrompt renders the catalog, preferences and unplanned
// days into the user prompt. The catalog is capped so one family with
// hundreds of recipes cannot blow the context window.
func buildSuggestionPrompt(req Request, maxRecipes int) string {
	var b strings.Builder

	b.WriteString("Propose one meal for each of these days:\n")
	for _, day := range req.Days {
		b.WriteString("- ")
		b.WriteString(day)
		b.WriteString("\n")
	}

	if prefs := req.Preferences; prefs != nil {
		b.WriteString("\nDietary constraints:\n")
		if prefs.Diet != nil && *prefs.Diet != "" {
			fmt.Fprintf(&b, "- Diet: %s\n", sanitizePromptText(*prefs.Diet))
		}
		if len(prefs.Allergies) > 0 {
			fmt.Fprintf(&b, "- Allergies (never suggest these): %s\n", sanitizePromptText(strings.Join(prefs.Allergies, ", ")))
		}
		if len(prefs.Dislikes) > 0 {
			fmt.Fprintf(&b, "- Dislikes (avoid): %s\n", sanitizePromptText(strings.Join(prefs.Dislikes, ", ")))
		}
		if prefs.Notes != "" {
			fmt.Fprintf(&b, "- Notes: %s\n", sanitizePromptText(prefs.Notes))
		}
	}

	recipes := req.Recipes
	if len(recipes) > maxRecipes {
		recipes = recipes[:maxRecipes]
	}
	if len(recipes) > 0 {
		b.WriteString("\nFamily recipe catalog (prefer these):\n")
		for _, r := range recipes {
			fmt.Fprintf(&b, "- %s", sanitizePromptText(r.Name))
			if len(r.Tags) > 0 {
				fmt.Fprintf(&b, " [%s]", sanitizePromptText(strings.Join(r.Tags, ", ")))
			}
			b.WriteString("\n")
		}
	}

	count := req.Count
	if count <= 0 {
		count = len(req.Days)
	}
	fmt.Fprintf(&b, "\nReturn at most %d suggestions as JSON: "+
		`{"suggestions":[{"date":"YYYY-MM-DD","recipe_name":"...","meal_type":"Dinner","reason":"one short sentence"}]}`+"\n", count)

	return b.String()
}

// parseSuggestionResponse parses the model's JSON answer, tolerating
// prose wrapped around the JSON object the way some models do.
func parseSuggestionResponse(content string) ([]Suggestion, error) {
	var parsed struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
		}
	}

	suggestions := make([]Suggestion, 0, len(parsed.Suggestions))
	for _, s := range parsed.Suggestions {
		if s.RecipeName == "" || s.Date == "" {
			continue
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}
