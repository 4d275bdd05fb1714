// Package writerclient submits writer prompts to an LLM vendor and parses
// the strict JSON response contract from spec §4.J.
//
// It is built on github.com/sashabaranov/go-openai, a dependency the
// teacher's own go.mod already declared but never imported — its ai.Service
// spoke to Ollama with raw net/http instead. go-openai's custom BaseURL
// support and JSON-object response mode are exactly what §4.J needs for a
// DeepSeek-compatible vendor endpoint, so this finishes what the teacher
// started rather than adding a new dependency outright.
package writerclient

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/geraldfingburke/autopress/internal/models"
)

// Channel-default temperatures per §4.J, used when a site's writer config
// doesn't override them.
const (
	defaultArticleTemperature = 0.7
	defaultSocialTemperature  = 0.8
	defaultBlogTemperature    = 0.7
)

// Config describes the vendor connection for one site's writer.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// Client submits chat completions and parses the strict writer response
// contract.
type Client struct {
	openai *openai.Client
	model  string
}

// New builds a Client from Config. An empty BaseURL uses go-openai's
// default (api.openai.com); a non-empty one targets a DeepSeek-style
// OpenAI-compatible endpoint.
func New(cfg Config) *Client {
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		openai: openai.NewClientWithConfig(oaCfg),
		model:  cfg.Model,
	}
}

// ArticleResponse is the full article+social contract.
type ArticleResponse struct {
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle"`
	ArticleText     string   `json:"article_text"`
	ImageCategories []string `json:"image_categories"`
	LinkedInPost    string   `json:"linkedin_post"`
	XPost           string   `json:"x_post"`
	ShortsScript    string   `json:"shorts_script"`
}

// SocialResponse is the social-only contract, used both as a standalone
// channel and as the fallback merge target when an article response omits
// social fields.
type SocialResponse struct {
	LinkedInPost string `json:"linkedin_post"`
	XPost        string `json:"x_post"`
	ShortsScript string `json:"shorts_script"`
}

// HasSocialFields reports whether a parsed ArticleResponse already carries
// usable social content, so callers know whether the §4.K(d) fallback path
// needs to fire.
func (r ArticleResponse) HasSocialFields() bool {
	return r.LinkedInPost != "" && r.XPost != "" && r.ShortsScript != ""
}

// temperatureFor resolves the channel default per §4.J unless cfg
// overrides it.
func temperatureFor(cfg Config, channel string) float32 {
	if cfg.Temperature != 0 {
		return cfg.Temperature
	}
	switch channel {
	case "social":
		return defaultSocialTemperature
	case "blog":
		return defaultBlogTemperature
	default:
		return defaultArticleTemperature
	}
}

// GenerateArticle submits an article/blog-channel prompt and parses the
// strict response contract. On malformed JSON it retries once with a
// stricter re-prompt; a second failure is a fatal writer error for this
// article per §4.J / §7 kind (4).
func (c *Client) GenerateArticle(ctx context.Context, cfg Config, channel, promptText string) (*ArticleResponse, models.Tokens, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		text := promptText
		if attempt == 1 {
			text = strictReprompt(promptText)
		}

		raw, usage, err := c.complete(ctx, cfg, channel, text)
		if err != nil {
			lastErr = err
			continue
		}

		var parsed ArticleResponse
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			lastErr = fmt.Errorf("writerclient: parse article response: %w", err)
			continue
		}

		return &parsed, models.Tokens{Prompt: usage.PromptTokens, Completion: usage.CompletionTokens}, nil
	}
	return nil, models.Tokens{}, fmt.Errorf("writerclient: fatal, article response unparsable after retry: %w", lastErr)
}

// GenerateSocial submits a social-only prompt, used both standalone and as
// the §4.K(d) fallback merge path.
func (c *Client) GenerateSocial(ctx context.Context, cfg Config, promptText string) (*SocialResponse, models.Tokens, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		text := promptText
		if attempt == 1 {
			text = strictReprompt(promptText)
		}

		raw, usage, err := c.complete(ctx, cfg, "social", text)
		if err != nil {
			lastErr = err
			continue
		}

		var parsed SocialResponse
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			lastErr = fmt.Errorf("writerclient: parse social response: %w", err)
			continue
		}

		return &parsed, models.Tokens{Prompt: usage.PromptTokens, Completion: usage.CompletionTokens}, nil
	}
	return nil, models.Tokens{}, fmt.Errorf("writerclient: fatal, social response unparsable after retry: %w", lastErr)
}

func (c *Client) complete(ctx context.Context, cfg Config, channel, promptText string) (string, openai.Usage, error) {
	resp, err := c.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperatureFor(cfg, channel),
		MaxTokens:   cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: promptText},
		},
	})
	if err != nil {
		return "", openai.Usage{}, fmt.Errorf("writerclient: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", openai.Usage{}, fmt.Errorf("writerclient: empty choices in response")
	}
	return resp.Choices[0].Message.Content, resp.Usage, nil
}

// strictReprompt is appended on the single retry §4.J allows, emphasizing
// that the response must be JSON and nothing else.
func strictReprompt(promptText string) string {
	return promptText + "\n\nIMPORTANT: your previous response was not valid JSON. Respond with ONLY a single valid JSON object, no markdown fences, no commentary before or after."
}
