package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"abstract-lens/internal/llmservice"
	"abstract-lens/internal/models"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/api/option"
)

// LangChain summarizes through a langchaingo model (ollama or an
// OpenAI-compatible endpoint such as OpenRouter).
type LangChain struct {
	llm      llmservice.ContentGenerator
	provider string
	lengths  lengthHints
}

func (l *LangChain) Name() string { return l.provider }

func (l *LangChain) Summarize(ctx context.Context, text string) (string, error) {
	out, err := llmservice.GenerateText(ctx, l.llm, l.lengths.prompt(text),
		llms.WithMaxTokens(l.lengths.maxTokens()),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ChatClient mirrors the go-openai method used here so tests can swap it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI summarizes with the chat completions API.
type OpenAI struct {
	Client  ChatClient
	Model   string
	lengths lengthHints
}

func NewOpenAI(key, baseURL, model string, minLen, maxLen int) *OpenAI {
	lengths := lengthHints{min: minLen, max: maxLen}
	cfg := openai.DefaultConfig(strings.TrimPrefix(key, "Bearer "))
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{Client: openai.NewClientWithConfig(cfg), Model: model, lengths: lengths}
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You condense research abstracts."},
			{Role: openai.ChatMessageRoleUser, Content: o.lengths.prompt(text)},
		},
		MaxTokens:   o.lengths.maxTokens(),
		Temperature: 0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return "", fmt.Errorf("%w %d: %s", models.ErrBadStatus, apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", fmt.Errorf("%w %d: %v", models.ErrBadStatus, reqErr.HTTPStatusCode, reqErr.Err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", models.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

type geminiModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini summarizes with the Google generative AI API.
type Gemini struct {
	client  *genai.Client
	model   geminiModel
	lengths lengthHints
}

func NewGemini(ctx context.Context, key, model string, minLen, maxLen int) (*Gemini, error) {
	lengths := lengthHints{min: minLen, max: maxLen}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0)
	m.SetMaxOutputTokens(int32(lengths.maxTokens()))
	return &Gemini{client: client, model: m, lengths: lengths}, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(g.lengths.prompt(text)))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", models.ErrMalformedResponse)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
