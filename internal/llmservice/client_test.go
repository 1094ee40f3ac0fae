package llmservice

import (
	"context"
	"errors"
	"testing"

	"abstract-lens/internal/config"

	"github.com/tmc/langchaingo/llms"
)

type fakeGenerator struct {
	resp   *llms.ContentResponse
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) == 1 && len(messages[0].Parts) == 1 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = tc.Text
		}
	}
	return f.resp, f.err
}

func TestGenerateText(t *testing.T) {
	f := &fakeGenerator{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}}
	out, err := GenerateText(context.Background(), f, "hello")
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
	if f.prompt != "hello" {
		t.Fatalf("prompt = %q", f.prompt)
	}
}

func TestGenerateText_Errors(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"backend error", &fakeGenerator{err: errors.New("boom")}},
		{"nil response", &fakeGenerator{}},
		{"no choices", &fakeGenerator{resp: &llms.ContentResponse{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateText(context.Background(), tt.gen, "x"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewModel_UnknownProvider(t *testing.T) {
	if _, err := NewModel(&config.LLMConfig{Provider: "gemini"}); err == nil {
		t.Fatal("expected error for a provider langchaingo is not used for")
	}
}
