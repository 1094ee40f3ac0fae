package embedding

import (
	"testing"

	"abstract-lens/internal/config"
)

func TestNewEmbeddingFunc_Disabled(t *testing.T) {
	for _, provider := range []string{"", "disabled"} {
		fn, err := NewEmbeddingFunc(&config.LLMConfig{Provider: provider})
		if err != nil || fn != nil {
			t.Fatalf("provider %q: got fn=%v err=%v", provider, fn != nil, err)
		}
	}
}

func TestNewEmbeddingFunc_Unsupported(t *testing.T) {
	if _, err := NewEmbeddingFunc(&config.LLMConfig{Provider: "gemini"}); err == nil {
		t.Fatal("expected error")
	}
}
