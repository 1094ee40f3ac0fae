package embedding

import (
	"fmt"

	"abstract-lens/internal/config"
	"abstract-lens/internal/llmservice"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

// NewEmbeddingFunc returns a chromem embedding function backed by a
// langchaingo embedder, or nil when embeddings are disabled.
func NewEmbeddingFunc(llmConfig *config.LLMConfig) (chromem.EmbeddingFunc, error) {
	if llmConfig.Provider == "" || llmConfig.Provider == "disabled" {
		return nil, nil
	}
	log.Debug().Interface("config", map[string]string{
		"provider":        llmConfig.Provider,
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Loaded embedding config")

	llm, err := llmservice.NewModel(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	client, ok := llm.(embeddings.EmbedderClient)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot create embeddings", llmConfig.Provider)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder.EmbedQuery, nil
}
