package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"abstract-lens/internal/models"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

const defaultCollection = "sentences"

// SentenceIndex ranks the sentences of one upload by embedding similarity.
// It lives in memory for the session only and is safe for concurrent use.
type SentenceIndex struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embed      chromem.EmbeddingFunc
}

// NewSentenceIndex creates an in-memory collection using embed for both
// sentences and queries.
func NewSentenceIndex(embed chromem.EmbeddingFunc) (*SentenceIndex, error) {
	if embed == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(defaultCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &SentenceIndex{db: db, collection: c, embed: embed}, nil
}

// AddSentences embeds every non-blank sentence, remembering its position in
// the sentence list.
func (m *SentenceIndex) AddSentences(ctx context.Context, sentences []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(ctx, sentences)
}

// Replace swaps the indexed sentences for a new upload. Readers never see a
// mix of the old and new sentences.
func (m *SentenceIndex) Replace(ctx context.Context, sentences []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resetLocked(); err != nil {
		return err
	}
	return m.addLocked(ctx, sentences)
}

func (m *SentenceIndex) addLocked(ctx context.Context, sentences []string) error {
	docs := make([]chromem.Document, 0, len(sentences))
	for i, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:       strconv.Itoa(i),
			Content:  s,
			Metadata: map[string]string{"position": strconv.Itoa(i)},
		})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add sentences: %v", err)
	}
	log.Debug().Int("sentences", len(docs)).Msg("Indexed sentences")
	return nil
}

func (m *SentenceIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection.Count()
}

// Query returns up to n sentences most similar to query. An empty query
// returns nothing.
func (m *SentenceIndex) Query(ctx context.Context, query string, n int) ([]models.SemanticMatch, error) {
	if strings.TrimSpace(query) == "" || n <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if count := m.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}
	results, err := m.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	matches := make([]models.SemanticMatch, 0, len(results))
	for _, r := range results {
		pos, _ := strconv.Atoi(r.Metadata["position"])
		matches = append(matches, models.SemanticMatch{
			Sentence:   r.Content,
			Position:   pos,
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

// Reset drops all sentences, for a new upload.
func (m *SentenceIndex) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetLocked()
}

func (m *SentenceIndex) resetLocked() error {
	if err := m.db.DeleteCollection(defaultCollection); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	c, err := m.db.CreateCollection(defaultCollection, nil, m.embed)
	if err != nil {
		return fmt.Errorf("failed to create collection: %v", err)
	}
	m.collection = c
	return nil
}
