// Package summarize wraps the remote or local model that condenses extracted
// text. Every failure surfaces as *models.SummarizationError so callers can
// keep showing frequency and search results.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"abstract-lens/internal/config"
	"abstract-lens/internal/llmservice"
	"abstract-lens/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	ProviderDisabled = "disabled"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

// Summarizer condenses text into a single summary string.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Name() string
}

// New returns the backend named by cfg.Provider. Configuration problems such
// as a missing credential produce an Unavailable summarizer instead of an
// error, so the rest of the pipeline keeps working.
func New(ctx context.Context, cfg *config.LLMConfig) Summarizer {
	lengths := lengthHints{min: cfg.MinLength, max: cfg.MaxLength}
	switch cfg.Provider {
	case "", ProviderDisabled:
		return Unavailable{Provider: ProviderDisabled, Err: models.ErrSummarizerOff}
	case llmservice.ProviderOllama:
		llm, err := llmservice.NewModel(cfg)
		if err != nil {
			return unavailable(cfg.Provider, err)
		}
		return &LangChain{llm: llm, provider: cfg.Provider, lengths: lengths}
	case llmservice.ProviderLangChain:
		if cfg.Key == "" {
			return unavailable(cfg.Provider, models.ErrMissingCredential)
		}
		llm, err := llmservice.NewModel(cfg)
		if err != nil {
			return unavailable(cfg.Provider, err)
		}
		return &LangChain{llm: llm, provider: cfg.Provider, lengths: lengths}
	case ProviderOpenAI:
		if cfg.Key == "" {
			return unavailable(cfg.Provider, models.ErrMissingCredential)
		}
		return NewOpenAI(cfg.Key, cfg.BaseURL, cfg.Model, cfg.MinLength, cfg.MaxLength)
	case ProviderGemini:
		if cfg.Key == "" {
			return unavailable(cfg.Provider, models.ErrMissingCredential)
		}
		g, err := NewGemini(ctx, cfg.Key, cfg.Model, cfg.MinLength, cfg.MaxLength)
		if err != nil {
			return unavailable(cfg.Provider, err)
		}
		return g
	default:
		return unavailable(cfg.Provider, fmt.Errorf("unknown provider %q", cfg.Provider))
	}
}

// NewService assembles the configured backend, the optional redis cache and
// the Guard. The returned func releases backend and cache connections.
func NewService(ctx context.Context, cfg *config.Config) (Summarizer, func()) {
	inner := New(ctx, &cfg.Summarizer)
	var closers []io.Closer
	if c, ok := inner.(io.Closer); ok {
		closers = append(closers, c)
	}
	if _, off := inner.(Unavailable); !off && cfg.Cache.RedisAddr != "" {
		store, err := NewRedisStore(ctx, cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("Summary cache disabled")
		} else {
			inner = &Cached{
				Inner:     inner,
				Store:     store,
				TTL:       cfg.Cache.TTL,
				Model:     cfg.Summarizer.Model,
				MinLength: cfg.Summarizer.MinLength,
				MaxLength: cfg.Summarizer.MaxLength,
			}
			closers = append(closers, store)
		}
	}
	release := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("Error closing summarizer resource")
			}
		}
	}
	return NewGuard(inner, cfg), release
}

func unavailable(provider string, err error) Unavailable {
	log.Warn().Err(err).Str("provider", provider).Msg("Summarizer unavailable")
	return Unavailable{Provider: provider, Err: err}
}

// Unavailable always fails with its configured reason.
type Unavailable struct {
	Provider string
	Err      error
}

func (u Unavailable) Summarize(ctx context.Context, text string) (string, error) {
	return "", models.NewSummarizationError(u.Provider, u.Err)
}

func (u Unavailable) Name() string { return u.Provider }

type lengthHints struct {
	min, max int
}

func (l lengthHints) prompt(text string) string {
	minLen, maxLen := l.min, l.max
	if minLen <= 0 {
		minLen = models.DefaultSummaryMinLen
	}
	if maxLen <= 0 {
		maxLen = models.DefaultSummaryMaxLen
	}
	return fmt.Sprintf(models.SummaryPromptTemplate, minLen, maxLen, text)
}

// maxTokens leaves headroom over the word limit for tokenization.
func (l lengthHints) maxTokens() int {
	if l.max <= 0 {
		return models.DefaultSummaryMaxLen * 2
	}
	return l.max * 2
}

// Truncate keeps at most n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

// Guard bounds a call to the inner summarizer: the input is truncated to the
// provider limit and the call runs under its own timeout. Failed calls are
// retried up to MaxRetries times; the payload is deterministic so a retry
// cannot change the outcome of a successful call.
type Guard struct {
	Inner      Summarizer
	InputChars int
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// NewGuard applies the analysis and summarizer settings from cfg.
func NewGuard(inner Summarizer, cfg *config.Config) *Guard {
	return &Guard{
		Inner:      inner,
		InputChars: cfg.Analysis.SummaryInputChars,
		Timeout:    cfg.Summarizer.Timeout,
		MaxRetries: cfg.Summarizer.MaxRetries,
		Backoff:    500 * time.Millisecond,
	}
}

func (g *Guard) Name() string { return g.Inner.Name() }

func (g *Guard) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", models.NewSummarizationError(g.Name(), models.ErrExtractionEmpty)
	}
	input := Truncate(text, g.InputChars)

	var (
		summary string
		err     error
	)
	delay := g.Backoff
	for attempt := 0; attempt <= g.MaxRetries; attempt++ {
		summary, err = g.call(ctx, input)
		if err == nil || !retryable(err) || attempt == g.MaxRetries {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("next_delay", delay).Msg("Summarization failed, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", models.NewSummarizationError(g.Name(), ctx.Err())
		}
		delay *= 2
	}
	if err != nil {
		return "", models.NewSummarizationError(g.Name(), err)
	}
	return summary, nil
}

func (g *Guard) call(ctx context.Context, input string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	start := time.Now()
	summary, err := g.Inner.Summarize(ctx, input)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", models.ErrMalformedResponse
	}
	log.Debug().Str("provider", g.Name()).Dur("took", time.Since(start)).Int("input_chars", len(input)).Msg("Summarized text")
	return summary, nil
}

func retryable(err error) bool {
	return !errors.Is(err, models.ErrMissingCredential) &&
		!errors.Is(err, models.ErrSummarizerOff) &&
		!errors.Is(err, context.Canceled)
}
