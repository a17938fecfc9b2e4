package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"PriceTracker/internal/config"
	"PriceTracker/internal/domain"
	"PriceTracker/internal/logging"
	"PriceTracker/internal/ports"
)

const maxSummaryRetries = 2

// keywordTrimSet is stripped from both ends of a keyword answer.
const keywordTrimSet = "\"'`「」『』。.!！ \t\r\n"

// completer sends one system+user exchange to a provider and returns the raw text answer.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Model implements ports.LanguageModel on top of a provider completer.
type Model struct {
	provider string
	backend  completer
	prompts  Prompts
	retries  int
	logger   *slog.Logger
}

var _ ports.LanguageModel = (*Model)(nil)

// New selects the provider configured in cfg.
func New(cfg config.LLMConfig, log *slog.Logger) (*Model, error) {
	var backend completer
	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key is not configured")
		}
		backend = NewOpenAIClient(cfg.OpenAI, cfg.Timeout)
	case config.ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, errors.New("anthropic api key is not configured")
		}
		backend = NewAnthropicClient(cfg.Anthropic, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return newModel(cfg.Provider, backend, NewPrompts(cfg.Topic), cfg.SummaryRetries, log), nil
}

func newModel(provider string, backend completer, prompts Prompts, retries int, log *slog.Logger) *Model {
	if retries < 0 {
		retries = 0
	}
	if retries > maxSummaryRetries {
		retries = maxSummaryRetries
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Model{
		provider: provider,
		backend:  backend,
		prompts:  prompts,
		retries:  retries,
		logger:   log.With("provider", provider),
	}
}

// Classify rates a headline title. Answers outside high/medium/low yield a ClassifierFault.
func (m *Model) Classify(ctx context.Context, title string) (domain.Relevance, error) {
	answer, err := m.backend.complete(ctx, m.prompts.Classify, title)
	if err != nil {
		return "", err
	}

	label, ok := domain.ParseRelevance(answer)
	if !ok {
		return "", &domain.ClassifierFault{Response: answer}
	}
	return label, nil
}

// Summarize asks for the impact/reason pair. A malformed answer is retried a bounded number of times.
func (m *Model) Summarize(ctx context.Context, body string) (domain.Summary, error) {
	var lastErr error
	for attempt := 0; attempt <= m.retries; attempt++ {
		answer, err := m.backend.complete(ctx, m.prompts.Summarize, body)
		if err != nil {
			return domain.Summary{}, err
		}

		summary, err := ParseSummary(answer)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		m.logger.Warn("malformed summary", "attempt", attempt+1, "error", err)
	}
	return domain.Summary{}, lastErr
}

// ExtractKeywords turns a free-text request into a search term.
func (m *Model) ExtractKeywords(ctx context.Context, prompt string) (string, error) {
	answer, err := m.backend.complete(ctx, m.prompts.Keywords, prompt)
	if err != nil {
		return "", err
	}

	keywords := strings.Join(strings.Fields(strings.Trim(strings.TrimSpace(answer), keywordTrimSet)), " ")
	if keywords == "" {
		return "", errors.New("model returned no keywords")
	}
	return keywords, nil
}

// ParseSummary decodes a summary answer. It accepts the impact/reason keys or their Chinese
// counterparts, and tolerates a fenced code block around the object.
func ParseSummary(answer string) (domain.Summary, error) {
	raw := stripFence(answer)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.Summary{}, &domain.SummaryFormatError{Response: answer, Err: err}
	}

	impact := firstString(fields, "impact", "影響")
	reason := firstString(fields, "reason", "原因")
	if impact == "" || reason == "" {
		return domain.Summary{}, &domain.SummaryFormatError{
			Response: answer,
			Err:      errors.New("impact and reason are both required"),
		}
	}

	return domain.Summary{Impact: impact, Reason: reason}, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
