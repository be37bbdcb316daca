package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"news-radar/internal/opinion"
	"news-radar/internal/opinion/openai"
	"news-radar/internal/store"
	"news-radar/internal/trace"
	"news-radar/internal/types"
)

// ClaudeSource scores items with the Anthropic messages API.
type ClaudeSource struct {
	cfg *store.Config
}

func NewClaudeSource(cfg *store.Config) *ClaudeSource {
	return &ClaudeSource{cfg: cfg}
}

func (s *ClaudeSource) Name() string { return "llm" }

func (s *ClaudeSource) Score(ctx context.Context, item types.Item) (types.Opinion, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return types.Opinion{}, errors.New("ANTHROPIC_API_KEY missing")
	}

	body := map[string]any{
		"model":      s.cfg.LLM.Model,
		"max_tokens": s.cfg.LLM.MaxTokens,
		"system":     "You are a financial analyst expert at judging news sentiment for a single stock. Respond ONLY with valid JSON.",
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(item)},
		},
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(bb))
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.Opinion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Opinion{}, &opinion.HTTPError{Provider: "claude", Status: resp.StatusCode}
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Opinion{}, err
	}

	if len(r.Content) == 0 {
		return types.Opinion{}, errors.New("empty response")
	}

	return openai.ParseOpinion(s.Name(), r.Content[0].Text)
}

func buildPrompt(item types.Item) string {
	content := item.Content
	if len(content) > 2000 {
		content = content[:2000] + "..."
	}

	return fmt.Sprintf(`Judge the sentiment of this news item about %s stock for investment purposes.

Title: %s
Source: %s
Content: %s

Respond ONLY with valid JSON matching this schema:
{"score": -1.0 to 1.0 (float), "confidence": 0.0 to 1.0 (float), "reasoning": "brief explanation"}`,
		item.Ticker, item.Title, item.Source, content)
}
