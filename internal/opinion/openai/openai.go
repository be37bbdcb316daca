package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"news-radar/internal/opinion"
	"news-radar/internal/store"
	"news-radar/internal/trace"
	"news-radar/internal/types"
)

// OpenAISource scores items with the OpenAI chat completions API.
type OpenAISource struct {
	cfg *store.Config
}

func NewOpenAISource(cfg *store.Config) *OpenAISource {
	return &OpenAISource{cfg: cfg}
}

func (s *OpenAISource) Name() string { return "llm" }

const systemPrompt = "You are a financial analyst expert at judging news sentiment for a single stock. Respond ONLY with valid JSON."

func (s *OpenAISource) Score(ctx context.Context, item types.Item) (types.Opinion, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return types.Opinion{}, errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": s.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(item)},
		},
		"temperature": s.cfg.LLM.Temperature,
		"max_tokens":  s.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.Opinion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Opinion{}, &opinion.HTTPError{Provider: "openai", Status: resp.StatusCode}
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Opinion{}, err
	}

	if len(r.Choices) == 0 {
		return types.Opinion{}, errors.New("no choices")
	}

	return ParseOpinion(s.Name(), r.Choices[0].Message.Content)
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

// ParseOpinion repairs and parses an LLM JSON response into an Opinion.
// Models wrap output in code fences or emit trailing commas often enough
// that repairing first is cheaper than re-asking.
func ParseOpinion(source, content string) (types.Opinion, error) {
	content = strings.TrimSpace(content)

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return types.Opinion{}, fmt.Errorf("unparseable response: %w", err)
	}

	var payload struct {
		Score      float64 `json:"score"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return types.Opinion{}, fmt.Errorf("invalid JSON response: %w", err)
	}

	op := types.Opinion{
		Source:     source,
		Score:      payload.Score,
		Confidence: payload.Confidence,
		Reasoning:  payload.Reasoning,
	}
	if op.Score < -1 || op.Score > 1 || op.Confidence < 0 || op.Confidence > 1 {
		return types.Opinion{}, fmt.Errorf("response out of range: score=%f confidence=%f", op.Score, op.Confidence)
	}
	return op, nil
}
