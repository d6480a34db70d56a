package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-engine/internal/question"
)

// Config holds connection details for the AI generator service.
type Config struct {
	GeneratorURL string
	GeneratorKey string
	Timeout      time.Duration
}

// Generator asks an LLM-backed service for quiz text in block format.
type Generator struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
}

var _ question.Provider = (*Generator)(nil)

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	base := strings.TrimSuffix(cfg.GeneratorURL, "/")

	return &Generator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "ai_generator").Logger(),
		generateURL: base + "/generate",
	}
}

func (g *Generator) Name() string { return "ai" }

// Generate requests quiz text for req.Topic.
func (g *Generator) Generate(ctx context.Context, req question.Request) (string, error) {
	if g.config.GeneratorURL == "" {
		return "", fmt.Errorf("generator endpoint not configured")
	}

	body, err := json.Marshal(generatorRequest{
		Topic:  req.Topic,
		Count:  req.Count,
		Format: formatHint,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.GeneratorKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.GeneratorKey)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var genResp generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode generator payload: %w", err)
	}
	if strings.TrimSpace(genResp.Text) == "" {
		return "", fmt.Errorf("generator returned empty text")
	}

	g.logger.Debug().
		Str("topic", req.Topic).
		Dur("took", time.Since(start)).
		Int("bytes", len(genResp.Text)).
		Msg("quiz text generated")
	return genResp.Text, nil
}

// formatHint is passed to the generator so its prompt asks for parseable blocks.
const formatHint = `N. (P points)
Question text
A. option
B. option
C. option
D. option
Answer: X`

type generatorRequest struct {
	Topic  string `json:"topic"`
	Count  int    `json:"count"`
	Format string `json:"format"`
}

type generatorResponse struct {
	Text string `json:"text"`
}
