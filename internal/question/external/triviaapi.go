package external

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gokatarajesh/quiz-engine/internal/question"
)

// TriviaAPIClient integrates with triviaapi.com (needs API key env TRIVIA_API_KEY).
type TriviaAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ question.Provider = (*TriviaAPIClient)(nil)

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	if baseURL == "" {
		baseURL = "https://the-trivia-api.com/v2"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &TriviaAPIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type TriviaAPIQuestion struct {
	ID         string       `json:"id"`
	Category   string       `json:"category"`
	Question   triviaPrompt `json:"question"`
	Difficulty string       `json:"difficulty"`
	Type       string       `json:"type"`
	Correct    string       `json:"correctAnswer"`
	Incorrect  []string     `json:"incorrectAnswers"`
}

type triviaPrompt struct {
	Text string `json:"text"`
}

func (c *TriviaAPIClient) Name() string { return "triviaapi" }

// Generate renders questions for the topic, used as the category filter.
func (c *TriviaAPIClient) Generate(ctx context.Context, req question.Request) (string, error) {
	results, err := c.Fetch(ctx, req.Count, strings.ReplaceAll(req.Topic, " ", "_"), "")
	if err != nil {
		return "", err
	}
	items := make([]question.Item, 0, len(results))
	for _, r := range results {
		items = append(items, question.Item{
			Prompt:     r.Question.Text,
			Correct:    r.Correct,
			Incorrect:  r.Incorrect,
			Difficulty: r.Difficulty,
		})
	}
	return question.Render(items, func(int) int { return rand.Intn(4) }), nil
}

func (c *TriviaAPIClient) Fetch(ctx context.Context, amount int, category, difficulty string) ([]TriviaAPIQuestion, error) {
	values := url.Values{}
	values.Set("limit", fmt.Sprint(amount))
	if category != "" {
		values.Set("categories", category)
	}
	if difficulty != "" {
		values.Set("difficulties", difficulty)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/questions?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("triviaapi non-200: %d", resp.StatusCode)
	}

	var payload []TriviaAPIQuestion
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
