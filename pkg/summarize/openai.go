package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/gitgist/gitgist/pkg/config"
)

// ErrMalformedSummary is returned when the model's response does not carry
// a usable summary object.
var ErrMalformedSummary = errors.New("model returned malformed summary")

const maxFacts = 10

const systemPrompt = `You are an expert developer documentation summarizer.
Summarize the following GitHub repository README for developers as required below.
Your response MUST be a valid, minified JSON object exactly matching this shape:
  { "summary": string, "facts": [string] }
Where:
- summary: required, is a concise and helpful README summary.
- facts: required, array of 3-10 important factual bullet points (features, tech stack, usage, limitations, etc).
If facts are not present in the README, extract only what is strictly factual.
DO NOT include any text before or after the JSON.
DO NOT add explanations or prose.`

// Summary is the structured output of a summarize call.
type Summary struct {
	Summary string   `json:"summary"`
	Facts   []string `json:"facts"`
}

type OpenAIClient struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int

	httpClient *http.Client
}

func NewOpenAIClient(conf config.Summarizer) *OpenAIClient {
	baseURL := conf.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIClient{
		apiKey:    conf.APIKey,
		model:     conf.Model,
		baseURL:   baseURL,
		maxTokens: conf.MaxTokens,
		httpClient: &http.Client{
			Timeout: 100 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// Summarize asks the model for a structured summary of a README. The model
// is instructed to emit a single JSON object; anything else is rejected as
// ErrMalformedSummary.
func (c *OpenAIClient) Summarize(ctx context.Context, readme string) (Summary, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "README:\n" + readme},
		},
		Temperature: 0,
		MaxTokens:   c.maxTokens,
	}
	body.ResponseFormat.Type = "json_object"

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return Summary{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(bodyJSON))
	if err != nil {
		return Summary{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, gjson.GetBytes(respBytes, "error.message").String())
	}

	content := gjson.GetBytes(respBytes, "choices.0.message.content").String()
	if content == "" {
		return Summary{}, ErrMalformedSummary
	}

	return parseSummaryPayload(content)
}

func parseSummaryPayload(content string) (Summary, error) {
	if !gjson.Valid(content) {
		return Summary{}, ErrMalformedSummary
	}

	parsed := gjson.Parse(content)
	rc := Summary{Summary: parsed.Get("summary").String()}
	for _, fact := range parsed.Get("facts").Array() {
		if fact.String() == "" {
			continue
		}
		rc.Facts = append(rc.Facts, fact.String())
	}

	if rc.Summary == "" || len(rc.Facts) < 3 {
		return Summary{}, ErrMalformedSummary
	}
	if len(rc.Facts) > maxFacts {
		rc.Facts = rc.Facts[:maxFacts]
	}
	return rc, nil
}
