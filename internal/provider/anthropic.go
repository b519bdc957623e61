package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Anthropic talks to the Anthropic messages API.
type Anthropic struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// AnthropicOption configures an Anthropic client.
type AnthropicOption func(*Anthropic)

// WithAnthropicAPIKey sets the API key.
func WithAnthropicAPIKey(key string) AnthropicOption {
	return func(a *Anthropic) { a.APIKey = key }
}

// WithAnthropicModel sets the model name.
func WithAnthropicModel(model string) AnthropicOption {
	return func(a *Anthropic) { a.Model = model }
}

// WithAnthropicBaseURL sets the API base URL.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(a *Anthropic) { a.BaseURL = url }
}

// WithAnthropicTimeout sets the request timeout.
func WithAnthropicTimeout(d time.Duration) AnthropicOption {
	return func(a *Anthropic) { a.Timeout = d }
}

// NewAnthropic creates an Anthropic client. The API key defaults to the
// ANTHROPIC_API_KEY environment variable.
func NewAnthropic(opts ...AnthropicOption) *Anthropic {
	a := &Anthropic{
		APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		Model:   "claude-sonnet-4-20250514",
		BaseURL: "https://api.anthropic.com",
		Timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Prompt sends one message turn and returns the concatenated text blocks.
func (a *Anthropic) Prompt(system, user string) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("anthropic: ANTHROPIC_API_KEY not set")
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     a.Model,
		MaxTokens: 4096,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, a.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := &http.Client{Timeout: a.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("anthropic: %s: %s", resp.Status, msg)
	}

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("anthropic: %s: %s", out.Error.Type, out.Error.Message)
	}

	var text bytes.Buffer
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
