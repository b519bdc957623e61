package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama talks to a local Ollama server's chat endpoint.
type Ollama struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// OllamaOption configures an Ollama client.
type OllamaOption func(*Ollama)

// WithOllamaURL sets the server URL.
func WithOllamaURL(url string) OllamaOption {
	return func(o *Ollama) { o.URL = url }
}

// WithOllamaModel sets the model name.
func WithOllamaModel(model string) OllamaOption {
	return func(o *Ollama) { o.Model = model }
}

// WithOllamaTimeout sets the request timeout.
func WithOllamaTimeout(d time.Duration) OllamaOption {
	return func(o *Ollama) { o.Timeout = d }
}

// NewOllama creates an Ollama client.
func NewOllama(opts ...OllamaOption) *Ollama {
	o := &Ollama{
		URL:     "http://localhost:11434",
		Model:   "llama3.1",
		Timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Prompt sends one chat turn and returns the reply content.
func (o *Ollama) Prompt(system, user string) (string, error) {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	body, err := json.Marshal(ollamaChatRequest{
		Model:    o.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: o.Timeout}
	resp, err := client.Post(o.URL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama: %s: %s", resp.Status, msg)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Message.Content, nil
}
