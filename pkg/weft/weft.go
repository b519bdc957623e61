// Package weft is the public API for the weft template-directive
// language: rendering documents, inspecting their parsed sections, and
// running rendered prompts against an LLM with a persisted transcript.
package weft

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/weft-lang/weft/internal/eval"
	"github.com/weft-lang/weft/internal/provider"
	"github.com/weft-lang/weft/internal/store"
)

// Runtime wires the evaluation engine to a function registry, an
// optional LLM client, and an optional persistence store.
type Runtime struct {
	evaluator *eval.Evaluator
	store     store.Store
	client    provider.Client
	log       *zap.Logger

	registry eval.Registry
	vars     []Variable
	maxDepth int
	initErr  error
}

// New creates a Runtime with the given options.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		registry: eval.DefaultRegistry(),
		maxDepth: eval.DefaultMaxDepth,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.initErr != nil {
		return nil, r.initErr
	}

	// The registry must be complete before the evaluator holds it;
	// it is treated as immutable afterwards.
	if r.client != nil {
		r.registry["ask"] = eval.AskFunc(r.client)
	}

	r.evaluator = eval.New(
		eval.WithRegistry(r.registry),
		eval.WithMaxDepth(r.maxDepth),
		eval.WithLogger(r.log),
	)
	return r, nil
}

// environment builds a fresh caller environment for one render. Each
// render gets its own copy so no state leaks between evaluations.
func (r *Runtime) environment() *eval.Environment {
	env := eval.NewEnvironment()
	for _, v := range r.vars {
		env.Set(v)
	}
	return env
}

// Render evaluates a weft document and returns the final text.
func (r *Runtime) Render(input string) (string, error) {
	return r.evaluator.Render(input, r.environment())
}

// RenderFile evaluates a weft document read from a file.
func (r *Runtime) RenderFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return r.Render(string(data))
}

// Parse returns the document's raw section sequence without rendering.
func (r *Runtime) Parse(input string) ([]Section, error) {
	res, err := r.evaluator.Parse(input)
	if err != nil {
		return nil, err
	}
	return res.Sections, nil
}

// SaveDocument persists a named document for later rendering.
func (r *Runtime) SaveDocument(name, body string) error {
	if r.store == nil {
		return fmt.Errorf("weft: no store configured")
	}
	return r.store.SaveDocument(name, body)
}

// RenderDocument loads a stored document by name and renders it.
func (r *Runtime) RenderDocument(name string) (string, error) {
	if r.store == nil {
		return "", fmt.Errorf("weft: no store configured")
	}
	body, ok, err := r.store.Document(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("weft: no document named %q", name)
	}
	return r.Render(body)
}

// Documents lists stored document names.
func (r *Runtime) Documents() ([]string, error) {
	if r.store == nil {
		return nil, fmt.Errorf("weft: no store configured")
	}
	return r.store.Documents()
}

// Chat renders the input, sends it to the configured LLM with the
// conversation's prior turns as context, appends both sides to the
// transcript, and returns the reply.
func (r *Runtime) Chat(conversationID, input string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("weft: no provider configured")
	}

	rendered, err := r.Render(input)
	if err != nil {
		return "", err
	}

	system := ""
	if r.store != nil {
		prior, err := r.store.Turns(conversationID)
		if err != nil {
			return "", err
		}
		system = transcript(prior)
		if _, err := r.store.AppendTurn(conversationID, "user", rendered); err != nil {
			return "", err
		}
	}

	reply, err := r.client.Prompt(system, rendered)
	if err != nil {
		return "", err
	}

	if r.store != nil {
		if _, err := r.store.AppendTurn(conversationID, "assistant", reply); err != nil {
			return "", err
		}
	}

	r.log.Debug("chat turn complete",
		zap.String("conversation", conversationID),
		zap.Int("reply_bytes", len(reply)))
	return reply, nil
}

// Turns returns a conversation's transcript.
func (r *Runtime) Turns(conversationID string) ([]store.Turn, error) {
	if r.store == nil {
		return nil, fmt.Errorf("weft: no store configured")
	}
	return r.store.Turns(conversationID)
}

// Close releases the store.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// transcript flattens prior turns into a context block for the provider.
func transcript(turns []store.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Prior conversation:\n")
	for _, t := range turns {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
