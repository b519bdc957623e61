package weft

import (
	"go.uber.org/zap"

	"github.com/weft-lang/weft/internal/eval"
	"github.com/weft-lang/weft/internal/provider"
	"github.com/weft-lang/weft/internal/section"
	"github.com/weft-lang/weft/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// Section is one parsed unit of a document, exposed for the diagnostic
// Parse mode.
type Section = section.Section

// Value is a function argument or result: text or number.
type Value = eval.Value

// Func is a registry function callable from slots.
type Func = eval.Func

// Variable is an entry in the caller-supplied environment.
type Variable = eval.Variable

// ErrorKind classifies evaluation failures.
type ErrorKind = eval.ErrorKind

// Evaluation failure kinds.
const (
	NameConflict             = eval.NameConflict
	NameConflictWithFunction = eval.NameConflictWithFunction
	UnknownSectionKind       = eval.UnknownSectionKind
	MissingRequiredParameter = eval.MissingRequiredParameter
	UnknownFunction          = eval.UnknownFunction
	DivisionByZero           = eval.DivisionByZero
	InvariantViolation       = eval.InvariantViolation
)

// IsKind reports whether err is an evaluation error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return eval.IsKind(err, kind)
}

// TextValue wraps a string result for a registry function.
func TextValue(s string) Value { return eval.TextValue(s) }

// NumberValue wraps a numeric result for a registry function.
func NumberValue(n float64) Value { return eval.NumberValue(n) }

// WithSQLiteStore configures SQLite persistence at path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.initErr = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store.
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore configures a custom store.
func WithStore(s store.Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithAnthropic configures the Anthropic LLM client. An empty model
// keeps the default.
func WithAnthropic(model string) Option {
	return func(r *Runtime) {
		var opts []provider.AnthropicOption
		if model != "" {
			opts = append(opts, provider.WithAnthropicModel(model))
		}
		r.client = provider.NewAnthropic(opts...)
	}
}

// WithOllama configures the Ollama LLM client. Empty arguments keep
// the defaults.
func WithOllama(url, model string) Option {
	return func(r *Runtime) {
		var opts []provider.OllamaOption
		if url != "" {
			opts = append(opts, provider.WithOllamaURL(url))
		}
		if model != "" {
			opts = append(opts, provider.WithOllamaModel(model))
		}
		r.client = provider.NewOllama(opts...)
	}
}

// WithMockProvider configures a canned-reply LLM client (for tests).
func WithMockProvider(reply string) Option {
	return func(r *Runtime) {
		r.client = provider.NewMock(reply)
	}
}

// WithMockProviderFunc configures a handler-backed mock LLM client.
func WithMockProviderFunc(handler func(system, user string) string) Option {
	return func(r *Runtime) {
		r.client = provider.NewMockHandler(handler)
	}
}

// WithLogger sets the runtime logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithMaxDepth sets the nested-template recursion bound.
func WithMaxDepth(depth int) Option {
	return func(r *Runtime) {
		r.maxDepth = depth
	}
}

// WithFunc registers an extra function in the registry.
func WithFunc(name string, fn Func) Option {
	return func(r *Runtime) {
		r.registry[name] = fn
	}
}

// WithVar seeds the caller environment with a string variable. Its
// value is substituted literally, without re-evaluation.
func WithVar(name, value string) Option {
	return func(r *Runtime) {
		r.vars = append(r.vars, Variable{
			Name: name,
			Type: section.TypeString,
			Text: value,
			Raw:  true,
		})
	}
}

// WithTemplateVar seeds the caller environment with a template-valued
// string variable that is re-evaluated when referenced.
func WithTemplateVar(name, value string) Option {
	return func(r *Runtime) {
		r.vars = append(r.vars, Variable{
			Name: name,
			Type: section.TypeString,
			Text: value,
		})
	}
}

// WithNumberVar seeds the caller environment with a numeric variable.
func WithNumberVar(name string, value float64) Option {
	return func(r *Runtime) {
		r.vars = append(r.vars, Variable{
			Name:   name,
			Type:   section.TypeNumber,
			Number: value,
		})
	}
}
