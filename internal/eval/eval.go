package eval

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/weft-lang/weft/internal/grammar"
	"github.com/weft-lang/weft/internal/section"
)

// DefaultMaxDepth bounds nested template re-expansion. Exceeding it is
// not an error: the innermost template is returned unevaluated so
// self-referential templates terminate instead of looping.
const DefaultMaxDepth = 5

// Evaluator renders parsed documents against a variable environment.
// It holds no state across Render calls; concurrent top-level renders
// are safe as long as the registry is not mutated.
type Evaluator struct {
	registry Registry
	maxDepth int
	log      *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry sets the function registry.
func WithRegistry(r Registry) Option {
	return func(e *Evaluator) { e.registry = r }
}

// WithMaxDepth sets the recursion bound for nested template expansion.
func WithMaxDepth(depth int) Option {
	return func(e *Evaluator) { e.maxDepth = depth }
}

// WithLogger sets the logger. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Evaluator) { e.log = log }
}

// New creates an Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: DefaultRegistry(),
		maxDepth: DefaultMaxDepth,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the evaluator's function registry.
func (e *Evaluator) Registry() Registry {
	return e.registry
}

// Parse returns the raw section sequence for a document without
// rendering it. Diagnostic mode for tooling built on the engine.
func (e *Evaluator) Parse(template string) (grammar.Result, error) {
	return grammar.Parse(template)
}

// Render evaluates a document against the caller-supplied environment
// and returns the final text. A nil environment means an empty one.
// In-document definitions are validated against (and added to) env.
func (e *Evaluator) Render(template string, env *Environment) (string, error) {
	if env == nil {
		env = NewEnvironment()
	}
	return e.render(template, env, 0)
}

// render is the single recursive entry point. Blank input and exceeded
// recursion depth both short-circuit to the input, unevaluated.
func (e *Evaluator) render(template string, env *Environment, depth int) (string, error) {
	if strings.TrimSpace(template) == "" {
		return template, nil
	}
	if depth > e.maxDepth {
		e.log.Debug("recursion bound reached, returning template unevaluated",
			zap.Int("depth", depth))
		return template, nil
	}

	res, err := grammar.Parse(template)
	if err != nil {
		return "", err
	}
	if err := e.bind(res.Sections, env); err != nil {
		return "", err
	}
	out, err := e.resolve(res.Sections, res.Source, env, depth)
	if err != nil {
		return "", err
	}
	return normalize(out), nil
}

// bind walks definition sections in document order and populates env.
// Definition conflicts with registry functions, with earlier in-document
// definitions, and with caller-supplied variables are all fatal.
func (e *Evaluator) bind(sections []section.Section, env *Environment) error {
	for _, sec := range sections {
		switch sec.Kind {
		case section.Text, section.Slot:
			// Resolved later.
		case section.Definition:
			if _, ok := e.registry.Lookup(sec.Name); ok {
				return &Error{Kind: NameConflictWithFunction, Name: sec.Name}
			}
			if env.Has(sec.Name) {
				return &Error{Kind: NameConflict, Name: sec.Name}
			}
			v := Variable{
				Name:   sec.Name,
				Type:   sec.Content.Type,
				Text:   sec.Content.Text,
				Number: sec.Content.Number,
				Raw:    sec.Content.Raw,
			}
			// Function payloads carry their arguments inside the
			// content; template payloads declare params on the section.
			if sec.Content.Type == section.TypeFunction {
				v.Params = sec.Content.Params
			} else {
				v.Params = sec.Params
			}
			env.Set(v)
			e.log.Debug("bound variable",
				zap.String("name", v.Name),
				zap.Stringer("type", v.Type))
		default:
			return &Error{Kind: UnknownSectionKind, Name: sec.Kind.String()}
		}
	}
	return nil
}

// resolve rewrites the working text, visiting definition and slot spans
// in reverse document order. Spans were recorded against the original
// text, so rewriting back-to-front keeps every pending span valid no
// matter how much each substitution grows or shrinks the text. This
// ordering is a correctness invariant, not an optimization.
func (e *Evaluator) resolve(sections []section.Section, text string, env *Environment, depth int) (string, error) {
	spans := make([]section.Section, 0, len(sections))
	for _, sec := range sections {
		if sec.Kind != section.Text {
			spans = append(spans, sec)
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Span.Start > spans[j].Span.Start
	})

	for _, sec := range spans {
		if sec.Kind == section.Definition {
			text = text[:sec.Span.Start] + text[sec.Span.End:]
			continue
		}

		val, ok, err := e.resolveSlot(sec, env, depth)
		if err != nil {
			return "", err
		}
		if !ok {
			// Unresolved slot: left in the output literally.
			continue
		}
		e.log.Debug("resolved slot",
			zap.String("name", sec.Name),
			zap.Int("depth", depth))
		text = text[:sec.Span.Start] + val.String() + text[sec.Span.End:]
	}
	return text, nil
}

// resolveSlot produces a slot's value. ok is false when the name is
// neither a variable nor a registry function, which is not an error.
func (e *Evaluator) resolveSlot(sec section.Section, env *Environment, depth int) (Value, bool, error) {
	v, ok := env.Get(sec.Name)
	if !ok {
		// Inline function calls work without a prior definition: a
		// transient function variable is synthesized from the slot.
		if _, isFn := e.registry.Lookup(sec.Name); isFn {
			v = Variable{
				Name:   sec.Name,
				Type:   section.TypeFunction,
				Text:   sec.Name,
				Params: sec.Params,
			}
			ok = true
		}
	}
	if !ok {
		return Value{}, false, nil
	}

	var val Value
	switch v.Type {
	case section.TypeNumber:
		val = NumberValue(v.Number)

	case section.TypeString:
		if v.Raw {
			val = TextValue(v.Text)
			break
		}
		call, err := e.callEnvironment(v, sec.Params, env)
		if err != nil {
			return Value{}, false, err
		}
		out, err := e.render(v.Text, call, depth+1)
		if err != nil {
			return Value{}, false, err
		}
		val = TextValue(out)

	case section.TypeFunction:
		fn, found := e.registry.Lookup(v.Text)
		if !found {
			return Value{}, false, &Error{Kind: UnknownFunction, Name: v.Text}
		}
		res, err := fn(paramValues(v.Params))
		if err != nil {
			return Value{}, false, err
		}
		val = res

	default:
		return Value{}, false, &Error{Kind: InvariantViolation, Name: sec.Name}
	}

	if sec.Op != nil && val.Numeric {
		n, err := applyOperation(sec.Name, val.Number, *sec.Op)
		if err != nil {
			return Value{}, false, err
		}
		val = NumberValue(n)
	}
	return val, true, nil
}

// callEnvironment builds the derived environment for a nested template
// invocation: a copy of the current environment plus positionally bound
// parameters. Missing required parameters are fatal; optional ones fall
// back to their declared defaults.
func (e *Evaluator) callEnvironment(v Variable, args []section.Param, env *Environment) (*Environment, error) {
	call := env.Clone()
	for i, decl := range v.Params {
		var arg section.Param
		switch {
		case i < len(args):
			arg = args[i]
		case decl.Required:
			return nil, &Error{Kind: MissingRequiredParameter, Name: decl.Name}
		default:
			arg = decl
		}

		bound := Variable{Name: decl.Name}
		if arg.Numeric {
			bound.Type = section.TypeNumber
			bound.Number = arg.Number
			bound.Text = arg.Value
		} else {
			bound.Type = section.TypeString
			bound.Text = arg.Value
		}
		call.Set(bound)
	}
	return call, nil
}

// paramValues converts call-site arguments into registry values.
func paramValues(params []section.Param) []Value {
	vals := make([]Value, len(params))
	for i, p := range params {
		if p.Numeric {
			vals[i] = NumberValue(p.Number)
		} else {
			vals[i] = TextValue(p.Value)
		}
	}
	return vals
}

// applyOperation performs arithmetic post-processing on a numeric slot
// value. Only a literal zero divisor is an error; everything else
// follows ordinary floating-point semantics.
func applyOperation(slotName string, lhs float64, op section.Operation) (float64, error) {
	switch op.Op {
	case section.OpAdd:
		return lhs + op.Value, nil
	case section.OpSubtract:
		return lhs - op.Value, nil
	case section.OpMultiply:
		return lhs * op.Value, nil
	case section.OpDivide:
		if op.Value == 0 {
			return 0, &Error{Kind: DivisionByZero, Name: slotName}
		}
		return lhs / op.Value, nil
	}
	return 0, fmt.Errorf("unknown operator %q on slot %q", op.Op, slotName)
}

// normalize collapses runs of three or more newlines to two and trims
// leading and trailing whitespace. Purely cosmetic.
func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			run++
			if run > 2 {
				continue
			}
		} else {
			run = 0
		}
		sb.WriteByte(s[i])
	}
	return strings.TrimSpace(sb.String())
}
