package eval

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func is a registry function: positional arguments in, text or number
// out. Functions may be non-deterministic; the evaluator never caches
// their results.
type Func func(args []Value) (Value, error)

// Registry maps function names to callables. It is treated as immutable
// once an evaluator holds it, which keeps concurrent evaluations safe.
type Registry map[string]Func

// Lookup returns the function registered under name.
func (r Registry) Lookup(name string) (Func, bool) {
	fn, ok := r[name]
	return fn, ok
}

// Prompter is the LLM chat capability the ask function binds to.
type Prompter interface {
	Prompt(system, user string) (string, error)
}

// DefaultRegistry returns the standard function library.
func DefaultRegistry() Registry {
	return Registry{
		"upper":  builtinUpper,
		"lower":  builtinLower,
		"trim":   builtinTrim,
		"len":    builtinLen,
		"repeat": builtinRepeat,
		"uuid":   builtinUUID,
		"now":    builtinNow,
		"pick":   builtinPick,
	}
}

// AskFunc returns an "ask" function that forwards its argument to the
// given prompter and yields the reply as text.
func AskFunc(p Prompter) Func {
	return func(args []Value) (Value, error) {
		var sb strings.Builder
		for i, a := range args {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(a.String())
		}
		reply, err := p.Prompt("", sb.String())
		if err != nil {
			return Value{}, fmt.Errorf("ask: %w", err)
		}
		return TextValue(strings.TrimSpace(reply)), nil
	}
}

func builtinUpper(args []Value) (Value, error) {
	return TextValue(strings.ToUpper(argText(args))), nil
}

func builtinLower(args []Value) (Value, error) {
	return TextValue(strings.ToLower(argText(args))), nil
}

func builtinTrim(args []Value) (Value, error) {
	return TextValue(strings.TrimSpace(argText(args))), nil
}

func builtinLen(args []Value) (Value, error) {
	return NumberValue(float64(len([]rune(argText(args))))), nil
}

func builtinRepeat(args []Value) (Value, error) {
	if len(args) < 2 || !args[1].Numeric {
		return Value{}, fmt.Errorf("repeat: want (text, count)")
	}
	n := int(args[1].Number)
	if n < 0 {
		return Value{}, fmt.Errorf("repeat: negative count %d", n)
	}
	return TextValue(strings.Repeat(args[0].String(), n)), nil
}

func builtinUUID(args []Value) (Value, error) {
	return TextValue(uuid.NewString()), nil
}

func builtinNow(args []Value) (Value, error) {
	layout := time.RFC3339
	if len(args) > 0 && args[0].Text != "" {
		layout = args[0].Text
	}
	return TextValue(time.Now().Format(layout)), nil
}

// builtinPick returns one of its arguments at random. It exists mostly
// for prompt variety; re-resolving a slot may yield a different choice.
func builtinPick(args []Value) (Value, error) {
	if len(args) == 0 {
		return TextValue(""), nil
	}
	return args[rand.Intn(len(args))], nil
}

// argText joins all arguments into one string, space separated.
func argText(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
