package eval

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/weft-lang/weft/internal/section"
)

func TestSumScenario(t *testing.T) {
	e := New()

	tmpl := `// sums two numbers
{@num1 = 5}
{@num2 = 7}
The sum of {num1} and {num2} is {num1 + 7}.`

	result, err := e.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "The sum of 5 and 7 is 12." {
		t.Errorf("expected 'The sum of 5 and 7 is 12.', got %q", result)
	}
}

func TestRawStringBypassesExpansion(t *testing.T) {
	e := New()

	result, err := e.Render(`{@warn = r"literal {braces} stay put"}{warn}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "literal {braces} stay put" {
		t.Errorf("expected literal value, got %q", result)
	}
}

func TestTemplateVariableExpands(t *testing.T) {
	e := New()

	tmpl := `{@who = "World"}
{@greeting = "Hello {who}!"}
{greeting}`

	result, err := e.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello World!" {
		t.Errorf("expected 'Hello World!', got %q", result)
	}
}

func TestParameterBinding(t *testing.T) {
	e := New()

	tmpl := `{@greet(who, punct="!") = "Hello {who}{punct}"}
{greet("Alice")} {greet("Bob", "?")}`

	result, err := e.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello Alice! Hello Bob?" {
		t.Errorf("expected 'Hello Alice! Hello Bob?', got %q", result)
	}
}

func TestMissingRequiredParameter(t *testing.T) {
	e := New()

	_, err := e.Render(`{@greet(who) = "Hello {who}"}{greet}`, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsKind(err, MissingRequiredParameter) {
		t.Errorf("expected MissingRequiredParameter, got %v", err)
	}
	if !strings.Contains(err.Error(), "who") {
		t.Errorf("error should name the parameter, got %v", err)
	}
}

func TestNumericParameterBinding(t *testing.T) {
	e := New()

	tmpl := `{@double(n) = "{n * 2}"}{double(21)}`
	result, err := e.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "42" {
		t.Errorf("expected '42', got %q", result)
	}
}

func TestDivisionByZero(t *testing.T) {
	e := New()

	result, err := e.Render(`{@n = 10}{n / 0}`, nil)
	if err == nil {
		t.Fatalf("expected an error, got %q", result)
	}
	if !IsKind(err, DivisionByZero) {
		t.Errorf("expected DivisionByZero, got %v", err)
	}
	if result != "" {
		t.Errorf("no partial output on failure, got %q", result)
	}
}

func TestArithmetic(t *testing.T) {
	e := New()

	tests := []struct {
		tmpl     string
		expected string
	}{
		{`{@n = 7}{n + 3}`, "10"},
		{`{@n = 7}{n - 10}`, "-3"},
		{`{@n = 7}{n * 2}`, "14"},
		{`{@n = 7}{n / 2}`, "3.5"},
		{`{@n = 1}{n / 3}`, "0.3333333333333333"},
		{`{@n = 2.5}{n * -2}`, "-5"},
	}

	for _, tt := range tests {
		result, err := e.Render(tt.tmpl, nil)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.tmpl, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.tmpl, tt.expected, result)
		}
	}
}

func TestArithmeticIgnoredOnText(t *testing.T) {
	e := New()

	// Arithmetic only applies to numeric values; on a text-valued slot
	// the operation is skipped.
	result, err := e.Render(`{@s = r"abc"}{s + 1}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "abc" {
		t.Errorf("expected 'abc', got %q", result)
	}
}

func TestRecursionTerminates(t *testing.T) {
	e := New()

	tmpl := `{@loop = "depth {loop}"}start {loop}`
	result, err := e.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("self-reference must not error: %v", err)
	}
	if !strings.Contains(result, "{loop}") {
		t.Errorf("innermost template should be returned verbatim, got %q", result)
	}
	if got := strings.Count(result, "depth"); got != DefaultMaxDepth+1 {
		t.Errorf("expected %d expansions, got %d (%q)", DefaultMaxDepth+1, got, result)
	}
}

func TestMaxDepthOption(t *testing.T) {
	e := New(WithMaxDepth(2))

	result, err := e.Render(`{@loop = "x {loop}"}{loop}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(result, "x"); got != 3 {
		t.Errorf("expected 3 expansions with depth 2, got %d (%q)", got, result)
	}
}

func TestNameConflict(t *testing.T) {
	e := New()

	_, err := e.Render(`{@x = 1}{@x = 2}`, nil)
	if !IsKind(err, NameConflict) {
		t.Errorf("expected NameConflict, got %v", err)
	}
}

func TestNameConflictWithCallerVariable(t *testing.T) {
	e := New()

	env := NewEnvironment()
	env.Set(Variable{Name: "x", Type: section.TypeNumber, Number: 1})

	_, err := e.Render(`{@x = 2}`, env)
	if !IsKind(err, NameConflict) {
		t.Errorf("expected NameConflict, got %v", err)
	}
}

func TestNameConflictWithFunction(t *testing.T) {
	e := New()

	_, err := e.Render(`{@upper = 1}`, nil)
	if !IsKind(err, NameConflictWithFunction) {
		t.Errorf("expected NameConflictWithFunction, got %v", err)
	}
}

func TestUnknownFunction(t *testing.T) {
	e := New()

	_, err := e.Render(`{@f = nosuch("x")}{f}`, nil)
	if !IsKind(err, UnknownFunction) {
		t.Errorf("expected UnknownFunction, got %v", err)
	}
}

func TestUnresolvedSlotPassesThrough(t *testing.T) {
	e := New()

	result, err := e.Render(`Hello {missing}!`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello {missing}!" {
		t.Errorf("unresolved slot should remain literal, got %q", result)
	}
}

func TestInvariantViolation(t *testing.T) {
	e := New()

	env := NewEnvironment()
	env.Set(Variable{Name: "bad", Type: section.TypeUnknown})

	_, err := e.Render(`{bad}`, env)
	if !IsKind(err, InvariantViolation) {
		t.Errorf("expected InvariantViolation, got %v", err)
	}
}

func TestInlineFunctionCall(t *testing.T) {
	e := New()

	result, err := e.Render(`{upper("hi there")}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "HI THERE" {
		t.Errorf("expected 'HI THERE', got %q", result)
	}
}

func TestFunctionVariable(t *testing.T) {
	e := New()

	result, err := e.Render(`{@shout = upper("quiet")}{shout} {shout}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "QUIET QUIET" {
		t.Errorf("expected 'QUIET QUIET', got %q", result)
	}
}

func TestFunctionResultArithmetic(t *testing.T) {
	e := New()

	result, err := e.Render(`{len("abcd") * 2}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "8" {
		t.Errorf("expected '8', got %q", result)
	}
}

func TestVariableShadowsFunctionLookup(t *testing.T) {
	e := New(WithRegistry(Registry{
		"hello": func(args []Value) (Value, error) {
			return TextValue("from function"), nil
		},
	}))

	// A caller-supplied variable wins over a registry function of the
	// same name at slot-resolution time.
	env := NewEnvironment()
	env.Set(Variable{Name: "hello", Type: section.TypeString, Text: "from variable", Raw: true})

	result, err := e.Render(`{hello}`, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "from variable" {
		t.Errorf("expected variable to win, got %q", result)
	}
}

func TestDeterministicForPureVariables(t *testing.T) {
	e := New()

	tmpl := `{@a = 1.5}{@b = "value {a}"}{b} / {a * 4}`
	first, err := e.Render(tmpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := e.Render(tmpl, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("render %d differs: %q vs %q", i, again, first)
		}
	}
}

func TestEmptyInputReturnedUnchanged(t *testing.T) {
	e := New()

	for _, input := range []string{"", "   ", "\n\t\n"} {
		result, err := e.Render(input, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != input {
			t.Errorf("blank input should pass through, got %q from %q", result, input)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"a\n\n\n\nb", "a\n\nb"},
		{"a\n\nb", "a\n\nb"},
		{"  spaced  ", "spaced"},
		{"\n\n\nx\n\n\n", "x"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.expected {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestCallerEnvironmentIsNotMutatedByNestedCalls(t *testing.T) {
	e := New()

	env := NewEnvironment()
	env.Set(Variable{Name: "who", Type: section.TypeString, Text: "outer", Raw: true})

	tmpl := `{@greet(who) = "Hello {who}"}{greet("inner")} {who}`
	result, err := e.Render(tmpl, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello inner outer" {
		t.Errorf("parameter binding leaked into caller scope: %q", result)
	}
}

// TestReverseRewriteProperty substitutes random-length values at random
// non-overlapping spans and compares against a naive rebuild-from-scratch
// reference. Substitution must never corrupt pending spans no matter how
// much each replacement grows or shrinks the text.
func TestReverseRewriteProperty(t *testing.T) {
	e := New()
	rng := rand.New(rand.NewSource(42))
	letters := "abcdefghijklmnopqrstuvwxyz"

	randomText := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = letters[rng.Intn(len(letters))]
		}
		return string(b)
	}

	for round := 0; round < 50; round++ {
		text := randomText(200)

		// Carve out up to 12 non-overlapping spans.
		var spans []section.Span
		pos := 0
		for pos < len(text)-4 && len(spans) < 12 {
			start := pos + rng.Intn(10)
			end := start + 1 + rng.Intn(8)
			if end > len(text) {
				break
			}
			spans = append(spans, section.Span{Start: start, End: end})
			pos = end + rng.Intn(6)
		}

		env := NewEnvironment()
		var sections []section.Section
		replacements := make([]string, len(spans))
		for i, sp := range spans {
			name := "v" + string(letters[i%len(letters)]) + string(letters[i/len(letters)])
			replacements[i] = randomText(rng.Intn(20))
			env.Set(Variable{Name: name, Type: section.TypeString, Text: replacements[i], Raw: true})
			sections = append(sections, section.Section{Kind: section.Slot, Span: sp, Name: name})
		}

		got, err := e.resolve(sections, text, env, 0)
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}

		// Naive reference: rebuild front to back.
		var sb strings.Builder
		prev := 0
		for i, sp := range spans {
			sb.WriteString(text[prev:sp.Start])
			sb.WriteString(replacements[i])
			prev = sp.End
		}
		sb.WriteString(text[prev:])

		if got != sb.String() {
			t.Fatalf("round %d: reverse rewrite diverged\n got: %q\nwant: %q", round, got, sb.String())
		}
	}
}
