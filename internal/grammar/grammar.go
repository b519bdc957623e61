// Package grammar parses weft documents into typed sections.
//
// A document is plain text with brace-delimited directives:
//
//	{@name = 5}                      definition, number payload
//	{@name = "Hello {who}"}          definition, template payload
//	{@name = r"literal {braces}"}    definition, raw string payload
//	{@name = upper("x")}             definition, function payload
//	{@greet(who, punct?) = "..."}    definition with declared params
//	{name}                           slot
//	{greet("Alice", 7)}              slot with call-site arguments
//	{total / 2}                      slot with arithmetic
//
// Brace groups that do not look like directives are left alone, so prose
// containing JSON or stray braces parses as plain text.
package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/weft-lang/weft/internal/section"
)

// Result is a parsed document. All section spans are byte offsets into
// Source, the comment-stripped text.
type Result struct {
	Sections []section.Section
	Source   string
}

// StripComments removes every line whose first non-blank characters are
// "//". It is a plain line filter, applied before parsing.
func StripComments(src string) string {
	lines := strings.Split(src, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Parse strips comments and splits the document into sections.
func Parse(src string) (Result, error) {
	src = StripComments(src)

	var sections []section.Section
	textStart := 0
	pos := 0

	for pos < len(src) {
		if src[pos] != '{' {
			pos++
			continue
		}

		inner, end, balanced := braceGroup(src, pos)
		if !balanced {
			pos++
			continue
		}

		sec, isTag, err := parseTag(inner)
		if err != nil {
			return Result{}, fmt.Errorf("grammar: offset %d: %w", pos, err)
		}
		if !isTag {
			// Not a directive: step past the brace so nested groups
			// still get scanned.
			pos++
			continue
		}

		if textStart < pos {
			sections = append(sections, section.Section{
				Kind: section.Text,
				Span: section.Span{Start: textStart, End: pos},
			})
		}
		sec.Span = section.Span{Start: pos, End: end}
		sections = append(sections, sec)
		pos = end
		textStart = end
	}

	if textStart < len(src) {
		sections = append(sections, section.Section{
			Kind: section.Text,
			Span: section.Span{Start: textStart, End: len(src)},
		})
	}

	return Result{Sections: sections, Source: src}, nil
}

// braceGroup finds the matching close brace for the '{' at open,
// skipping over quoted strings. Returns the inner text and the byte
// offset just past the close brace.
func braceGroup(src string, open int) (inner string, end int, ok bool) {
	depth := 1
	i := open + 1
	for i < len(src) {
		switch src[i] {
		case '"':
			j, closed := skipQuoted(src, i)
			if !closed {
				return "", 0, false
			}
			i = j
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[open+1 : i], i + 1, true
			}
		}
		i++
	}
	return "", 0, false
}

// skipQuoted returns the offset just past the closing quote of the
// string starting at src[i] == '"'.
func skipQuoted(src string, i int) (int, bool) {
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1, true
		}
		i++
	}
	return 0, false
}

// parseTag interprets the text between braces. isTag is false when the
// group is not directive-shaped and should remain literal text. An error
// is returned only for groups that are unambiguously directives ("@"
// prefixed definitions) but malformed.
func parseTag(inner string) (sec section.Section, isTag bool, err error) {
	r := &reader{src: inner}
	r.skipSpace()

	if r.peek() == '@' {
		r.pos++
		sec, err = parseDefinition(r)
		if err != nil {
			return section.Section{}, false, err
		}
		return sec, true, nil
	}

	sec, ok := parseSlot(r)
	if !ok {
		return section.Section{}, false, nil
	}
	return sec, true, nil
}

func parseDefinition(r *reader) (section.Section, error) {
	name := r.scanIdent()
	if name == "" {
		return section.Section{}, fmt.Errorf("definition is missing a name")
	}

	var declared []section.Param
	r.skipSpace()
	if r.peek() == '(' {
		var err error
		declared, err = parseDeclaredParams(r)
		if err != nil {
			return section.Section{}, fmt.Errorf("definition %q: %w", name, err)
		}
	}

	r.skipSpace()
	if r.peek() != '=' {
		return section.Section{}, fmt.Errorf("definition %q: expected '='", name)
	}
	r.pos++

	content, err := parsePayload(r)
	if err != nil {
		return section.Section{}, fmt.Errorf("definition %q: %w", name, err)
	}
	r.skipSpace()
	if !r.done() {
		return section.Section{}, fmt.Errorf("definition %q: trailing content %q", name, r.rest())
	}

	return section.Section{
		Kind:    section.Definition,
		Name:    name,
		Content: content,
		Params:  declared,
	}, nil
}

// parsePayload parses the right-hand side of a definition.
func parsePayload(r *reader) (*section.Content, error) {
	r.skipSpace()
	switch {
	case r.peek() == '"':
		text, err := r.scanQuoted()
		if err != nil {
			return nil, err
		}
		return &section.Content{Type: section.TypeString, Text: text}, nil

	case r.peek() == 'r' && r.peekAt(1) == '"':
		r.pos++
		text, err := r.scanQuoted()
		if err != nil {
			return nil, err
		}
		return &section.Content{Type: section.TypeString, Text: text, Raw: true}, nil
	}

	if ident := r.scanIdent(); ident != "" {
		r.skipSpace()
		if r.peek() != '(' {
			return nil, fmt.Errorf("expected '(' after function name %q", ident)
		}
		args, err := parseArgs(r)
		if err != nil {
			return nil, err
		}
		return &section.Content{Type: section.TypeFunction, Text: ident, Params: args}, nil
	}

	lit := r.scanNumberToken()
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("expected a number, quoted string, or function call")
	}
	return &section.Content{Type: section.TypeNumber, Number: n, Text: lit}, nil
}

// parseSlot parses "{name}", "{name(args)}", and arithmetic forms.
// ok is false when the group is not slot-shaped; slots never error,
// they fall back to literal text.
func parseSlot(r *reader) (section.Section, bool) {
	name := r.scanIdent()
	if name == "" {
		return section.Section{}, false
	}

	sec := section.Section{Kind: section.Slot, Name: name}

	r.skipSpace()
	if r.peek() == '(' {
		args, err := parseArgs(r)
		if err != nil {
			return section.Section{}, false
		}
		sec.Params = args
	}

	r.skipSpace()
	if op, ok := operatorFor(r.peek()); ok {
		r.pos++
		r.skipSpace()
		lit := r.scanNumberToken()
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return section.Section{}, false
		}
		sec.Op = &section.Operation{Op: op, Value: n}
	}

	r.skipSpace()
	if !r.done() {
		return section.Section{}, false
	}
	return sec, true
}

func operatorFor(b byte) (section.Operator, bool) {
	switch b {
	case '+':
		return section.OpAdd, true
	case '-':
		return section.OpSubtract, true
	case '*':
		return section.OpMultiply, true
	case '/':
		return section.OpDivide, true
	}
	return 0, false
}

// parseArgs parses a parenthesized, comma-separated argument list.
// Quoted literals become string arguments; bare numeric literals become
// number arguments. The caller has already seen the '('.
func parseArgs(r *reader) ([]section.Param, error) {
	r.pos++ // consume '('
	var args []section.Param
	for {
		r.skipSpace()
		if r.peek() == ')' {
			r.pos++
			return args, nil
		}
		if r.done() {
			return nil, fmt.Errorf("unterminated argument list")
		}

		if r.peek() == '"' {
			text, err := r.scanQuoted()
			if err != nil {
				return nil, err
			}
			args = append(args, section.Param{Value: text})
		} else {
			lit := r.scanNumberToken()
			n, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: expected a quoted string or number", len(args)+1)
			}
			args = append(args, section.Param{Value: lit, Number: n, Numeric: true})
		}

		r.skipSpace()
		switch r.peek() {
		case ',':
			r.pos++
		case ')':
		default:
			return nil, fmt.Errorf("expected ',' or ')' in argument list")
		}
	}
}

// parseDeclaredParams parses a definition's formal parameter list:
// bare names are required, "name?" is optional with an empty default,
// "name=literal" is optional with that default.
func parseDeclaredParams(r *reader) ([]section.Param, error) {
	r.pos++ // consume '('
	var params []section.Param
	for {
		r.skipSpace()
		if r.peek() == ')' {
			r.pos++
			return params, nil
		}
		if r.done() {
			return nil, fmt.Errorf("unterminated parameter list")
		}

		name := r.scanIdent()
		if name == "" {
			return nil, fmt.Errorf("parameter %d: expected a name", len(params)+1)
		}
		p := section.Param{Name: name, Required: true}

		r.skipSpace()
		switch r.peek() {
		case '?':
			r.pos++
			p.Required = false
		case '=':
			r.pos++
			r.skipSpace()
			p.Required = false
			if r.peek() == '"' {
				text, err := r.scanQuoted()
				if err != nil {
					return nil, err
				}
				p.Value = text
			} else {
				lit := r.scanNumberToken()
				n, err := strconv.ParseFloat(lit, 64)
				if err != nil {
					return nil, fmt.Errorf("parameter %q: bad default", name)
				}
				p.Value = lit
				p.Number = n
				p.Numeric = true
			}
		}
		params = append(params, p)

		r.skipSpace()
		switch r.peek() {
		case ',':
			r.pos++
		case ')':
		default:
			return nil, fmt.Errorf("expected ',' or ')' in parameter list")
		}
	}
}

// reader is a minimal cursor over a directive's inner text.
type reader struct {
	src string
	pos int
}

func (r *reader) done() bool { return r.pos >= len(r.src) }

// peek returns the current byte, or 0 at end of input.
func (r *reader) peek() byte {
	if r.done() {
		return 0
	}
	return r.src[r.pos]
}

func (r *reader) peekAt(off int) byte {
	if r.pos+off >= len(r.src) {
		return 0
	}
	return r.src[r.pos+off]
}

func (r *reader) rest() string { return r.src[r.pos:] }

func (r *reader) skipSpace() {
	for !r.done() && unicode.IsSpace(rune(r.src[r.pos])) {
		r.pos++
	}
}

// scanIdent scans an identifier: a letter or underscore followed by
// letters, digits, and underscores. Returns "" if none is present.
func (r *reader) scanIdent() string {
	r.skipSpace()
	start := r.pos
	for i, c := range r.src[r.pos:] {
		if c == '_' || unicode.IsLetter(c) {
			continue
		}
		if i > 0 && unicode.IsDigit(c) {
			continue
		}
		r.pos += i
		return r.src[start:r.pos]
	}
	r.pos = len(r.src)
	return r.src[start:]
}

// scanNumberToken scans a numeric-literal-shaped token. Validation is
// left to strconv.ParseFloat.
func (r *reader) scanNumberToken() string {
	r.skipSpace()
	start := r.pos
	for !r.done() {
		c := r.src[r.pos]
		if c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E' ||
			(c >= '0' && c <= '9') {
			r.pos++
			continue
		}
		break
	}
	return r.src[start:r.pos]
}

// scanQuoted scans a double-quoted string starting at the current
// position, processing \", \\, \n, and \t escapes. Literal newlines are
// allowed so template payloads can span lines.
func (r *reader) scanQuoted() (string, error) {
	if r.peek() != '"' {
		return "", fmt.Errorf("expected opening quote")
	}
	r.pos++
	var sb strings.Builder
	for !r.done() {
		c := r.src[r.pos]
		switch c {
		case '"':
			r.pos++
			return sb.String(), nil
		case '\\':
			if r.pos+1 >= len(r.src) {
				return "", fmt.Errorf("dangling escape in string literal")
			}
			switch r.src[r.pos+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(r.src[r.pos+1])
			}
			r.pos += 2
		default:
			sb.WriteByte(c)
			r.pos++
		}
	}
	return "", fmt.Errorf("unterminated string literal")
}
