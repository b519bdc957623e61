// Package section defines the typed parse units a weft document is made of.
package section

// Kind identifies what a parsed section represents.
type Kind int

const (
	Text Kind = iota
	Definition
	Slot
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Definition:
		return "definition"
	case Slot:
		return "slot"
	}
	return "unknown"
}

// ValueType identifies the payload type of a variable or definition.
type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeNumber
	TypeString
	TypeFunction
)

// String returns the string representation of a ValueType.
func (t ValueType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	}
	return "unknown"
}

// Span is a half-open [Start, End) byte range into the document source.
type Span struct {
	Start int
	End   int
}

// Param is a declared formal parameter or a call-site argument.
// Arguments bind positionally. Numeric reports whether the literal
// form at the call site was a number rather than a quoted string.
type Param struct {
	Name     string
	Value    string
	Number   float64
	Numeric  bool
	Required bool
}

// Operator is an arithmetic post-processing operator on a slot.
type Operator int

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
)

// String returns the operator's source form.
func (o Operator) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	}
	return "?"
}

// Operation is arithmetic applied to a slot's resolved value when that
// value is numeric. Value is always a literal from the document.
type Operation struct {
	Op    Operator
	Value float64
}

// Content is a definition's typed payload. Text holds the string value
// or the function name; Number holds the numeric value. Raw suppresses
// recursive re-evaluation of string payloads. Params carries call-site
// arguments for function payloads.
type Content struct {
	Type   ValueType
	Text   string
	Number float64
	Raw    bool
	Params []Param
}

// Section is one parsed unit of a document.
//
// Text sections carry only a span. Definitions carry Name, Content and,
// for string payloads, declared Params. Slots carry Name, call-site
// Params and an optional arithmetic Operation.
type Section struct {
	Kind    Kind
	Span    Span
	Name    string
	Content *Content
	Params  []Param
	Op      *Operation
}
