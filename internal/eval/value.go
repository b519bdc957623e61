package eval

import "strconv"

// Value is the resolved result of a slot or a registry function call:
// either text or a number.
type Value struct {
	Text    string
	Number  float64
	Numeric bool
}

// TextValue wraps a string result.
func TextValue(s string) Value {
	return Value{Text: s}
}

// NumberValue wraps a numeric result.
func NumberValue(n float64) Value {
	return Value{Number: n, Numeric: true}
}

// String renders the value for substitution into the working text.
// Numbers render in their shortest exact decimal form, so 12.0 prints
// as "12" and 1.0/3 keeps its full precision.
func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}
