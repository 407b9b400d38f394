package event

// Value is a sealed interface over the structured property value variant.
// Only Scalar, Sequence, Dictionary and Structure implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Scalar holds a primitive: string, bool, int64, float64 or nil.
// Producers should stick to those types; anything else is encoded via its
// default JSON form.
type Scalar struct {
	Val any
}

func (Scalar) value() {}

// Sequence is an ordered list of values.
type Sequence []Value

func (Sequence) value() {}

// Dictionary maps names to values. Encoding iterates keys in sorted order
// so output is deterministic.
type Dictionary map[string]Value

func (Dictionary) value() {}

// Member is one named value inside a Structure. Member order is
// significant and preserved by the encoder.
type Member struct {
	Name  string
	Value Value
}

// Structure is a typed object: an optional type tag plus an ordered list
// of named values. Type tags beginning with "DictionaryEntry" or
// "KeyValuePair" get key/value-pair treatment in the encoder.
type Structure struct {
	TypeTag string
	Members []Member
}

func (Structure) value() {}

// Str creates a string scalar.
func Str(s string) Scalar {
	return Scalar{Val: s}
}

// Int creates an integer scalar.
func Int(n int64) Scalar {
	return Scalar{Val: n}
}

// Float creates a floating-point scalar.
func Float(f float64) Scalar {
	return Scalar{Val: f}
}

// Bool creates a boolean scalar.
func Bool(b bool) Scalar {
	return Scalar{Val: b}
}

// Null creates a null scalar.
func Null() Scalar {
	return Scalar{}
}
