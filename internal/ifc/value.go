package ifc

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a STEP attribute value
type Kind int

const (
	KindNull Kind = iota
	KindDerived
	KindString
	KindInteger
	KindReal
	KindEnum
	KindBinary
	KindRef
	KindList
	KindTyped
)

// Value is one parsed attribute of a STEP entity instance
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Real float64
	Ref  int
	List []Value
	// TypeName and Inner are set for typed values such as IFCLABEL('x')
	TypeName string
	Inner    *Value
}

// IsScalar reports whether the value renders as a single textual property.
// Absent, derived, reference and aggregate values are not scalar.
func (v Value) IsScalar() bool {
	switch v.Kind {
	case KindString, KindInteger, KindReal, KindEnum, KindBinary:
		return true
	case KindTyped:
		return v.Inner != nil && v.Inner.IsScalar()
	}
	return false
}

// IsNull reports whether the value is $ or *
func (v Value) IsNull() bool {
	return v.Kind == KindNull || v.Kind == KindDerived
}

// Number returns the numeric content of integer, real and typed numeric values
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.Int), true
	case KindReal:
		return v.Real, true
	case KindTyped:
		if v.Inner != nil {
			return v.Inner.Number()
		}
	}
	return 0, false
}

// Text returns the string content of string and typed string values
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindTyped:
		if v.Inner != nil {
			return v.Inner.Text()
		}
	}
	return "", false
}

// String renders scalars the way they appear in element text blocks
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "$"
	case KindDerived:
		return "*"
	case KindString, KindBinary:
		return v.Str
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return FormatReal(v.Real)
	case KindEnum:
		switch v.Str {
		case "T":
			return "true"
		case "F":
			return "false"
		}
		return v.Str
	case KindRef:
		return fmt.Sprintf("#%d", v.Ref)
	case KindTyped:
		if v.Inner != nil {
			return v.Inner.String()
		}
		return v.TypeName
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return ""
}

// FormatReal prints the shortest representation of f, keeping a
// trailing ".0" on integral values (3000 -> "3000.0").
func FormatReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnI") {
		return s
	}
	return s + ".0"
}
