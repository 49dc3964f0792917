package types

import (
	"fmt"
	"strings"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
)

// Operator is the comparison direction of a numeric rule
type Operator string

const (
	None Operator = ""
	GTE  Operator = "gte"
	LTE  Operator = "lte"
)

// ParseOperator accepts the wire names and the symbols shown in the editor
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gte", ">=", "≥":
		return GTE, nil
	case "lte", "<=", "≤":
		return LTE, nil
	}
	return None, fmt.Errorf("invalid operator %q (want gte or lte)", s)
}

func (o Operator) Symbol() string {
	switch o {
	case GTE:
		return "≥"
	case LTE:
		return "≤"
	}
	return ""
}

// Rule is one user authored criterion. The set of implementations is closed:
// NumericRule, MembershipRule and TextSearchRule.
type Rule interface {
	FieldName() string
	RawValue() string
	Kind() field.Kind
	isRule()
}

// NumericRule bounds a numeric field from below (GTE) or above (LTE)
type NumericRule struct {
	Field string
	Op    Operator
	Value string
}

// MembershipRule matches any of the comma joined tokens in Value
type MembershipRule struct {
	Field string
	Value string
}

// TextSearchRule matches any of the comma joined substrings in Value
type TextSearchRule struct {
	Field string
	Value string
}

func (r NumericRule) FieldName() string { return r.Field }
func (r NumericRule) RawValue() string { return r.Value }
func (r NumericRule) Kind() field.Kind { return field.Numeric }
func (NumericRule) isRule() {}

func (r MembershipRule) FieldName() string { return r.Field }
func (r MembershipRule) RawValue() string { return r.Value }
func (r MembershipRule) Kind() field.Kind { return field.Membership }
func (MembershipRule) isRule() {}

func (r TextSearchRule) FieldName() string { return r.Field }
func (r TextSearchRule) RawValue() string { return r.Value }
func (r TextSearchRule) Kind() field.Kind { return field.TextSearch }
func (TextSearchRule) isRule() {}

// OperatorOf returns the operator of a numeric rule and None for every other kind
func OperatorOf(r Rule) Operator {
	if n, ok := r.(NumericRule); ok {
		return n.Op
	}
	return None
}

// NewRule builds the variant matching kind. The operator is dropped for
// non-numeric kinds and defaults to GTE for numeric ones.
func NewRule(kind field.Kind, name string, op Operator, value string) Rule {
	switch kind {
	case field.Numeric:
		if op != LTE {
			op = GTE
		}
		return NumericRule{Field: name, Op: op, Value: value}
	case field.Membership:
		return MembershipRule{Field: name, Value: value}
	default:
		return TextSearchRule{Field: name, Value: value}
	}
}

// Describe renders a rule the way the filter editor shows it
func Describe(r Rule) string {
	value := r.RawValue()
	if value == "" {
		value = "(not set)"
	}
	if op := OperatorOf(r); op != None {
		return fmt.Sprintf("%s %s %s", r.FieldName(), op.Symbol(), value)
	}
	return fmt.Sprintf("%s = %s", r.FieldName(), value)
}
