// Package filter holds the ordered rule collections edited by the user.
//
// A Set is immutable: every operation returns a new Set and leaves the receiver
// untouched, so a pending Set can be edited freely while the active Set that
// drives requests stays frozen until Commit.
package filter

import (
	"fmt"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
)

// IndexOutOfRangeError reports a rule mutation addressing a missing row
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("rule index %d out of range [0,%d)", e.Index, e.Len)
}

// Set is an ordered sequence of rules. Duplicates and conflicting rules on the
// same field are legal; they are resolved by the compiler.
type Set struct {
	rules []types.Rule
}

// NewSet builds a Set from rules, copying the slice
func NewSet(rules ...types.Rule) Set {
	return Set{rules: append([]types.Rule(nil), rules...)}
}

func (s Set) Len() int {
	return len(s.rules)
}

// Rules returns a copy of the rules in authoring order
func (s Set) Rules() []types.Rule {
	return append([]types.Rule(nil), s.rules...)
}

// At returns the rule at index, panicking with *IndexOutOfRangeError if invalid
func (s Set) At(index int) types.Rule {
	s.mustIndex(index)
	return s.rules[index]
}

// Add appends a rule with the default operator and an empty value for the
// field's kind. Unknown fields panic with *field.UnknownFieldError.
func (s Set) Add(cat *field.Catalog, name string) Set {
	kind := mustKind(cat, name)
	return s.with(len(s.rules), types.NewRule(kind, name, types.GTE, ""))
}

// Patch lists the rule attributes to change; nil members are left as they are
type Patch struct {
	Field    *string
	Operator *types.Operator
	Value    *string
}

// Update merges patch into the rule at index. Changing the field re-derives the
// rule variant from the new field's kind and keeps the authored value.
func (s Set) Update(cat *field.Catalog, index int, patch Patch) Set {
	s.mustIndex(index)
	cur := s.rules[index]

	name := cur.FieldName()
	if patch.Field != nil {
		name = *patch.Field
	}
	op := types.OperatorOf(cur)
	if patch.Operator != nil {
		op = *patch.Operator
	}
	value := cur.RawValue()
	if patch.Value != nil {
		value = *patch.Value
	}

	next := make([]types.Rule, len(s.rules))
	copy(next, s.rules)
	next[index] = types.NewRule(mustKind(cat, name), name, op, value)
	return Set{rules: next}
}

// Remove drops the rule at index
func (s Set) Remove(index int) Set {
	s.mustIndex(index)
	next := make([]types.Rule, 0, len(s.rules)-1)
	next = append(next, s.rules[:index]...)
	next = append(next, s.rules[index+1:]...)
	return Set{rules: next}
}

// Commit snapshots a pending set into an independent active set
func Commit(pending Set) Set {
	return NewSet(pending.rules...)
}

// Equal reports whether both sets hold the same rules in the same order
func (s Set) Equal(other Set) bool {
	if len(s.rules) != len(other.rules) {
		return false
	}
	for i := range s.rules {
		if s.rules[i] != other.rules[i] {
			return false
		}
	}
	return true
}

func (s Set) with(index int, r types.Rule) Set {
	next := make([]types.Rule, 0, len(s.rules)+1)
	next = append(next, s.rules[:index]...)
	next = append(next, r)
	next = append(next, s.rules[index:]...)
	return Set{rules: next}
}

func (s Set) mustIndex(index int) {
	if index < 0 || index >= len(s.rules) {
		panic(&IndexOutOfRangeError{Index: index, Len: len(s.rules)})
	}
}

func mustKind(cat *field.Catalog, name string) field.Kind {
	kind, err := cat.KindOf(name)
	if err != nil {
		panic(err)
	}
	return kind
}
