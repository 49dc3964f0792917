package field

import "fmt"

// Kind classifies a queryable field and decides which operators and editors apply
type Kind int

const (
	Numeric Kind = iota
	Membership
	TextSearch
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Membership:
		return "membership"
	case TextSearch:
		return "text"
	default:
		return "unknown"
	}
}

// Unit describes how an authored numeric value maps onto the wire
type Unit int

const (
	Plain Unit = iota
	// Percent values are authored 0-100 and transmitted as a 0-1 fraction
	Percent
)

// Vocabulary names the environment provided list that populates editor choices
type Vocabulary int

const (
	NoVocabulary Vocabulary = iota
	Usernames
	Genres
)

// Descriptor declares one queryable field
type Descriptor struct {
	Field       string
	Kind        Kind
	Unit        Unit
	Label       string
	Group       string
	Placeholder string
	Step        string
	Vocabulary  Vocabulary
}

// SortField is a field accepted by sort_by
type SortField struct {
	Field string
	Label string
}

// UnknownFieldError is returned when a rule references a field absent from the catalog
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}
