package catalog

// SuperlativeCategory groups awards such as "User Superlatives"
type SuperlativeCategory struct {
	ID           string        `json:"_id,omitempty"`
	Category     string        `json:"category"`
	Superlatives []Superlative `json:"superlatives"`
}

// Superlative is one award with up to three places. Ties share a place.
type Superlative struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	First       []string `json:"first,omitempty"`
	FirstValue  *float64 `json:"first_value,omitempty"`
	Second      []string `json:"second,omitempty"`
	SecondValue *float64 `json:"second_value,omitempty"`
	Third       []string `json:"third,omitempty"`
	ThirdValue  *float64 `json:"third_value,omitempty"`
}

// Place is one podium step of a superlative
type Place struct {
	Rank    int
	Winners []string
	Value   *float64
}

// Places returns the podium steps that have winners, first place first
func (s Superlative) Places() []Place {
	all := []Place{
		{Rank: 1, Winners: s.First, Value: s.FirstValue},
		{Rank: 2, Winners: s.Second, Value: s.SecondValue},
		{Rank: 3, Winners: s.Third, Value: s.ThirdValue},
	}
	places := make([]Place, 0, len(all))
	for _, p := range all {
		if len(p.Winners) > 0 {
			places = append(places, p)
		}
	}
	return places
}
