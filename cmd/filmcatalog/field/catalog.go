package field

import (
	"sync"

	"golang.org/x/exp/slices"
)

const (
	GroupNumeric      = "Numeric Fields"
	GroupUserActivity = "User Activity"
	GroupGenre        = "Genre"
	GroupTextSearch   = "Text Search"
)

// Catalog is the static field taxonomy of one catalog resource
type Catalog struct {
	resource    string
	descriptors []Descriptor
	index       map[string]int
	sortFields  []SortField
}

func newCatalog(resource string, descriptors []Descriptor, sortFields []SortField) *Catalog {
	c := &Catalog{
		resource:    resource,
		descriptors: descriptors,
		index:       make(map[string]int, len(descriptors)),
		sortFields:  sortFields,
	}
	for i, d := range descriptors {
		c.index[d.Field] = i
	}
	return c
}

var (
	filmsOnce sync.Once
	films     *Catalog
	usersOnce sync.Once
	users     *Catalog
)

// Films returns the catalog of filterable film fields
func Films() *Catalog {
	filmsOnce.Do(func() {
		films = newCatalog("films", []Descriptor{
			{Field: "avg_rating", Kind: Numeric, Label: "Average Rating", Group: GroupNumeric, Step: "0.1"},
			{Field: "num_ratings", Kind: Numeric, Label: "Number of Ratings", Group: GroupNumeric, Step: "1"},
			{Field: "num_watches", Kind: Numeric, Label: "Number of Watches", Group: GroupNumeric, Step: "1"},
			{Field: "num_likes", Kind: Numeric, Label: "Number of Likes", Group: GroupNumeric, Step: "1"},
			{Field: "like_ratio", Kind: Numeric, Unit: Percent, Label: "Like Ratio", Group: GroupNumeric, Step: "1"},
			{Field: "metadata.avg_rating", Kind: Numeric, Label: "Letterboxd Avg Rating", Group: GroupNumeric, Step: "0.1"},
			{Field: "metadata.year", Kind: Numeric, Label: "Year", Group: GroupNumeric, Step: "1"},
			{Field: "metadata.runtime", Kind: Numeric, Label: "Runtime (minutes)", Group: GroupNumeric, Step: "1"},

			{Field: "watched_by", Kind: Membership, Label: "Watched By", Group: GroupUserActivity, Vocabulary: Usernames},
			{Field: "not_watched_by", Kind: Membership, Label: "Not Watched By", Group: GroupUserActivity, Vocabulary: Usernames},
			{Field: "rated_by", Kind: Membership, Label: "Rated By", Group: GroupUserActivity, Vocabulary: Usernames},
			{Field: "not_rated_by", Kind: Membership, Label: "Not Rated By", Group: GroupUserActivity, Vocabulary: Usernames},

			{Field: "genres", Kind: Membership, Label: "Genre", Group: GroupGenre, Vocabulary: Genres,
				Placeholder: "e.g., Horror, Comedy, Science Fiction"},

			{Field: "directors", Kind: TextSearch, Label: "Director", Group: GroupTextSearch,
				Placeholder: "e.g., Christopher Nolan, Quentin Tarantino"},
			{Field: "actors", Kind: TextSearch, Label: "Actor", Group: GroupTextSearch,
				Placeholder: "e.g., Tom Hanks, Meryl Streep"},
			{Field: "studios", Kind: TextSearch, Label: "Studio", Group: GroupTextSearch,
				Placeholder: "e.g., Warner Bros, A24"},
			{Field: "themes", Kind: TextSearch, Label: "Theme", Group: GroupTextSearch,
				Placeholder: "e.g., Time Travel, Coming of Age"},
			{Field: "description", Kind: TextSearch, Label: "Description", Group: GroupTextSearch,
				Placeholder: "Search in descriptions..."},
			{Field: "crew", Kind: TextSearch, Label: "Crew", Group: GroupTextSearch,
				Placeholder: "e.g., Cinematographer, Composer"},
		}, []SortField{
			{Field: "film_title", Label: "Title"},
			{Field: "avg_rating", Label: "Average Rating"},
			{Field: "num_ratings", Label: "Number of Ratings"},
			{Field: "num_watches", Label: "Number of Watches"},
			{Field: "num_likes", Label: "Number of Likes"},
			{Field: "like_ratio", Label: "Like Ratio"},
		})
	})
	return films
}

// Users returns the catalog of filterable user statistics
func Users() *Catalog {
	usersOnce.Do(func() {
		users = newCatalog("users", []Descriptor{
			{Field: "avg_rating", Kind: Numeric, Label: "Average Rating", Group: GroupNumeric, Step: "0.1"},
			{Field: "num_ratings", Kind: Numeric, Label: "Ratings Given", Group: GroupNumeric, Step: "1"},
			{Field: "num_watches", Kind: Numeric, Label: "Films Watched", Group: GroupNumeric, Step: "1"},
			{Field: "num_likes", Kind: Numeric, Label: "Number of Likes", Group: GroupNumeric, Step: "1"},
			{Field: "like_ratio", Kind: Numeric, Unit: Percent, Label: "Like Ratio", Group: GroupNumeric, Step: "1"},
		}, []SortField{
			{Field: "username", Label: "Username"},
			{Field: "avg_rating", Label: "Average Rating"},
			{Field: "num_ratings", Label: "Ratings Given"},
			{Field: "num_watches", Label: "Films Watched"},
			{Field: "num_likes", Label: "Number of Likes"},
			{Field: "like_ratio", Label: "Like Ratio"},
		})
	})
	return users
}

// ForResource returns the catalog registered for a resource name
func ForResource(resource string) (*Catalog, bool) {
	switch resource {
	case "films":
		return Films(), true
	case "users":
		return Users(), true
	}
	return nil, false
}

// Resource returns the name of the resource the catalog describes
func (c *Catalog) Resource() string {
	return c.resource
}

// Lookup returns the descriptor for field
func (c *Catalog) Lookup(field string) (Descriptor, bool) {
	i, ok := c.index[field]
	if !ok {
		return Descriptor{}, false
	}
	return c.descriptors[i], true
}

// KindOf returns the kind of field, or an *UnknownFieldError
func (c *Catalog) KindOf(field string) (Kind, error) {
	d, ok := c.Lookup(field)
	if !ok {
		return 0, &UnknownFieldError{Field: field}
	}
	return d.Kind, nil
}

// UnitOf returns the value unit of field, or an *UnknownFieldError
func (c *Catalog) UnitOf(field string) (Unit, error) {
	d, ok := c.Lookup(field)
	if !ok {
		return 0, &UnknownFieldError{Field: field}
	}
	return d.Unit, nil
}

// Fields returns all descriptors in display order
func (c *Catalog) Fields() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Names returns the field names in display order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.descriptors))
	for i, d := range c.descriptors {
		out[i] = d.Field
	}
	return out
}

// FieldGroup is one labelled section of the field picker
type FieldGroup struct {
	Label  string
	Fields []Descriptor
}

// Groups returns the descriptors grouped by their display group, in first-seen order
func (c *Catalog) Groups() []FieldGroup {
	var groups []FieldGroup
	pos := make(map[string]int)
	for _, d := range c.descriptors {
		i, ok := pos[d.Group]
		if !ok {
			i = len(groups)
			pos[d.Group] = i
			groups = append(groups, FieldGroup{Label: d.Group})
		}
		groups[i].Fields = append(groups[i].Fields, d)
	}
	return groups
}

// SortFields returns the fields accepted by sort_by
func (c *Catalog) SortFields() []SortField {
	out := make([]SortField, len(c.sortFields))
	copy(out, c.sortFields)
	return out
}

// Sortable reports whether field may be used as sort_by
func (c *Catalog) Sortable(field string) bool {
	return slices.ContainsFunc(c.sortFields, func(s SortField) bool {
		return s.Field == field
	})
}
