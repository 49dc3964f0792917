package output

import "sort"

// Expanded is an immutable set of toggled keys: film IDs whose details are
// shown, or superlative categories that are folded away
type Expanded struct {
	ids map[string]struct{}
}

func (e Expanded) Has(id string) bool {
	_, ok := e.ids[id]
	return ok
}

func (e Expanded) Len() int {
	return len(e.ids)
}

// Toggle returns a copy of e with id added, or removed when already present
func (e Expanded) Toggle(id string) Expanded {
	next := Expanded{ids: make(map[string]struct{}, len(e.ids)+1)}
	for k := range e.ids {
		next.ids[k] = struct{}{}
	}
	if _, ok := next.ids[id]; ok {
		delete(next.ids, id)
	} else {
		next.ids[id] = struct{}{}
	}
	return next
}

// IDs returns the members in sorted order
func (e Expanded) IDs() []string {
	ids := make([]string, 0, len(e.ids))
	for id := range e.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
