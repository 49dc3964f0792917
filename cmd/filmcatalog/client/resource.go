package client

import (
	"encoding/json"
	"fmt"

	"github.com/SanteonNL/filmcatalog/models/catalog"
)

// Resource describes where a paged collection lives and how its response
// envelope names the items and totals.
type Resource struct {
	Name          string
	Path          string
	ItemsKey      string
	TotalItemsKey string
	TotalPagesKey string
}

var (
	Films = Resource{
		Name:          "films",
		Path:          "/films",
		ItemsKey:      "films",
		TotalItemsKey: "total_films",
		TotalPagesKey: "total_pages",
	}
	Users = Resource{
		Name:          "users",
		Path:          "/users",
		ItemsKey:      "users",
		TotalItemsKey: "total_users",
		TotalPagesKey: "total_pages",
	}
)

// ResourceByName returns the resource called name
func ResourceByName(name string) (Resource, error) {
	switch name {
	case Films.Name:
		return Films, nil
	case Users.Name:
		return Users, nil
	default:
		return Resource{}, fmt.Errorf("unknown resource %q", name)
	}
}

// Page is one page of a paged collection with the raw items left undecoded
type Page struct {
	Items      []json.RawMessage
	TotalItems int
	TotalPages int
}

func (p Page) Films() ([]catalog.Film, error) {
	return decodeItems[catalog.Film](p.Items)
}

func (p Page) Users() ([]catalog.User, error) {
	return decodeItems[catalog.User](p.Items)
}

func decodeItems[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to decode item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parsePage reads the response envelope of res, falling back to the
// generic items/total_items keys.
func parsePage(res Resource, body []byte) (Page, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Page{}, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	var page Page
	if raw, ok := lookup(envelope, res.ItemsKey, "items"); ok {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return Page{}, fmt.Errorf("failed to parse %s: %w", res.ItemsKey, err)
		}
	}
	if raw, ok := lookup(envelope, res.TotalItemsKey, "total_items"); ok {
		if err := json.Unmarshal(raw, &page.TotalItems); err != nil {
			return Page{}, fmt.Errorf("failed to parse %s: %w", res.TotalItemsKey, err)
		}
	}
	if raw, ok := lookup(envelope, res.TotalPagesKey, "total_pages"); ok {
		if err := json.Unmarshal(raw, &page.TotalPages); err != nil {
			return Page{}, fmt.Errorf("failed to parse %s: %w", res.TotalPagesKey, err)
		}
	}
	if page.Items == nil {
		page.Items = []json.RawMessage{}
	}
	return page, nil
}

func lookup(envelope map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := envelope[k]; ok && k != "" && string(raw) != "null" {
			return raw, true
		}
	}
	return nil, false
}
