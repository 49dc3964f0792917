package types

import (
	"fmt"
	"strings"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort order %q (want asc or desc)", s)
}

// SortSpec selects the ordering of a result list
type SortSpec struct {
	By    string
	Order SortOrder
}

func (s SortSpec) String() string {
	return s.By + " " + string(s.Order)
}

// PageRequest addresses one page of a result list. PageSize is fixed per session.
type PageRequest struct {
	Page     int
	PageSize int
}
