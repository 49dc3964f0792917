// Package pagination tracks the current page of a remote result list.
//
// Every operation is a pure function taking a State and returning the next
// one. The invariant 1 <= CurrentPage <= max(TotalPages, 1) holds for every
// State produced here.
package pagination

import (
	"strconv"
	"strings"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of the pagination controller
type State struct {
	Phase       Phase
	CurrentPage int
	// TotalPages is 0 until the first response arrives
	TotalPages int
	TotalItems int
	// PageInputText is the raw, uncommitted page number typed by the user
	PageInputText string
	Err           string
}

// New returns the initial state: idle on page 1 with unknown totals
func New() State {
	return State{Phase: Idle, CurrentPage: 1, PageInputText: "1"}
}

func lastPage(s State) int {
	if s.TotalPages < 1 {
		return 1
	}
	return s.TotalPages
}

func clamp(s State, n int) int {
	if n < 1 {
		return 1
	}
	if last := lastPage(s); n > last {
		return last
	}
	return n
}

// GoToPage moves to page n clamped into [1, TotalPages]
func GoToPage(s State, n int) State {
	s.CurrentPage = clamp(s, n)
	s.PageInputText = strconv.Itoa(s.CurrentPage)
	return s
}

func SetPageInputText(s State, text string) State {
	s.PageInputText = text
	return s
}

// CommitPageInput resolves PageInputText to a page and navigates to it.
// Unparseable input and values below 1 go to page 1, values beyond the last
// page go to the last page.
func CommitPageInput(s State) State {
	n, ok := parseLeadingInt(s.PageInputText)
	if !ok {
		n = 1
	}
	return GoToPage(s, n)
}

// ApplyResponse records the totals reported by the service. When the result
// set shrank below the current page, CurrentPage is clamped down and the
// caller is expected to fetch the new page.
func ApplyResponse(s State, totalPages, totalItems int) State {
	if totalPages < 0 {
		totalPages = 0
	}
	if totalItems < 0 {
		totalItems = 0
	}
	s.TotalPages = totalPages
	s.TotalItems = totalItems
	s.Phase = Loaded
	s.Err = ""
	if s.CurrentPage > lastPage(s) {
		s = GoToPage(s, lastPage(s))
	}
	return s
}

// ResetToFirstPage is used when the active filters or sort change
func ResetToFirstPage(s State) State {
	s.CurrentPage = 1
	s.PageInputText = "1"
	return s
}

func BeginLoading(s State) State {
	s.Phase = Loading
	s.Err = ""
	return s
}

func Fail(s State, msg string) State {
	s.Phase = Error
	s.Err = msg
	return s
}

func HasNext(s State) bool {
	return s.CurrentPage < s.TotalPages
}

func HasPrev(s State) bool {
	return s.CurrentPage > 1
}

func Next(s State) State {
	return GoToPage(s, s.CurrentPage+1)
}

func Prev(s State) State {
	return GoToPage(s, s.CurrentPage-1)
}

// parseLeadingInt reads an optionally signed integer prefix after leading
// whitespace, ignoring anything that follows the digits.
func parseLeadingInt(text string) (int, bool) {
	text = strings.TrimLeft(text, " \t\n\r\v\f")
	neg := false
	if text != "" && (text[0] == '+' || text[0] == '-') {
		neg = text[0] == '-'
		text = text[1:]
	}
	end := 0
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(text[:end])
	if err != nil {
		// Overflow: the magnitude alone decides the clamp direction.
		if neg {
			return -1, true
		}
		return int(^uint(0) >> 1), true
	}
	if neg {
		n = -n
	}
	return n, true
}
