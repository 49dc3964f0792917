package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func loaded(current, total int) State {
	s := ApplyResponse(New(), total, total*20)
	return GoToPage(s, current)
}

func TestGoToPageClamps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state State
		page  int
		want  int
	}{
		{"within range", loaded(1, 5), 3, 3},
		{"below range", loaded(2, 5), 0, 1},
		{"negative", loaded(2, 5), -4, 1},
		{"above range", loaded(2, 5), 12, 5},
		{"unknown total", New(), 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := GoToPage(tt.state, tt.page)
			assert.Equal(t, tt.want, got.CurrentPage)
			assert.Equal(t, got.CurrentPage, mustAtoi(t, got.PageInputText))
		})
	}
}

func TestCommitPageInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
	}{
		{"0", 1},
		{"9999", 5},
		{"abc", 1},
		{"", 1},
		{"-3", 1},
		{"4", 4},
		{"  2", 2},
		{"3abc", 3},
		{"+4", 4},
		{"2.9", 2},
		{"99999999999999999999999", 5},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			s := SetPageInputText(loaded(2, 5), tt.input)
			assert.Equal(t, tt.input, s.PageInputText)

			got := CommitPageInput(s)
			assert.Equal(t, tt.want, got.CurrentPage)
			assert.Equal(t, mustAtoi(t, got.PageInputText), got.CurrentPage)
		})
	}
}

func TestApplyResponse(t *testing.T) {
	t.Parallel()

	t.Run("clamps current page down", func(t *testing.T) {
		s := BeginLoading(loaded(7, 10))
		s = ApplyResponse(s, 3, 55)
		assert.Equal(t, 3, s.CurrentPage)
		assert.Equal(t, "3", s.PageInputText)
		assert.Equal(t, Loaded, s.Phase)
		assert.Equal(t, 55, s.TotalItems)
	})

	t.Run("keeps page in range", func(t *testing.T) {
		s := ApplyResponse(loaded(2, 10), 4, 80)
		assert.Equal(t, 2, s.CurrentPage)
		assert.Equal(t, 4, s.TotalPages)
	})

	t.Run("empty result stays on page one", func(t *testing.T) {
		s := ApplyResponse(loaded(4, 10), 0, 0)
		assert.Equal(t, 1, s.CurrentPage)
		assert.False(t, HasNext(s))
		assert.False(t, HasPrev(s))
	})

	t.Run("clears error", func(t *testing.T) {
		s := Fail(loaded(1, 2), "boom")
		assert.Equal(t, Error, s.Phase)
		s = ApplyResponse(BeginLoading(s), 2, 30)
		assert.Empty(t, s.Err)
	})
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	s := loaded(1, 3)
	assert.False(t, HasPrev(s))
	assert.True(t, HasNext(s))

	s = Next(Next(Next(s)))
	assert.Equal(t, 3, s.CurrentPage)
	assert.False(t, HasNext(s))

	s = Prev(s)
	assert.Equal(t, 2, s.CurrentPage)

	s = ResetToFirstPage(s)
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, "1", s.PageInputText)
	assert.Equal(t, 3, s.TotalPages)
}

func TestCurrentPageStaysInRange(t *testing.T) {
	t.Parallel()

	ops := []func(State) State{
		func(s State) State { return GoToPage(s, 50) },
		func(s State) State { return GoToPage(s, -2) },
		Next,
		Prev,
		func(s State) State { return ApplyResponse(s, 2, 30) },
		func(s State) State { return ApplyResponse(s, 0, 0) },
		func(s State) State { return CommitPageInput(SetPageInputText(s, "8")) },
		ResetToFirstPage,
	}

	s := New()
	for i := 0; i < 200; i++ {
		s = ops[(i*7+i/3)%len(ops)](s)
		last := s.TotalPages
		if last < 1 {
			last = 1
		}
		assert.GreaterOrEqual(t, s.CurrentPage, 1)
		assert.LessOrEqual(t, s.CurrentPage, last)
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, ok := parseLeadingInt(s)
	assert.True(t, ok, "page input %q", s)
	return n
}
