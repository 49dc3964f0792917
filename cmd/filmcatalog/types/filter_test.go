package types_test

import (
	"testing"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]types.Operator{
		"gte": types.GTE, ">=": types.GTE, "≥": types.GTE, " GTE ": types.GTE,
		"lte": types.LTE, "<=": types.LTE, "≤": types.LTE,
	} {
		got, err := types.ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := types.ParseOperator("eq")
	assert.Error(t, err)
}

func TestNewRuleDropsOperatorForNonNumericKinds(t *testing.T) {
	t.Parallel()

	r := types.NewRule(field.Membership, "watched_by", types.LTE, "alice")
	assert.Equal(t, types.MembershipRule{Field: "watched_by", Value: "alice"}, r)
	assert.Equal(t, types.None, types.OperatorOf(r))

	r = types.NewRule(field.Numeric, "avg_rating", types.None, "")
	assert.Equal(t, types.NumericRule{Field: "avg_rating", Op: types.GTE}, r)

	r = types.NewRule(field.TextSearch, "directors", types.GTE, "Nolan")
	assert.Equal(t, field.TextSearch, r.Kind())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "avg_rating ≥ 4.0", types.Describe(types.NumericRule{Field: "avg_rating", Op: types.GTE, Value: "4.0"}))
	assert.Equal(t, "genres = (not set)", types.Describe(types.MembershipRule{Field: "genres"}))
}

func TestParseSortOrder(t *testing.T) {
	t.Parallel()

	got, err := types.ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, types.Descending, got)

	_, err = types.ParseSortOrder("random")
	assert.Error(t, err)
}
