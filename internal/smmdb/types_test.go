package smmdb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDifficultyAcceptsLabels(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"superexpert", "Super Expert", " SUPEREXPERT "} {
		d, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		require.Equal(t, DifficultySuperExpert, d)
	}
	_, err := ParseDifficulty("impossible")
	require.Error(t, err)
}

func TestDifficultyJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(DifficultyNormal)
	require.NoError(t, err)
	require.JSONEq(t, `"normal"`, string(raw))

	var d Difficulty
	require.NoError(t, json.Unmarshal([]byte(`"expert"`), &d))
	require.Equal(t, DifficultyExpert, d)
}

func TestSortNextVisitsEveryFieldBothWays(t *testing.T) {
	t.Parallel()

	seen := map[Sort]bool{}
	s := DefaultSort
	for i := 0; i < 2*len(SortFields); i++ {
		seen[s] = true
		s = s.Next()
	}
	require.Len(t, seen, 2*len(SortFields))
	require.Equal(t, DefaultSort, s)
}

func TestQueryParamsPage(t *testing.T) {
	t.Parallel()

	q := DefaultQueryParams(10)
	require.Equal(t, 0, q.Page())
	q.Skip = 30
	require.Equal(t, 3, q.Page())
	require.Equal(t, "30", q.Values().Get("skip"))
	require.Empty(t, q.Values().Get("difficulty"))
}
