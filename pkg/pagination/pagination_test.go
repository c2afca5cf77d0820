package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-3))
	require.Equal(t, 10, NormalizeLimit(10))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	require.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor(Cursor{BeforeID: 42})
	cursor, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.Equal(t, int64(42), cursor.BeforeID)

	cursor, err = ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, cursor)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{"!!!", "aWQ6", "Zm9vOjE", "aWQ6LTE"} {
		_, err := ParseCursor(value)
		require.Error(t, err, value)
	}
}

func TestTrim(t *testing.T) {
	idOf := func(v int64) int64 { return v }

	rows, next := Trim([]int64{9, 8, 7}, 3, idOf)
	require.Equal(t, []int64{9, 8, 7}, rows)
	require.Empty(t, next)

	rows, next = Trim([]int64{9, 8, 7, 6}, 3, idOf)
	require.Equal(t, []int64{9, 8, 7}, rows)
	cursor, err := ParseCursor(next)
	require.NoError(t, err)
	require.Equal(t, int64(7), cursor.BeforeID)
}
