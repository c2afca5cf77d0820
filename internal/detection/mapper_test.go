package detection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapperFiltersDedupesAndSorts(t *testing.T) {
	m := NewMapper(nil)
	inventory := map[string]struct{}{
		"Beaker":        {},
		"Funnel":        {},
		"Tripod":        {},
		"Bunsen Burner": {},
	}
	got := m.Map([]string{"tripod", "beaker", "Beaker ", "compass", "unknown_thing", "funnel"}, inventory)
	require.Equal(t, []string{"Beaker", "Funnel", "Tripod"}, got)
}

func TestMapperEmptyInputs(t *testing.T) {
	m := NewMapper(nil)
	require.Empty(t, m.Map(nil, map[string]struct{}{"Beaker": {}}))
	require.Empty(t, m.Map([]string{"beaker"}, nil))
}

func TestDefaultClassesCoverCatalog(t *testing.T) {
	classes := DefaultClasses()
	require.Len(t, classes, 10)
	m := NewMapper(nil)
	for label, item := range classes {
		got, ok := m.Item(label)
		require.True(t, ok, label)
		require.Equal(t, item, got)
	}
}

func TestCustomMapperSkipsBlankEntries(t *testing.T) {
	m := NewMapper(map[string]string{"Pipette": "Pipette", " ": "Nothing", "burette": ""})
	item, ok := m.Item("pipette")
	require.True(t, ok)
	require.Equal(t, "Pipette", item)
	_, ok = m.Item("burette")
	require.False(t, ok)
	_, ok = m.Item("beaker")
	require.False(t, ok)
}
