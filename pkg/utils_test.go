package pkg_test

import (
	"strconv"
	"testing"

	. "github.com/tobsdb/jqldb/pkg"
	"gotest.tools/v3/assert"
)

func TestFilter(t *testing.T) {
	res := Filter([]int{1, 2, 3, 4, 5, 6}, func(i int) bool {
		return i%2 == 0
	})

	assert.DeepEqual(t, res, []int{2, 4, 6})
}

func TestMapSlice(t *testing.T) {
	res := MapSlice([]int{1, 2, 3}, strconv.Itoa)
	assert.DeepEqual(t, res, []string{"1", "2", "3"})
}

func TestPadRight(t *testing.T) {
	assert.DeepEqual(t, PadRight([]string{"a"}, 3, ""), []string{"a", "", ""})
	assert.DeepEqual(t, PadRight([]string{"a", "b"}, 1, ""), []string{"a", "b"})
}

func TestInsertSortMap(t *testing.T) {
	m := NewInsertSortMap[string, int]()
	m.Push("b", 1)
	m.Push("a", 2)
	m.Set("b", 3)
	assert.DeepEqual(t, m.Keys(), []string{"b", "a"})
	assert.Equal(t, m.Get("b"), 3)

	m.Delete("b")
	assert.Equal(t, m.Len(), 1)
	assert.Assert(t, !m.Has("b"))
	assert.DeepEqual(t, m.Clone().Keys(), []string{"a"})
}
