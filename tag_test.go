package quaytags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ts(v int64) *int64 {
	return &v
}

func TestSortByRecencyMostRecentFirst(t *testing.T) {
	tags := []Tag{
		{Name: "v1", StartTS: ts(1000)},
		{Name: "v2", StartTS: ts(2000)},
	}

	SortByRecency(tags)

	require.Equal(t, []string{"v2", "v1"}, Names(tags))
}

func TestSortByRecencyMissingTimestampSortsLast(t *testing.T) {
	tags := []Tag{
		{Name: "untimed"},
		{Name: "zero", StartTS: ts(0)},
		{Name: "recent", StartTS: ts(5000)},
	}

	SortByRecency(tags)

	// A tag without a start timestamp sorts after any tag that has one,
	// including an explicit zero.
	require.Equal(t, []string{"recent", "zero", "untimed"}, Names(tags))
}

func TestSortByRecencyStableOnTies(t *testing.T) {
	tags := []Tag{
		{Name: "a", StartTS: ts(100)},
		{Name: "b", StartTS: ts(100)},
		{Name: "c", StartTS: ts(100)},
	}

	SortByRecency(tags)

	require.Equal(t, []string{"a", "b", "c"}, Names(tags))
}

func TestSortTimestampDefaultsToZero(t *testing.T) {
	require.EqualValues(t, 0, Tag{Name: "x"}.SortTimestamp())
	require.EqualValues(t, 42, Tag{Name: "y", StartTS: ts(42)}.SortTimestamp())
}

func TestCloneTagsIsIndependent(t *testing.T) {
	tags := []Tag{{Name: "v1"}, {Name: "v2"}}

	cloned := CloneTags(tags)
	cloned[0].Name = "mutated"

	require.Equal(t, "v1", tags[0].Name)
}

func TestCloneTagsNil(t *testing.T) {
	require.Nil(t, CloneTags(nil))
}
