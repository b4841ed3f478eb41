package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkCompareOrdersByURLThenDepth(t *testing.T) {
	t.Parallel()

	a := NewLink("http://x/a", 2)
	b := NewLink("http://x/b", 1)
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Negative(t, NewLink("http://x/a", 1).Compare(a))
	require.Zero(t, a.Compare(NewLink("http://x/a", 2)))
}

func TestSortLinks(t *testing.T) {
	t.Parallel()

	links := []Link{
		NewLink("http://x/b", 1),
		NewLink("http://x/", 0),
		NewLink("http://x/a/", 3),
		NewLink("http://x/a/", 1),
	}
	SortLinks(links)
	require.Equal(t, []Link{
		NewLink("http://x/", 0),
		NewLink("http://x/a/", 1),
		NewLink("http://x/a/", 3),
		NewLink("http://x/b", 1),
	}, links)
}

func TestLinkLine(t *testing.T) {
	t.Parallel()

	require.Equal(t, "http://x/\n", NewLink("http://x/", 0).Line("\t"))
	require.Equal(t, "\t\thttp://x/a/b\n", NewLink("http://x/a/b", 2).Line("\t"))
	require.Equal(t, "    http://x/a/\n", NewLink("http://x/a/", 2).Line("  "))
	require.Equal(t, "\thttp://x/a/", NewLink("http://x/a/", 1).String())
}

func TestNewLinkClampsNegativeDepth(t *testing.T) {
	t.Parallel()

	l := NewLink("http://x/", -3)
	require.Equal(t, 0, l.Depth())
	require.Equal(t, 1, l.Child("http://x/a").Depth())
	require.Equal(t, "http://x/a", l.Child("http://x/a").URL())
}
