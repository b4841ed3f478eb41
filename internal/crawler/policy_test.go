package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkPolicyInScope(t *testing.T) {
	t.Parallel()

	p := newLinkPolicy("http://x/")
	cases := []struct {
		url  string
		want bool
	}{
		{"http://x/", true},
		{"http://x/a/", true},
		{"http://x/a/b", true},
		{"http://x/a#", false},
		{"http://y/", false},
		{"http://y/?next=http://x/", false},
		{"https://x/", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, p.inScope(tc.url), tc.url)
	}
}

func TestLinkPolicyExpandable(t *testing.T) {
	t.Parallel()

	p := newLinkPolicy("http://x/")
	require.True(t, p.expandable("http://x/a/"))
	require.False(t, p.expandable("http://x/a/b"))
	require.False(t, p.expandable("http://x/a/b.pdf"))
}
