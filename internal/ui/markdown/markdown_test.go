package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r, err := New(40, "notty")
	require.NoError(t, err)
	require.Equal(t, 40, r.Width())
	require.Equal(t, "notty", r.Style())

	out, err := r.Render("# Title\n\nSome body text.")
	require.NoError(t, err)
	require.Contains(t, out, "Title")
	require.Contains(t, out, "Some body text.")
	require.False(t, strings.HasSuffix(out, "\n"))
}

func TestRenderer_WrapsToWidth(t *testing.T) {
	r, err := New(20, "notty")
	require.NoError(t, err)

	out, err := r.Render(strings.Repeat("word ", 20))
	require.NoError(t, err)
	require.Greater(t, strings.Count(out, "\n"), 2)
}
