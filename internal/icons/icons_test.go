package icons

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/testudy/rebase/public"
)

func TestListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"svgs/search.svg":       {Data: []byte("<svg/>")},
		"svgs/arrow-left.SVG":   {Data: []byte("<svg/>")},
		"svgs/.hidden.svg":      {Data: []byte("<svg/>")},
		"svgs/readme.txt":       {Data: []byte("notes")},
		"svgs/nested/inner.svg": {Data: []byte("<svg/>")},
		"svgs/user_circle.svg":  {Data: []byte("<svg/>")},
		"elsewhere/ignored.svg": {Data: []byte("<svg/>")},
	}

	list, err := List(fsys, "svgs")
	require.NoError(t, err)
	require.Equal(t, []string{"arrow-left", "search", "user_circle"}, Names(list))
	require.Equal(t, Icon{Name: "arrow-left", File: "arrow-left.SVG", Label: "Arrow Left"}, list[0])
	require.Equal(t, "User Circle", list[2].Label)
}

func TestListMissingDirectory(t *testing.T) {
	t.Parallel()

	list, err := List(fstest.MapFS{}, "svgs")
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = List(nil, "svgs")
	require.Error(t, err)
}

func TestListEmbeddedAssets(t *testing.T) {
	t.Parallel()

	static, err := public.StaticFS()
	require.NoError(t, err)

	list, err := List(static, "svgs")
	require.NoError(t, err)
	require.Contains(t, Names(list), "cross")
	require.Contains(t, Names(list), "user-circle")
}
