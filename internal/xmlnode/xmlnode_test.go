package xmlnode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNavigation(t *testing.T) {
	doc := []byte(`<api><query><allpages><p title="Alpha"/><p title="Beta"/></allpages></query></api>`)

	root, err := Parse(doc)
	require.NoError(t, err)

	pages := root.NamedItem("api").NamedItem("query").NamedItem("allpages")
	require.NotNil(t, pages)

	items := pages.ElementsByTagName("p")
	require.Len(t, items, 2)
	require.Equal(t, "Alpha", items[0].Attr("title"))
	require.Equal(t, "Beta", items[1].Attr("title"))
}

func TestParseNilSafeNavigation(t *testing.T) {
	root, err := Parse([]byte(`<api/>`))
	require.NoError(t, err)

	require.Nil(t, root.NamedItem("api").NamedItem("missing").NamedItem("deeper"))
	require.Empty(t, root.NamedItem("nope").Text())
	require.Empty(t, root.NamedItem("nope").Attr("a"))
}

func TestParseTextIsRecursive(t *testing.T) {
	root, err := Parse([]byte(`<item><a>one </a><b>two<c> three</c></b></item>`))
	require.NoError(t, err)

	require.Equal(t, "one two three", root.NamedItem("item").Text())
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := Parse([]byte("<api>\n<broken</api>"))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 2, parseErr.Line)
	require.Positive(t, parseErr.Column)
	require.Contains(t, parseErr.Error(), "XML parse error:")
}

func TestParseElementsByTagNameSearchesDescendants(t *testing.T) {
	root, err := Parse([]byte(`<r><x><item/></x><item/></r>`))
	require.NoError(t, err)

	require.Len(t, root.NamedItem("r").ElementsByTagName("item"), 2)
}
