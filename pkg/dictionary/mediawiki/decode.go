package mediawiki

import (
	"github.com/quickdict/quickdict/internal/xmlnode"
)

// decodeArticle extracts the rendered article text from an action=parse
// response. A response whose parse node carries revid="0" describes a
// missing page and yields no text without being an error.
func decodeArticle(body []byte) (string, bool, error) {
	root, err := xmlnode.Parse(body)
	if err != nil {
		return "", false, err
	}

	parse := root.NamedItem("api").NamedItem("parse")
	if parse == nil || parse.Attr("revid") == "0" {
		return "", false, nil
	}
	text := parse.NamedItem("text")
	if text == nil {
		return "", false, nil
	}
	return text.Text(), true, nil
}

// decodeMatches extracts page titles from a list=allpages response.
func decodeMatches(body []byte) ([]string, error) {
	root, err := xmlnode.Parse(body)
	if err != nil {
		return nil, err
	}

	pages := root.NamedItem("api").NamedItem("query").NamedItem("allpages")
	var matches []string
	for _, p := range pages.ElementsByTagName("p") {
		if title := p.Attr("title"); title != "" {
			matches = append(matches, title)
		}
	}
	return matches, nil
}
