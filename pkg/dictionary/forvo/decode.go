package forvo

import (
	"errors"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/quickdict/quickdict/internal/request"
	"github.com/quickdict/quickdict/internal/xmlnode"
)

const playLink = `<img src="icons/playsound.png" border="0" alt="Play"/>`

// decodePronunciations returns the decoder for one word's lookup. The API
// reports failures inside the response document; a response may carry both
// pronunciations and an error.
func decodePronunciations(word string) request.DecodeFunc {
	return func(body []byte) (string, bool, error) {
		root, err := xmlnode.Parse(body)
		if err != nil {
			return "", false, err
		}

		var decodeErr error
		if msg := root.NamedItem("errors").NamedItem("error").Text(); msg != "" {
			decodeErr = errors.New(msg)
		}

		items := root.NamedItem("items").ElementsByTagName("item")
		fragment := renderPronunciations(word, items)
		if fragment == "" {
			return "", false, decodeErr
		}
		return fragment, true, decodeErr
	}
}

// renderPronunciations builds the headword block and the play table, one
// row per pronunciation. Items without an mp3 path are skipped, but any item
// at all yields the headword, even over an empty table.
func renderPronunciations(word string, items []*xmlnode.Node) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder

	for _, item := range items {
		mp3 := item.NamedItem("pathmp3").Text()
		if mp3 == "" {
			continue
		}

		user := item.NamedItem("username").Text()
		country := item.NamedItem("country").Text()
		sex := strings.ToLower(item.NamedItem("sex").Text())
		addTime := item.NamedItem("addtime").Text()

		totalVotes, _ := strconv.Atoi(item.NamedItem("num_votes").Text())
		positiveVotes, _ := strconv.Atoi(item.NamedItem("num_positive_votes").Text())
		negativeVotes := totalVotes - positiveVotes

		gender := "Male"
		if sex == "f" {
			gender = "Female"
		}

		b.WriteString("<tr>")

		b.WriteString(`<td><a href="` + html.EscapeString(mp3) + `" title="` +
			html.EscapeString("Added "+addTime) + `">` + playLink + `</a></td>`)

		b.WriteString(`<td>by <a class='forvo_user' href='http://www.forvo.com/user/` +
			url.PathEscape(user) + `/'>` + html.EscapeString(user) +
			`</a> <span class='forvo_location'>(` + gender + ` from ` +
			html.EscapeString(country) + `)</span>`)

		if positiveVotes > 0 || negativeVotes > 0 {
			b.WriteString(" ")
			if positiveVotes > 0 {
				b.WriteString(`<span class='forvo_positive_votes'>+` +
					strconv.Itoa(positiveVotes) + `</span>`)
			}
			if negativeVotes > 0 {
				if positiveVotes > 0 {
					b.WriteString(" ")
				}
				b.WriteString(`<span class='forvo_negative_votes'>-` +
					strconv.Itoa(negativeVotes) + `</span>`)
			}
		}
		b.WriteString("</td>")

		b.WriteString("</tr>")
	}

	return `<div class='forvo_headword'>` + html.EscapeString(word) + `</div>` +
		`<table class="forvo_play">` + b.String() + `</table>`
}
