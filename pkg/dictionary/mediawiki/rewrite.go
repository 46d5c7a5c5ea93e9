package mediawiki

import (
	"net/url"
	"regexp"
	"strings"
)

const playLink = `<img src="icons/playsound.png" border="0" align="absmiddle" alt="Play"/>`

var (
	rootLinkRe   = regexp.MustCompile(`<a\s+href="/`)
	indexPhpRe   = regexp.MustCompile(`<a\shref="(/(\w*/)*index\.php\?)`)
	audioTagRe   = regexp.MustCompile(`(?is)<audio\s.+?</audio>`)
	audioSrcRe   = regexp.MustCompile(`(?i)<source\s+src="([^"]+)`)
	commonsOggRe = regexp.MustCompile(`<a\s+href="(//upload\.wikimedia\.org/wikipedia/commons/[^"'&]*\.ogg)`)
	wikiPrefixRe = regexp.MustCompile(`<a\shref="/wiki/`)
	buttonOggRe  = regexp.MustCompile(`<button\s+[^>]*(upload\.wikimedia\.org/wikipedia/commons/[^"'&]*\.ogg)[^>]*>\s*<[^<]*</button>`)
	bareLinkRe   = regexp.MustCompile(`<a\s+href="[^/:">#]+`)
	filePageRe   = regexp.MustCompile(`(?i)<a\s+href="([^:/"]*file%3A[^/"]+")`)
)

// rewriteArticle adapts the article HTML served by the wiki for standalone
// rendering: links going through the wiki root are normalized, relative and
// protocol-relative resources are absolutized against the wiki URL, audio
// markup is reduced to plain play links and in-wiki links are stripped down
// to bare words.
func rewriteArticle(article, wikiURL string) string {
	scheme := "https"
	root := ""
	if u, err := url.Parse(wikiURL); err == nil && u.Host != "" {
		if u.Scheme != "" {
			scheme = u.Scheme
		}
		root = scheme + "://" + u.Host
	}

	article = fixRootBasedLinks(article)

	if root != "" {
		// Special index.php pages become absolute.
		article = indexPhpRe.ReplaceAllString(article, `<a href="`+root+`$1`)
	}

	article = audioTagRe.ReplaceAllStringFunc(article, func(tag string) string {
		m := audioSrcRe.FindStringSubmatch(tag)
		if m == nil {
			return tag
		}
		return `<a href="` + m[1] + `">` + playLink + `</a>`
	})

	article = commonsOggRe.ReplaceAllString(article, `<a href="`+scheme+`:$1`)

	// Resource URLs: protocol-relative first, then root-relative.
	article = strings.ReplaceAll(article, ` src="//`, ` src="`+scheme+`://`)
	if root != "" {
		article = strings.ReplaceAll(article, `src="/`, `src="`+root+`/`)
	}

	article = wikiPrefixRe.ReplaceAllString(article, `<a href="`)

	article = buttonOggRe.ReplaceAllString(article,
		`<a href="`+scheme+`://$1">`+playLink+`</a>`)

	article = underscoresToSpacesInLinks(article)

	// Links to file description pages keep their title= form.
	article = filePageRe.ReplaceAllString(article, `<a href="`+wikiURL+`/index.php?title=$1`)

	return article
}

// fixRootBasedLinks rewrites the target of every root-based link: colons
// are escaped and a fragment pointing into another article becomes a
// gdanchor query so the in-page anchor survives the link rewrite.
func fixRootBasedLinks(article string) string {
	var b strings.Builder
	pos := 0
	found := false
	for {
		loc := rootLinkRe.FindStringIndex(article[pos:])
		if loc == nil {
			break
		}
		found = true
		next := pos + loc[1]
		b.WriteString(article[pos:next])
		pos = next

		end := strings.Index(article[pos:], `"`)
		if end < 0 {
			// Unterminated link; keep the tail as is.
			break
		}
		b.WriteString(fixLinkTarget(article[pos : pos+end]))
		pos += end
	}
	if !found {
		return article
	}
	b.WriteString(article[pos:])
	return b.String()
}

func fixLinkTarget(target string) string {
	if strings.Contains(target, "://") {
		return target // external link
	}
	target = strings.ReplaceAll(target, ":", "%3A")
	if n := strings.Index(target[1:], "#"); n >= 0 {
		anchor := strings.ReplaceAll(target[n+2:], "_", "%5F")
		target = target[:n+1] + "?gdanchor=" + anchor
	}
	return target
}

func underscoresToSpacesInLinks(article string) string {
	return bareLinkRe.ReplaceAllStringFunc(article, func(link string) string {
		return strings.ReplaceAll(link, "_", " ")
	})
}
