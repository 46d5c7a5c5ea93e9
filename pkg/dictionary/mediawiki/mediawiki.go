// Package mediawiki implements dictionary lookups against the MediaWiki
// web API. Site variants (Fandom wikis, Wookieepedia and its Legends mode)
// are selected from the configured URL and differ only in the hook pipeline
// attached to each request.
package mediawiki

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/quickdict/quickdict/internal/request"
	"github.com/quickdict/quickdict/pkg/dictionary"
	"github.com/quickdict/quickdict/pkg/logger"
)

const (
	articleQuery = "/api.php?action=parse&prop=text|revid&format=xml&redirects"
	searchQuery  = "/api.php?action=query&list=allpages&aplimit=40&format=xml"
)

// Inactive Legends tab marker. When present, the current article is the
// Canon version and the Legends version should be shown instead.
const legendsMarker = `title="Click here for Wookieepedia&#39;s article on the Legends version of this subject."`

const legendsSuffix = "/Legends"

type variant int

const (
	variantPlain variant = iota
	variantFandom
	variantWookieepedia
	variantWookieepediaLegends
)

// Config carries the shared infrastructure a Dictionary issues its calls
// through.
type Config struct {
	Logger     logger.Logger
	Transport  request.Transport
	Dispatcher request.Dispatcher
}

// Dictionary is one configured MediaWiki source.
type Dictionary struct {
	id      string
	name    string
	url     string
	lang    string
	variant variant
	cfg     Config
}

var _ dictionary.Dictionary = (*Dictionary)(nil)

// New builds a Dictionary from one source entry. The variant is detected
// from the URL suffix; a " (Legends)" decorated Wookieepedia URL selects the
// Legends-preferring mode and is stripped back to the real wiki root.
func New(src dictionary.MediaWikiSource, cfg Config) *Dictionary {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	d := &Dictionary{
		id:   src.ID,
		name: src.Name,
		url:  src.URL,
		cfg:  cfg,
	}

	switch {
	case strings.HasSuffix(d.url, "/starwars.wikia.com (Legends)"):
		d.url = strings.TrimSuffix(d.url, " (Legends)")
		d.variant = variantWookieepediaLegends
	case strings.HasSuffix(d.url, "/starwars.wikia.com"):
		d.variant = variantWookieepedia
	case strings.HasSuffix(d.url, ".wikia.com"):
		d.variant = variantFandom
	default:
		d.variant = variantPlain
	}

	d.lang = languageFromURL(d.url)

	if d.id == "" {
		d.id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(src.URL)).String()
	}
	return d
}

func (d *Dictionary) ID() string { return d.id }

func (d *Dictionary) Name() string { return d.name }

// Language returns the two-letter code detected from the URL host, or the
// empty string.
func (d *Dictionary) Language() string { return d.lang }

// GetArticle starts a lookup for word plus its alternates and returns
// immediately. The hook pipeline depends on the site variant.
func (d *Dictionary) GetArticle(word string, alternates []string) dictionary.Request {
	return request.NewArticleRequest(request.Config{
		Logger:     d.cfg.Logger,
		Transport:  d.cfg.Transport,
		Dispatcher: d.cfg.Dispatcher,
		BuildURL:   d.articleURL,
		Decode:     decodeArticle,
		Transform:  d.transformArticle,
		Hooks:      d.hooks(),
	}, word, alternates)
}

// Search starts an incremental prefix match against the allpages list.
func (d *Dictionary) Search(prefix string) dictionary.SearchRequest {
	return request.NewSearchRequest(request.SearchConfig{
		Logger:     d.cfg.Logger,
		Transport:  d.cfg.Transport,
		Dispatcher: d.cfg.Dispatcher,
		BuildURL:   d.searchURL,
		Decode:     decodeMatches,
	}, prefix)
}

// hooks returns a fresh pipeline for one request. Hook instances hold
// per-request state and must not be reused.
func (d *Dictionary) hooks() []request.Hook {
	switch d.variant {
	case variantFandom:
		return []request.Hook{fandomFixupHook()}
	case variantWookieepedia:
		return []request.Hook{fandomFixupHook(), eraIconsHook()}
	case variantWookieepediaLegends:
		return []request.Hook{
			&request.SuffixFallbackHook{Suffix: legendsSuffix},
			&request.RedirectHook{Marker: legendsMarker},
			fandomFixupHook(),
			eraIconsHook(),
		}
	default:
		return nil
	}
}

func (d *Dictionary) articleURL(word string) string {
	return d.url + articleQuery + "&page=" + url.QueryEscape(word)
}

func (d *Dictionary) searchURL(prefix string) string {
	return d.url + searchQuery + "&apfrom=" + url.QueryEscape(prefix)
}

// transformArticle rewrites a raw article fragment for local rendering and
// wraps it in the container div, right-to-left for RTL languages.
func (d *Dictionary) transformArticle(fragment string) string {
	out := rewriteArticle(fragment, d.url)
	if rtlLanguages[d.lang] {
		return `<div class="mwiki" dir="rtl">` + out + `</div>`
	}
	return `<div class="mwiki">` + out + `</div>`
}

// languageFromURL extracts the two-letter language code preceding the first
// dot of the host, as in "https://en.wikipedia.org/w".
func languageFromURL(u string) string {
	n := strings.Index(u, ".")
	if n == 2 || (n > 3 && u[n-3] == '/') {
		return strings.ToLower(u[n-2 : n])
	}
	return ""
}

var rtlLanguages = map[string]bool{
	"ar": true,
	"dv": true,
	"fa": true,
	"he": true,
	"ps": true,
	"sd": true,
	"ug": true,
	"ur": true,
	"yi": true,
}
