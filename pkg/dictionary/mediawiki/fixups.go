package mediawiki

import (
	"regexp"

	"github.com/quickdict/quickdict/internal/request"
)

var (
	lazyImageRe   = regexp.MustCompile(`(?s)<img\s[^>]+lzy lzyPlcHld[^>]+>\s*<noscript>\s*(<img\s[^<]+)</noscript>`)
	vignetteOggRe = regexp.MustCompile(`<a href=("https://vignette\.wikia\.nocookie\.net/[^"]+\.ogg)(/revision/latest)?(\?cb=\d+)?"`)
	scrollboxRe   = regexp.MustCompile(`(class="scrollbox"[^` + "\n" + `]*[^-])height:\d+px;`)
	eraIconsRe    = regexp.MustCompile(`(id="title-eraicons" style="[^"]*)display:none;?`)
)

// fandomFixupHook repairs Fandom-served article HTML for a renderer without
// scripting: lazily loaded images are swapped for their noscript fallback,
// decorated audio URLs are reduced to the raw .ogg target and scrollable
// containers lose their fixed height so nothing is clipped.
func fandomFixupHook() *request.ContentFixupHook {
	return request.NewContentFixupHook("fandom-fixups", func(fragment string) string {
		fragment = lazyImageRe.ReplaceAllString(fragment, "$1")
		fragment = vignetteOggRe.ReplaceAllString(fragment, `<a href=$1"`)
		fragment = scrollboxRe.ReplaceAllString(fragment, "$1")
		return fragment
	})
}

// eraIconsHook unhides the era icons at the top of a Wookieepedia article.
// The Canon/Legends indicator among them is the only cue telling which
// version of the subject the article describes.
func eraIconsHook() *request.ContentFixupHook {
	return request.NewContentFixupHook("era-icons", func(fragment string) string {
		return eraIconsRe.ReplaceAllString(fragment, "$1")
	})
}
