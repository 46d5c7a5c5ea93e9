package mediawiki

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const wikiURL = "https://en.wikipedia.org/w"

func TestRewriteArticle(t *testing.T) {
	t.Run("escapes_colons_in_root_links", func(t *testing.T) {
		in := `<a href="/wiki/Category:Fruit">Fruit</a>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `href="Category%3AFruit"`)
	})

	t.Run("anchor_becomes_gdanchor_query", func(t *testing.T) {
		in := `<a href="/wiki/Apple#Cultural_uses">Apple</a>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `href="Apple?gdanchor=Cultural%5Fuses"`)
	})

	t.Run("external_links_untouched", func(t *testing.T) {
		in := `see <a href="https://example.org/a:b#c">elsewhere</a>`
		out := rewriteArticle(in, wikiURL)
		require.Equal(t, in, out)
	})

	t.Run("unterminated_link_keeps_tail", func(t *testing.T) {
		in := `<p>intro</p><a href="/wiki/Broken`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, "<p>intro</p>")
		require.Contains(t, out, "Broken")
	})

	t.Run("index_php_links_absolutized", func(t *testing.T) {
		in := `<a href="/w/index.php?title=Special:Foo">special</a>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `href="https://en.wikipedia.org/w/index.php?title=Special%3AFoo"`)
	})

	t.Run("audio_tag_becomes_play_link", func(t *testing.T) {
		in := `before <audio class="x"><source src="https://upload.wikimedia.org/a.ogg" type="audio/ogg"/></audio> after`
		out := rewriteArticle(in, wikiURL)
		require.NotContains(t, out, "<audio")
		require.Contains(t, out, `<a href="https://upload.wikimedia.org/a.ogg">`)
		require.Contains(t, out, `alt="Play"`)
	})

	t.Run("protocol_relative_ogg_link_gets_scheme", func(t *testing.T) {
		in := `<a href="//upload.wikimedia.org/wikipedia/commons/6/62/En-us-apple.ogg">listen</a>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `<a href="https://upload.wikimedia.org/wikipedia/commons/6/62/En-us-apple.ogg"`)
	})

	t.Run("src_urls_absolutized", func(t *testing.T) {
		in := `<img src="//upload.wikimedia.org/x.png"/> <img src="/static/y.png"/>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `src="https://upload.wikimedia.org/x.png"`)
		require.Contains(t, out, `src="https://en.wikipedia.org/static/y.png"`)
	})

	t.Run("commons_audio_button_becomes_play_link", func(t *testing.T) {
		in := `<button class="play" data-src="upload.wikimedia.org/wikipedia/commons/a.ogg"> <img src="play.png"></button>`
		out := rewriteArticle(in, wikiURL)
		require.NotContains(t, out, "<button")
		require.Contains(t, out, `<a href="https://upload.wikimedia.org/wikipedia/commons/a.ogg">`)
	})

	t.Run("underscores_become_spaces_in_word_links", func(t *testing.T) {
		in := `<a href="/wiki/New_York_City">NYC</a>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `<a href="New York City">`)
	})

	t.Run("file_links_go_through_index_php", func(t *testing.T) {
		in := `<a href="File%3ASomething.png">file</a>`
		out := rewriteArticle(in, wikiURL)
		require.Contains(t, out, `<a href="https://en.wikipedia.org/w/index.php?title=File%3ASomething.png"`)
	})
}

func TestFandomFixups(t *testing.T) {
	hook := fandomFixupHook()

	t.Run("lazy_images_use_noscript_fallback", func(t *testing.T) {
		in := `<img class="lzy lzyPlcHld" data-src="real.png"> <noscript> <img src="real.png" alt="x"/></noscript>`
		out, redirect := hook.ProcessContent(in)
		require.Empty(t, redirect)
		require.Equal(t, `<img src="real.png" alt="x"/>`, out)
	})

	t.Run("vignette_audio_url_stripped", func(t *testing.T) {
		in := `<a href="https://vignette.wikia.nocookie.net/sw/a.ogg/revision/latest?cb=123">listen</a>`
		out, _ := hook.ProcessContent(in)
		require.Contains(t, out, `<a href="https://vignette.wikia.nocookie.net/sw/a.ogg">`)
	})

	t.Run("scrollbox_height_removed", func(t *testing.T) {
		in := `<div class="scrollbox" style="width:100%;height:250px;overflow:auto;">`
		out, _ := hook.ProcessContent(in)
		require.NotContains(t, out, "height:250px;")
		require.Contains(t, out, "overflow:auto;")
	})
}

func TestEraIconsHook(t *testing.T) {
	hook := eraIconsHook()
	in := `<div id="title-eraicons" style="float:right;display:none;">icons</div>`
	out, redirect := hook.ProcessContent(in)
	require.Empty(t, redirect)
	require.Equal(t, `<div id="title-eraicons" style="float:right;">icons</div>`, out)
}
