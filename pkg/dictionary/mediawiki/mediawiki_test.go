package mediawiki

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickdict/quickdict/internal/dispatch"
	"github.com/quickdict/quickdict/pkg/dictionary"
)

// fakeDispatcher routes completions synchronously on the test goroutine.
type fakeDispatcher struct {
	mu       sync.Mutex
	handlers map[string]dispatch.Handler
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{handlers: make(map[string]dispatch.Handler)}
}

func (d *fakeDispatcher) Register(callID string, handler dispatch.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[callID] = handler
}

func (d *fakeDispatcher) Unregister(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, callID)
}

func (d *fakeDispatcher) deliver(callID string, body []byte, err error) {
	d.mu.Lock()
	handler, ok := d.handlers[callID]
	d.mu.Unlock()
	if ok {
		handler(dispatch.Completion{CallID: callID, Body: body, Err: err})
	}
}

// fakeTransport records every started call in submission order.
type fakeTransport struct {
	mu      sync.Mutex
	fetches []fakeFetch
}

type fakeFetch struct {
	callID string
	url    string
}

func (t *fakeTransport) Fetch(callID, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetches = append(t.fetches, fakeFetch{callID: callID, url: url})
}

func (t *fakeTransport) Abort(string) {}

func (t *fakeTransport) calls() []fakeFetch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]fakeFetch, len(t.fetches))
	copy(out, t.fetches)
	return out
}

func newTestDictionary(t *testing.T, src dictionary.MediaWikiSource) (*Dictionary, *fakeTransport, *fakeDispatcher) {
	t.Helper()
	transport := &fakeTransport{}
	dispatcher := newFakeDispatcher()
	d := New(src, Config{Transport: transport, Dispatcher: dispatcher})
	return d, transport, dispatcher
}

// articleResponse mimics an action=parse reply carrying the given HTML.
func articleResponse(html string) []byte {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(html)
	return []byte(`<api><parse revid="7"><text>` + escaped + `</text></parse></api>`)
}

var missingPageResponse = []byte(`<api><parse revid="0"><text/></parse></api>`)

func TestNew(t *testing.T) {
	t.Run("derived_id_is_stable", func(t *testing.T) {
		src := dictionary.MediaWikiSource{Name: "WP", URL: "https://en.wikipedia.org/w"}
		a := New(src, Config{})
		b := New(src, Config{})
		require.Equal(t, a.ID(), b.ID())
		require.NotEmpty(t, a.ID())
	})

	t.Run("explicit_id_kept", func(t *testing.T) {
		src := dictionary.MediaWikiSource{ID: "wiki-en", Name: "WP", URL: "https://en.wikipedia.org/w"}
		require.Equal(t, "wiki-en", New(src, Config{}).ID())
	})

	t.Run("legends_suffix_stripped_from_url", func(t *testing.T) {
		src := dictionary.MediaWikiSource{Name: "WL", URL: "https://starwars.fandom.com/starwars.wikia.com (Legends)"}
		d := New(src, Config{})
		require.Equal(t, variantWookieepediaLegends, d.variant)
		require.Equal(t, "https://starwars.fandom.com/starwars.wikia.com", d.url)
	})

	t.Run("variant_detection", func(t *testing.T) {
		for url, want := range map[string]variant{
			"https://en.wikipedia.org/w":             variantPlain,
			"https://memory-alpha.wikia.com":         variantFandom,
			"https://example.com/starwars.wikia.com": variantWookieepedia,
		} {
			d := New(dictionary.MediaWikiSource{Name: "x", URL: url}, Config{})
			require.Equal(t, want, d.variant, url)
		}
	})
}

func TestLanguageFromURL(t *testing.T) {
	require.Equal(t, "en", languageFromURL("https://en.wikipedia.org/w"))
	require.Equal(t, "he", languageFromURL("https://he.wiktionary.org/w"))
	require.Equal(t, "", languageFromURL("https://wikipedia.org/w"))
	require.Equal(t, "", languageFromURL("nodots"))
}

func TestDictionaryGetArticle(t *testing.T) {
	t.Run("single_call_lookup", func(t *testing.T) {
		d, transport, dispatcher := newTestDictionary(t, dictionary.MediaWikiSource{
			Name: "WP", URL: "https://en.wikipedia.org/w",
		})

		req := d.GetArticle("apple", nil)
		calls := transport.calls()
		require.Len(t, calls, 1)
		require.Equal(t, "https://en.wikipedia.org/w/api.php?action=parse&prop=text|revid&format=xml&redirects&page=apple", calls[0].url)

		dispatcher.deliver(calls[0].callID, articleResponse("<p>a fruit</p>"), nil)

		require.True(t, req.IsFinished())
		require.Empty(t, req.ErrorMessage())
		require.Equal(t, `<div class="mwiki"><p>a fruit</p></div>`, string(req.Snapshot()))
	})

	t.Run("rtl_language_direction", func(t *testing.T) {
		d, transport, dispatcher := newTestDictionary(t, dictionary.MediaWikiSource{
			Name: "HE", URL: "https://he.wikipedia.org/w",
		})

		req := d.GetArticle("word", nil)
		dispatcher.deliver(transport.calls()[0].callID, articleResponse("<p>x</p>"), nil)

		require.Contains(t, string(req.Snapshot()), `<div class="mwiki" dir="rtl">`)
	})

	t.Run("alternates_follow_primary", func(t *testing.T) {
		d, transport, _ := newTestDictionary(t, dictionary.MediaWikiSource{
			Name: "WP", URL: "https://en.wikipedia.org/w",
		})

		d.GetArticle("run", []string{"ran", "running"})
		calls := transport.calls()
		require.Len(t, calls, 3)
		require.Contains(t, calls[0].url, "&page=run")
		require.Contains(t, calls[1].url, "&page=ran")
		require.Contains(t, calls[2].url, "&page=running")
	})
}

func TestLegendsLookup(t *testing.T) {
	legendsSource := dictionary.MediaWikiSource{
		Name: "Wookieepedia (Legends)",
		URL:  "https://starwars.fandom.com/starwars.wikia.com (Legends)",
	}

	t.Run("legends_page_preferred", func(t *testing.T) {
		d, transport, dispatcher := newTestDictionary(t, legendsSource)

		req := d.GetArticle("Luke", nil)
		calls := transport.calls()
		require.Len(t, calls, 1)
		require.Contains(t, calls[0].url, "&page=Luke%2FLegends")

		dispatcher.deliver(calls[0].callID, articleResponse("<p>legends bio</p>"), nil)

		require.True(t, req.IsFinished())
		require.Contains(t, string(req.Snapshot()), "legends bio")
	})

	t.Run("missing_legends_page_falls_back_to_canon", func(t *testing.T) {
		d, transport, dispatcher := newTestDictionary(t, legendsSource)

		req := d.GetArticle("Luke", nil)
		dispatcher.deliver(transport.calls()[0].callID, missingPageResponse, nil)

		calls := transport.calls()
		require.Len(t, calls, 2)
		require.Contains(t, calls[1].url, "&page=Luke")
		require.NotContains(t, calls[1].url, "%2FLegends")

		dispatcher.deliver(calls[1].callID, articleResponse("<p>canon bio</p>"), nil)

		require.True(t, req.IsFinished())
		require.Contains(t, string(req.Snapshot()), "canon bio")
		require.Empty(t, req.ErrorMessage())
	})

	t.Run("inactive_legends_tab_redirects", func(t *testing.T) {
		d, transport, dispatcher := newTestDictionary(t, legendsSource)

		req := d.GetArticle("Luke", nil)
		dispatcher.deliver(transport.calls()[0].callID, missingPageResponse, nil)

		canon := `<p>canon</p><a href="/wiki/Luke_Skywalker/Legends" ` + legendsMarker + `>Legends</a>`
		dispatcher.deliver(transport.calls()[1].callID, articleResponse(canon), nil)

		calls := transport.calls()
		require.Len(t, calls, 3)
		require.Contains(t, calls[2].url, "&page=Luke_Skywalker%2FLegends")
		require.False(t, req.IsFinished())

		dispatcher.deliver(calls[2].callID, articleResponse("<p>legends bio</p>"), nil)

		require.True(t, req.IsFinished())
		snapshot := string(req.Snapshot())
		require.Contains(t, snapshot, "legends bio")
		require.NotContains(t, snapshot, "canon")
	})
}

func TestDictionarySearch(t *testing.T) {
	d, transport, dispatcher := newTestDictionary(t, dictionary.MediaWikiSource{
		Name: "WP", URL: "https://en.wikipedia.org/w",
	})

	req := d.Search("app")
	calls := transport.calls()
	require.Len(t, calls, 1)
	require.Equal(t, "https://en.wikipedia.org/w/api.php?action=query&list=allpages&aplimit=40&format=xml&apfrom=app", calls[0].url)

	dispatcher.deliver(calls[0].callID, []byte(
		`<api><query><allpages><p title="Apple"/><p title="Application"/></allpages></query></api>`), nil)

	require.True(t, req.IsFinished())
	require.Equal(t, []string{"Apple", "Application"}, req.Matches())
}
