// Package forvo implements pronunciation lookups against the free Forvo
// web API. One Dictionary is created per configured language code.
package forvo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/quickdict/quickdict/internal/request"
	"github.com/quickdict/quickdict/pkg/dictionary"
	"github.com/quickdict/quickdict/pkg/logger"
)

// DefaultAPIKey is a shared key with a limit of 1000 requests a day. It may
// get banned eventually; registering an own key is simple and free.
const DefaultAPIKey = "5efa5d045a16d10ad9c4705bd5d8e56a"

const queryFormat = "http://apifree.forvo.com/key/%s/format/xml/action/word-pronunciations/word/%s/language/%s"

// Config carries the shared infrastructure a Dictionary issues its calls
// through.
type Config struct {
	Logger     logger.Logger
	Transport  request.Transport
	Dispatcher request.Dispatcher
}

// Dictionary serves pronunciations for a single language.
type Dictionary struct {
	id       string
	name     string
	apiKey   string
	language string
	cfg      Config
}

var _ dictionary.Dictionary = (*Dictionary)(nil)

// NewDictionaries builds one Dictionary per language code of the source
// configuration. Codes are comma separated; blanks and duplicates are
// dropped. Returns nil when the source is disabled.
func NewDictionaries(src dictionary.ForvoConfig, cfg Config) []*Dictionary {
	if !src.Enabled {
		return nil
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	apiKey := strings.TrimSpace(src.APIKey)
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}

	var out []*Dictionary
	used := make(map[string]struct{})
	for _, code := range strings.Split(src.LanguageCodes, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := used[code]; ok {
			continue
		}
		used[code] = struct{}{}

		out = append(out, &Dictionary{
			id:       uuid.NewSHA1(uuid.NameSpaceURL, []byte("forvo:"+code)).String(),
			name:     "Forvo (" + displayCode(code) + ")",
			apiKey:   apiKey,
			language: code,
			cfg:      cfg,
		})
	}
	return out
}

func (d *Dictionary) ID() string { return d.id }

func (d *Dictionary) Name() string { return d.name }

// Language returns the language code the dictionary serves.
func (d *Dictionary) Language() string { return d.language }

// GetArticle starts a pronunciation lookup for the word alone. Alternates
// are deliberately not queried: the free API allows only 1000 requests a
// day per key.
func (d *Dictionary) GetArticle(word string, _ []string) dictionary.Request {
	return request.NewArticleRequest(request.Config{
		Logger:     d.cfg.Logger,
		Transport:  d.cfg.Transport,
		Dispatcher: d.cfg.Dispatcher,
		BuildURL:   d.queryURL,
		Decode:     decodePronunciations(word),
	}, word, nil)
}

// Search resolves instantly with the word itself; the API has no prefix
// listing.
func (d *Dictionary) Search(prefix string) dictionary.SearchRequest {
	if request.QueryTooLong(prefix) {
		return request.NewInstantSearchRequest(nil)
	}
	return request.NewInstantSearchRequest([]string{prefix})
}

func (d *Dictionary) queryURL(word string) string {
	return fmt.Sprintf(queryFormat, d.apiKey, url.QueryEscape(word), d.language)
}

// displayCode capitalizes the code for the dictionary name, "en" -> "En".
func displayCode(code string) string {
	code = strings.ToLower(code)
	return strings.ToUpper(code[:1]) + code[1:]
}
