// Package registry assembles the configured dictionaries on top of the
// shared lookup infrastructure and owns the lifecycle of both.
package registry

import (
	"time"

	"go.uber.org/zap"

	"github.com/quickdict/quickdict/internal/build"
	"github.com/quickdict/quickdict/internal/dispatch"
	"github.com/quickdict/quickdict/internal/netfetch"
	"github.com/quickdict/quickdict/pkg/cache"
	"github.com/quickdict/quickdict/pkg/dictionary"
	"github.com/quickdict/quickdict/pkg/dictionary/forvo"
	"github.com/quickdict/quickdict/pkg/dictionary/mediawiki"
	"github.com/quickdict/quickdict/pkg/logger"
)

// Settings tunes the shared infrastructure underneath the dictionaries.
type Settings struct {
	Logger      logger.Logger
	Sources     *dictionary.SourcesConfig
	MaxInFlight int64

	CacheEnabled bool
	CacheMaxCost int64
	CacheTTL     time.Duration
}

// Registry holds the assembled dictionaries and the infrastructure they
// issue calls through. Close releases everything; outstanding requests are
// dropped.
type Registry struct {
	dictionaries []dictionary.Dictionary
	dispatcher   *dispatch.Dispatcher
	transport    *netfetch.HTTPTransport
	cache        cache.Cache
}

// New builds the infrastructure and one dictionary per enabled source.
func New(s Settings) (*Registry, error) {
	l := s.Logger
	if l == nil {
		l = logger.NewNoopLogger()
	}

	r := &Registry{}
	r.dispatcher = dispatch.NewDispatcher(l)

	opts := []netfetch.Option{
		netfetch.WithUserAgent(build.ProjectName + "/" + build.Version),
	}
	if s.MaxInFlight > 0 {
		opts = append(opts, netfetch.WithMaxInFlight(s.MaxInFlight))
	}
	if s.CacheEnabled {
		cacheOpts := []cache.InMemoryOption{}
		if s.CacheMaxCost > 0 {
			cacheOpts = append(cacheOpts, cache.WithMaxCost(s.CacheMaxCost))
		}
		if s.CacheTTL > 0 {
			cacheOpts = append(cacheOpts, cache.WithTTL(s.CacheTTL))
		}
		c, err := cache.NewInMemoryCache(cacheOpts...)
		if err != nil {
			r.dispatcher.Close()
			return nil, err
		}
		r.cache = c
		opts = append(opts, netfetch.WithCache(c))
	}
	r.transport = netfetch.NewHTTPTransport(r.dispatcher, l, opts...)

	sources := s.Sources
	if sources == nil {
		sources = dictionary.DefaultSources()
	}

	for _, mw := range sources.MediaWikis {
		if !mw.Enabled {
			continue
		}
		d := mediawiki.New(mw, mediawiki.Config{
			Logger:     l,
			Transport:  r.transport,
			Dispatcher: r.dispatcher,
		})
		l.Debug("registered mediawiki dictionary",
			zap.String("id", d.ID()),
			zap.String("name", d.Name()),
		)
		r.dictionaries = append(r.dictionaries, d)
	}

	for _, d := range forvo.NewDictionaries(sources.Forvo, forvo.Config{
		Logger:     l,
		Transport:  r.transport,
		Dispatcher: r.dispatcher,
	}) {
		l.Debug("registered forvo dictionary",
			zap.String("id", d.ID()),
			zap.String("name", d.Name()),
		)
		r.dictionaries = append(r.dictionaries, d)
	}

	return r, nil
}

// Dictionaries returns the assembled dictionaries in configuration order.
func (r *Registry) Dictionaries() []dictionary.Dictionary {
	return r.dictionaries
}

// Close tears the infrastructure down: transport first so no completion is
// delivered to a closed dispatcher.
func (r *Registry) Close() {
	r.transport.Close()
	r.dispatcher.Close()
	if r.cache != nil {
		r.cache.Close()
	}
}
