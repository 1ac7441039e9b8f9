// Package trending serves best-effort trend lists from a short-lived cache.
package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/creator-relay/metrics"
	"github.com/jrsteele09/creator-relay/provider"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Kind names a trend list.
type Kind string

const (
	KindHashtags Kind = "hashtags"
	KindSongs    Kind = "songs"
)

// Source tells callers where a list came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Trend directions.
const (
	TrendHot    = "hot"
	TrendRising = "rising"
	TrendStable = "stable"
)

const DefaultTTL = 30 * time.Minute

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Item struct {
	Rank   int    `json:"rank" yaml:"rank"`
	Name   string `json:"name" yaml:"name"`
	Posts  int64  `json:"posts" yaml:"posts"`
	Views  int64  `json:"views" yaml:"views"`
	Trend  string `json:"trend" yaml:"trend"`
	Change int64  `json:"change" yaml:"change"`
}

// Entry is one cached list.
type Entry struct {
	Items       []Item    `json:"items"`
	LastUpdated time.Time `json:"last_updated"`
}

// Result is a list as served.
type Result struct {
	Kind        Kind
	Items       []Item
	Source      Source
	LastUpdated time.Time
}

// Store holds cached entries. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, kind Kind) (*Entry, bool, error)
	Set(ctx context.Context, kind Kind, entry Entry, ttl time.Duration) error
}

// Fetcher retrieves a public upstream URL.
type Fetcher interface {
	Fetch(ctx context.Context, operation, rawURL string) (*provider.Response, error)
}

type Service struct {
	fetcher Fetcher
	store   Store
	urls    map[Kind]string
	ttl     time.Duration
	group   singleflight.Group
}

// NewService creates a trend service. A non-positive ttl means DefaultTTL.
func NewService(fetcher Fetcher, store Store, urls map[Kind]string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{fetcher: fetcher, store: store, urls: urls, ttl: ttl}
}

// ErrUnknownKind is returned for a kind with no configured upstream.
var ErrUnknownKind = errors.New("unknown trend kind")

// Get returns the list for kind. Upstream and cache failures never surface:
// they degrade to the fallback list.
func (s *Service) Get(ctx context.Context, kind Kind) (*Result, error) {
	if _, ok := s.urls[kind]; !ok {
		return nil, fmt.Errorf("[trending Get] %w: %q", ErrUnknownKind, kind)
	}

	if entry, ok := s.cached(ctx, kind); ok {
		return s.served(kind, entry, SourceCache), nil
	}

	v, err, _ := s.group.Do(string(kind), func() (any, error) {
		if entry, ok := s.cached(ctx, kind); ok {
			return s.served(kind, entry, SourceCache), nil
		}
		entry, err := s.refresh(ctx, kind)
		if err != nil {
			return nil, err
		}
		return s.served(kind, entry, SourceLive), nil
	})
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("trend refresh failed, serving fallback")
		return s.served(kind, Entry{Items: fallbackItems(kind), LastUpdated: NowTimeFunc()}, SourceFallback), nil
	}

	// Results shared through singleflight are copied before the caller sees them.
	res := *v.(*Result)
	res.Items = append([]Item(nil), res.Items...)
	return &res, nil
}

func (s *Service) served(kind Kind, entry Entry, source Source) *Result {
	metrics.TrendingResponses.WithLabelValues(string(kind), string(source)).Inc()
	return &Result{Kind: kind, Items: entry.Items, Source: source, LastUpdated: entry.LastUpdated}
}

// cached returns a fresh cache entry for kind.
func (s *Service) cached(ctx context.Context, kind Kind) (Entry, bool) {
	entry, ok, err := s.store.Get(ctx, kind)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("trend cache read failed")
		return Entry{}, false
	}
	if !ok || entry == nil {
		return Entry{}, false
	}
	if NowTimeFunc().Sub(entry.LastUpdated) >= s.ttl {
		return Entry{}, false
	}
	return *entry, true
}

func (s *Service) refresh(ctx context.Context, kind Kind) (Entry, error) {
	resp, err := s.fetcher.Fetch(ctx, "trending_"+string(kind), s.urls[kind])
	if err != nil {
		return Entry{}, err
	}
	if !resp.OK() {
		return Entry{}, fmt.Errorf("[trending refresh] upstream status %d", resp.Status)
	}
	items, err := Normalize(resp.Body)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{Items: items, LastUpdated: NowTimeFunc()}
	if err := s.store.Set(ctx, kind, entry, s.ttl); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("trend cache write failed")
	}
	return entry, nil
}
