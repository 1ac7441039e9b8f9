// Package session is the creator-side half of the relay: it owns the OAuth
// flows, keeps the token pair, and dispatches authenticated calls through the
// relay service.
package session

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAuthURL         = "https://www.tiktok.com/v2/auth/authorize/"
	DefaultExchangeTimeout = 30 * time.Second
	DefaultQRPollInterval  = 2 * time.Second
	DefaultChunkSize       = 10 << 20

	relayAPINamespace = "/api/tiktok"
)

var (
	DefaultUserInfoFields = []string{"open_id", "union_id", "avatar_url", "display_name", "username"}
	DefaultVideoFields    = []string{"id", "title", "cover_image_url", "create_time", "video_description", "share_url", "view_count", "like_count", "comment_count", "share_count"}
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Config describes the relay and provider settings a Client needs.
// Scope and field lists are configuration, not protocol constants.
type Config struct {
	RelayURL       string
	ClientKey      string
	AuthURL        string
	RedirectURI    string
	Scopes         []string
	UserInfoFields []string
	VideoFields    []string
}

// Client is one logged-in-or-not creator session.
type Client struct {
	cfg          Config
	store        credentials.Store
	sessionStore credentials.Store
	httpClient   *http.Client
	logger       zerolog.Logger

	exchangeTimeout time.Duration
	qrPollInterval  time.Duration
	chunkSize       int64
	chunkAttempts   uint

	mu     sync.Mutex
	tokens oauthmodel.TokenPair
	qr     *QRLogin
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionStore sets the store for per-login state (authorization state, QR tickets).
// It defaults to a fresh in-memory store.
func WithSessionStore(s credentials.Store) Option {
	return func(c *Client) { c.sessionStore = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithExchangeTimeout(d time.Duration) Option {
	return func(c *Client) { c.exchangeTimeout = d }
}

func WithQRPollInterval(d time.Duration) Option {
	return func(c *Client) { c.qrPollInterval = d }
}

func WithChunkSize(n int64) Option {
	return func(c *Client) { c.chunkSize = n }
}

// WithChunkAttempts sets how many times a single chunk PUT is attempted.
// The default of 1 aborts the upload on the first failed chunk.
func WithChunkAttempts(n uint) Option {
	return func(c *Client) { c.chunkAttempts = n }
}

// New creates a session client backed by store, loading any persisted tokens.
func New(cfg Config, store credentials.Store, opts ...Option) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if len(cfg.UserInfoFields) == 0 {
		cfg.UserInfoFields = DefaultUserInfoFields
	}
	if len(cfg.VideoFields) == 0 {
		cfg.VideoFields = DefaultVideoFields
	}
	cfg.RelayURL = strings.TrimRight(cfg.RelayURL, "/")

	c := &Client{
		cfg:             cfg,
		store:           store,
		httpClient:      http.DefaultClient,
		logger:          log.Logger,
		exchangeTimeout: DefaultExchangeTimeout,
		qrPollInterval:  DefaultQRPollInterval,
		chunkSize:       DefaultChunkSize,
		chunkAttempts:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionStore == nil {
		c.sessionStore = credentials.NewInMemoryStore()
	}
	if c.chunkAttempts == 0 {
		c.chunkAttempts = 1
	}

	c.tokens.AccessToken, _ = store.Get(credentials.AccessTokenKey)
	c.tokens.RefreshToken, _ = store.Get(credentials.RefreshTokenKey)
	return c
}

// Close stops any running QR login and clears its session state.
func (c *Client) Close() {
	c.stopQRLogin()
}
