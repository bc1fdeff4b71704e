package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/cache"
	"github.com/JadeHendricks/mern-devconnector/internal/observability"
)

var (
	ErrUpstream    = errors.New("no github profile found")
	ErrCircuitOpen = fmt.Errorf("%w: circuit breaker open", ErrUpstream)
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "devconnector-api"
	maxBodyBytes     = 2 << 20
)

// github logins: alphanumerics and single hyphens, at most 39 chars
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?$`)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	cache   cache.Store
	breaker *Breaker
	prom    *observability.Prom
	log     *slog.Logger
}

type Option func(*Client)

func WithCache(store cache.Store) Option {
	return func(c *Client) { c.cache = store }
}

func WithBreaker(b *Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithMetrics(p *observability.Prom) Option {
	return func(c *Client) { c.prom = p }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewBreaker(BreakerConfig{}),
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListRepos returns the five oldest-created public repos of username,
// each exactly as GitHub sent it.
func (c *Client) ListRepos(ctx context.Context, username string) ([]json.RawMessage, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: invalid username", ErrUpstream)
	}

	key := cacheKey(username)

	if repos, ok := c.fromCache(ctx, key); ok {
		return repos, nil
	}

	if !c.breaker.Allow() {
		c.prom.ObserveUpstream("circuit_open", 0)
		return nil, ErrCircuitOpen
	}

	start := time.Now()
	body, upstreamFault, err := c.fetch(ctx, username)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		// the caller went away; that says nothing about GitHub
		c.breaker.Release()
		c.prom.ObserveUpstream("canceled", time.Since(start))
		return nil, err
	}
	c.breaker.Record(upstreamFault)

	if err != nil {
		result := "not_found"
		if upstreamFault {
			result = "error"
		}
		c.prom.ObserveUpstream(result, time.Since(start))
		return nil, err
	}

	var repos []json.RawMessage
	if err := json.Unmarshal(body, &repos); err != nil {
		c.prom.ObserveUpstream("error", time.Since(start))
		return nil, fmt.Errorf("%w: decode repos: %v", ErrUpstream, err)
	}
	c.prom.ObserveUpstream("ok", time.Since(start))

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cfg.CacheTTL); err != nil {
			c.log.WarnContext(ctx, "github cache set failed", "key", key, "err", err)
		}
	}

	return repos, nil
}

// Forget drops the cached repos of username so the next lookup goes to
// GitHub.
func (c *Client) Forget(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if c.cache == nil || username == "" {
		return nil
	}
	return c.cache.Delete(ctx, cacheKey(username))
}

func cacheKey(username string) string {
	return "github:repos:" + strings.ToLower(username)
}

func (c *Client) fromCache(ctx context.Context, key string) ([]json.RawMessage, bool) {
	if c.cache == nil {
		return nil, false
	}

	b, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.prom.ObserveCache("github", "error")
		c.log.WarnContext(ctx, "github cache get failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		c.prom.ObserveCache("github", "miss")
		return nil, false
	}

	var repos []json.RawMessage
	if err := json.Unmarshal(b, &repos); err != nil {
		c.prom.ObserveCache("github", "error")
		return nil, false
	}

	c.prom.ObserveCache("github", "hit")
	return repos, true
}

// fetch reports upstreamFault for failures that say nothing about the
// username itself (network, 5xx, rate limiting).
func (c *Client) fetch(ctx context.Context, username string) (body []byte, upstreamFault bool, err error) {
	q := url.Values{}
	q.Set("per_page", "5")
	q.Set("sort", "created")
	q.Set("direction", "asc")

	endpoint := c.cfg.BaseURL + "/users/" + url.PathEscape(username) + "/repos?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.cfg.ClientID != "" && c.cfg.ClientSecret != "" {
		req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fault := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden
		return nil, fault, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	return body, false, nil
}
