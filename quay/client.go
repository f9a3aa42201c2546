// Package quay provides a client for the Quay.io REST API v1 tag-listing
// endpoint. It supports both public and private repositories and
// memoizes tag listings in a shared TTL-bounded store.
package quay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	quaytags "github.com/wolfeidau/quay-tags"
	"github.com/wolfeidau/quay-tags/tagcache"
	"github.com/wolfeidau/quay-tags/telemetry"
)

const (
	// DefaultAPIBase is the Quay.io REST API v1 base URL.
	DefaultAPIBase = "https://quay.io/api/v1"

	// DefaultLimit is the tag count fetched when the caller passes no
	// positive limit.
	DefaultLimit = 20

	// DefaultTimeout bounds both the connection attempt and the wait for
	// response headers, so a stalled registry cannot hang a caller.
	DefaultTimeout = 30 * time.Second

	// registryHost is the image reference host for Quay.
	registryHost = "quay.io"
)

// Client fetches and ranks tags from Quay. A zero token means anonymous
// access; the client never resolves or stores credentials itself, it is
// handed an already-resolved bearer token.
type Client struct {
	apiBase string
	client  *http.Client
	token   string
	credID  string
	cache   *tagcache.Store
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAPIBase sets the API base URL. Used by tests to point the client
// at a stub server.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		c.apiBase = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithToken sets the bearer token for authenticated access.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithCache sets the shared tag listing store. Clients constructed
// without one get a private store; sharing one store across clients
// shares its entries.
func WithCache(store *tagcache.Store) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithLogger sets the logger for fetch events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Quay client. Without options it performs anonymous
// requests against quay.io with a private cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase: DefaultAPIBase,
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: DefaultTimeout}).DialContext,
				ResponseHeaderTimeout: DefaultTimeout,
			},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = tagcache.New()
	}
	c.credID = quaytags.CredentialID(c.token)
	return c
}

// tagListResponse is the wire shape of the tag-listing endpoint. The
// pagination fields are decoded but not acted upon; a single bounded
// page is all this client requests.
type tagListResponse struct {
	Tags          []quaytags.Tag `json:"tags"`
	Page          int            `json:"page"`
	HasAdditional bool           `json:"has_additional"`
}

// GetTags returns up to limit active tags for the repository, most
// recent first. Results are served from the shared cache when a live
// entry exists; otherwise one fetch populates it. The returned slice is
// the caller's own copy. A limit of zero or less means DefaultLimit.
func (c *Client) GetTags(ctx context.Context, organization, repository string, limit int) ([]quaytags.Tag, error) {
	if err := validateName("organization", organization); err != nil {
		return nil, err
	}
	if err := validateName("repository", repository); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	key := tagcache.Key{
		Organization: organization,
		Repository:   repository,
		Limit:        limit,
		Credential:   c.credID,
	}

	if entry, ok := c.cache.Get(key); ok {
		if !entry.Expired(c.now()) {
			telemetry.RecordCacheLookup(ctx, "hit")
			c.logger.Debug("returning cached tags",
				"organization", organization, "repository", repository)
			return quaytags.CloneTags(entry.Tags), nil
		}
		telemetry.RecordCacheLookup(ctx, "expired")
		c.cache.Remove(key)
	} else {
		telemetry.RecordCacheLookup(ctx, "miss")
	}

	tags, err := c.fetchTags(ctx, organization, repository, limit)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, tags)

	return quaytags.CloneTags(tags), nil
}

// ValidateRepository probes whether the repository exists and is
// accessible with the client's credentials. It is best-effort: every
// failure, including invalid input and network errors, yields false.
func (c *Client) ValidateRepository(ctx context.Context, organization, repository string) bool {
	if validateName("organization", organization) != nil ||
		validateName("repository", repository) != nil {
		return false
	}

	url := fmt.Sprintf("%s/repository/%s/%s", c.apiBase, organization, repository)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("failed to validate repository", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return isSuccess(resp.StatusCode)
}

// ResolveReference returns the full image reference for the repository.
// When tag is empty the most recent tag is used; a repository with no
// tags cannot be resolved.
func (c *Client) ResolveReference(ctx context.Context, organization, repository, tag string) (string, error) {
	if tag == "" {
		tags, err := c.GetTags(ctx, organization, repository, 1)
		if err != nil {
			return "", err
		}
		if len(tags) == 0 {
			return "", fmt.Errorf("no tags found in repository %s/%s", organization, repository)
		}
		tag = tags[0].Name
		c.logger.Debug("using most recent tag", "tag", tag)
	}

	return BuildImageReference(organization, repository, tag), nil
}

// ClearCache discards every entry in the client's store immediately,
// forcing the next GetTags to hit the network. Clients sharing the store
// are all affected.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// BuildImageReference returns the canonical image reference, e.g.
// quay.io/org/repo:tag. Pure formatting, no validation.
func BuildImageReference(organization, repository, tag string) string {
	return fmt.Sprintf("%s/%s/%s:%s", registryHost, organization, repository, tag)
}

// fetchTags performs one tag-listing request and returns the decoded,
// recency-sorted tags. Nothing is cached here; failed fetches never
// touch the store.
func (c *Client) fetchTags(ctx context.Context, organization, repository string, limit int) ([]quaytags.Tag, error) {
	url := fmt.Sprintf("%s/repository/%s/%s/tag/?limit=%d&onlyActiveTags=true",
		c.apiBase, organization, repository, limit)

	requestID := uuid.NewString()
	c.logger.Debug("fetching tags", "url", url, "request_id", requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		apiErr := classifyStatus(resp.StatusCode, organization, repository)
		c.logger.Warn("quay api error",
			"status", resp.StatusCode, "message", apiErr.Message, "request_id", requestID)
		return nil, apiErr
	}

	var decoded tagListResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decoding tag response: %w", err)}
	}

	tags := decoded.Tags
	if tags == nil {
		tags = []quaytags.Tag{}
	}

	quaytags.SortByRecency(tags)

	return tags, nil
}

// setAuth sets the Authorization header when a token is configured.
func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
