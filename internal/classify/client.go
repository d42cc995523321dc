package classify

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

// #endregion

// #region errors

// Sentinel errors let the arbiter tag the exact failure mode in its
// disagreement log. Callers must treat any of them as "no opinion".
var (
	ErrTimeout    = errors.New("classifier timeout")
	ErrStatus     = errors.New("classifier non-200 status")
	ErrBadPayload = errors.New("classifier malformed payload")
)

// #endregion errors

// #region types

// Decision is the raw classifier verdict before sanitization.
type Decision struct {
	Recommend   string   `json:"recommend"`
	Confidence  float64  `json:"confidence"`
	CooldownSec int      `json:"cooldown_sec"`
	ReasonCodes []string `json:"reason_codes"`
	FromCache   bool     `json:"-"`
}

// Options control one classify call.
type Options struct {
	Timeout  time.Duration
	CacheKey string
	CacheTTL time.Duration
}

type classifyRequest struct {
	PageType        string             `json:"page_type"`
	ViewportTextLen int                `json:"viewport_text_len"`
	SelectionLen    int                `json:"selection_len"`
	Behavior60s     map[string]float64 `json:"behavior_60s,omitempty"`
	Zone            string             `json:"zone"`
	ScrollPxPerSec  float64            `json:"scroll_px_per_sec"`
}

// #endregion types

// #region client-struct

// Doer is the subset of http.Client the classifier client needs. Injected in
// tests so no real server is required.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the external AI classifier over plain request/response JSON
// and keeps a small in-process TTL cache keyed by caller-supplied cache keys.
type Client struct {
	endpoint string
	httpc    Doer
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	decision Decision
	expires  time.Time
}

// NewClient creates a client against the given endpoint URL.
func NewClient(endpoint string) *Client {
	return NewClientWithDoer(endpoint, &http.Client{})
}

// NewClientWithDoer creates a client with an injected HTTP doer.
// Used for testing without a real classifier service.
func NewClientWithDoer(endpoint string, d Doer) *Client {
	return &Client{
		endpoint: endpoint,
		httpc:    d,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// #endregion client-struct

// #region classify

// Classify sends the context frame and signal summary to the classifier and
// returns its raw decision. Any error means "no opinion"; the caller decides
// how to degrade.
func (c *Client) Classify(ctx context.Context, frame signals.Frame, sig signals.Signals, opts Options) (Decision, error) {
	if opts.CacheKey != "" {
		if dec, ok := c.cached(opts.CacheKey); ok {
			return dec, nil
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(classifyRequest{
		PageType:        frame.PageType,
		ViewportTextLen: frame.ViewportTextLen,
		SelectionLen:    frame.SelectionLen,
		Behavior60s:     frame.Behavior60s,
		Zone:            string(sig.Zone),
		ScrollPxPerSec:  sig.ScrollPxPerSec,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Decision{}, fmt.Errorf("classify rpc: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Decision{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var dec Decision
	if err := json.NewDecoder(resp.Body).Decode(&dec); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	dec.Confidence = clamp01(dec.Confidence)

	if opts.CacheKey != "" && opts.CacheTTL > 0 {
		c.store(opts.CacheKey, dec, opts.CacheTTL)
	}
	return dec, nil
}

// #endregion classify

// #region cache

func (c *Client) cached(key string) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || c.now().After(entry.expires) {
		delete(c.cache, key)
		return Decision{}, false
	}
	dec := entry.decision
	dec.FromCache = true
	return dec, true
}

func (c *Client) store(key string, dec Decision, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{decision: dec, expires: c.now().Add(ttl)}
}

// #endregion cache

// #region helpers

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
