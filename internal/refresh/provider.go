package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
)

const (
	defaultFeedTimeout       = 30 * time.Second
	errorBodyReadLimit int64 = 1024
	maxFeedBytes       int64 = 32 << 20
)

var errFeedURLRequired = errors.New("price feed url is required")

// Provider supplies raw price records from an external source. Records are
// untrusted and go through prices.NormalizeRecord before they are stored.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]map[string]any, error)
}

// FeedProvider pulls a JSON price feed over HTTP. The body may be a bare array
// of records or an object with a "prices" array.
type FeedProvider struct {
	httpClient *http.Client
	url        string
	token      string
}

// Option configures optional feed behavior.
type Option func(*FeedProvider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *FeedProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithBearerToken sends an Authorization header on every fetch.
func WithBearerToken(token string) Option {
	return func(p *FeedProvider) {
		p.token = strings.TrimSpace(token)
	}
}

// NewFeedProvider builds a provider for feedURL.
func NewFeedProvider(feedURL string, timeout time.Duration, opts ...Option) (*FeedProvider, error) {
	trimmed := strings.TrimSpace(feedURL)
	if trimmed == "" {
		return nil, errFeedURLRequired
	}
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	p := &FeedProvider{
		url:        trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *FeedProvider) Name() string {
	return "feed"
}

func (p *FeedProvider) Fetch(ctx context.Context) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build feed request")
	}
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch price feed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "price feed request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read price feed")
	}
	return decodeFeed(body)
}

func decodeFeed(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMalformedRecord, "price feed is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if trimmed[0] == '[' {
		var records []map[string]any
		if err := dec.Decode(&records); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedRecord, err, "decode price feed")
		}
		return records, nil
	}

	var wrapped struct {
		Prices *[]map[string]any `json:"prices"`
	}
	if err := dec.Decode(&wrapped); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedRecord, err, "decode price feed")
	}
	if wrapped.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMalformedRecord, "price feed has no prices array")
	}
	return *wrapped.Prices, nil
}
