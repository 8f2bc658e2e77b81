package overpass

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrAllEndpointsFailed is returned when no mirror produced a response
	ErrAllEndpointsFailed = errors.New("all overpass endpoints failed")
)

// DefaultEndpoints are public Overpass API mirrors tried in order
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
}

const (
	// DefaultMaxTries is the number of attempts per endpoint
	DefaultMaxTries = 3
	// DefaultRetryInterval is the initial wait between attempts on the same endpoint
	DefaultRetryInterval = 2 * time.Second
)

// Client posts queries to Overpass API mirrors
type Client struct {
	logger        *zap.Logger
	httpClient    *http.Client
	endpoints     []string
	maxTries      uint
	retryInterval time.Duration
	progress      io.Writer
}

func (c *Client) String() string {
	return fmt.Sprintf(`
Overpass client parameters:
	endpoints: %s
	max_tries: %d
	retry_interval: %v
	`,
		strings.Join(c.endpoints, ", "),
		c.maxTries,
		c.retryInterval,
	)
}

func NewClient(options ...func(*Client)) *Client {
	c := &Client{
		logger:        zap.NewNop(),
		httpClient:    &http.Client{Timeout: 5 * time.Minute},
		endpoints:     DefaultEndpoints,
		maxTries:      DefaultMaxTries,
		retryInterval: DefaultRetryInterval,
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.maxTries == 0 {
		c.maxTries = 1
	}
	return c
}

func WithEndpoints(endpoints ...string) func(*Client) {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

func WithHTTPClient(httpClient *http.Client) func(*Client) {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithMaxTries(tries uint) func(*Client) {
	return func(c *Client) {
		c.maxTries = tries
	}
}

func WithRetryInterval(interval time.Duration) func(*Client) {
	return func(c *Client) {
		c.retryInterval = interval
	}
}

// WithProgress sets writer receiving a copy of every downloaded byte (e.g. progress bar)
func WithProgress(w io.Writer) func(*Client) {
	return func(c *Client) {
		c.progress = w
	}
}

func WithLogger(logger *zap.Logger) func(*Client) {
	return func(c *Client) {
		c.logger = logger
	}
}

// Download fetches region extract and writes it to dst. Nothing is written to dst unless
// some endpoint returned complete response
func (c *Client) Download(ctx context.Context, region Region, dst io.Writer) (int64, error) {
	return c.Query(ctx, BuildQuery(region), dst)
}

// Query runs Overpass QL query against endpoints in order, retrying each with exponential backoff
func (c *Client) Query(ctx context.Context, query string, dst io.Writer) (int64, error) {
	var lastErr error
	for _, endpoint := range c.endpoints {
		st := time.Now()
		c.logger.Info("Querying endpoint...", zap.String("endpoint", endpoint))
		body, err := backoff.Retry(ctx,
			func() ([]byte, error) {
				return c.post(ctx, endpoint, query)
			},
			backoff.WithBackOff(c.newBackOff()),
			backoff.WithMaxTries(c.maxTries),
			backoff.WithNotify(func(err error, wait time.Duration) {
				c.logger.Warn("Retrying endpoint", zap.String("endpoint", endpoint), zap.Duration("wait", wait), zap.Error(err))
			}),
		)
		if err == nil {
			c.logger.Info("Done", zap.Duration("elapsed", time.Since(st)), zap.Int("bytes", len(body)))
			n, err := io.Copy(dst, bytes.NewReader(body))
			if err != nil {
				return n, errors.Wrap(err, "Can't write response")
			}
			return n, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		c.logger.Warn("Endpoint failed", zap.String("endpoint", endpoint), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		return 0, errors.Wrap(ErrAllEndpointsFailed, "no endpoints configured")
	}
	return 0, errors.Wrapf(ErrAllEndpointsFailed, "last error: %v", lastErr)
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 30 * time.Second
	return b
}

// post performs single attempt. Client errors other than rate limiting are not retried
func (c *Client) post(ctx context.Context, endpoint, query string) ([]byte, error) {
	form := strings.NewReader("data=" + url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, form)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "Can't prepare request"))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "Request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("endpoint responded with status %d", resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, backoff.Permanent(errors.Errorf("endpoint responded with status %d", resp.StatusCode))
	}

	buf := bytes.Buffer{}
	var w io.Writer = &buf
	if c.progress != nil {
		w = io.MultiWriter(&buf, c.progress)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, errors.Wrap(err, "Can't read response")
	}
	return buf.Bytes(), nil
}
