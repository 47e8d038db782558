// Package jobboard talks to the remote job board that stores postings and
// candidate profiles. It only reads; the feed never writes back.
package jobboard

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-feed/internal/jobs"
	"github.com/spigell/job-feed/internal/utils"
)

const (
	JobsPath     = "/jobs"
	ProfilesPath = "/profiles"

	userAgent       = "spigell/job-feed"
	contentType     = "application/json"
	contentEncoding = "gzip"
	// Max value for listing per page.
	perPage = "100"

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrBadPagination   = errors.New("inconsistent pagination")
)

// StatusError is returned for any non-200 answer of the board.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	MaxRetries int
	RetryDelay time.Duration
}

type ItemResponse struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

func New(logger *zap.Logger, apiURL, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		APIURL: strings.TrimRight(apiURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     logger,
		UserAgent:  userAgent,
		RetryDelay: retryBaseDelay,
	}
}

// GetActiveJobs returns every active posting across all pages.
func (c *Client) GetActiveJobs(ctx context.Context) (*jobs.Jobs, error) {
	q := url.Values{}
	q.Set("status", string(jobs.StatusActive))
	q.Set("per_page", perPage)

	items, err := c.GetItems(ctx, c.APIURL+JobsPath, q)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	return jobs.DecodeJobs(items)
}

// GetProfile returns the candidate profile with the given id.
func (c *Client) GetProfile(ctx context.Context, id string) (*jobs.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("profile id is required")
	}

	var raw map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, ProfilesPath, url.PathEscape(id)), nil, &raw); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	// json null decodes to a nil map
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}

	return jobs.DecodeProfile(raw)
}

// GetItems makes GET requests and returns items from all pages.
// The page count is taken from the first answer; every later answer must
// report the page that was asked for.
func (c *Client) GetItems(ctx context.Context, rawURL string, q url.Values) ([]any, error) {
	var items []any

	pages := 1
	for page := 0; page < pages; page++ {
		pageQuery := cloneValues(q)
		pageQuery.Set("page", strconv.Itoa(page))

		var response ItemResponse
		if err := c.getJSON(ctx, rawURL, pageQuery, &response); err != nil {
			return nil, err
		}

		if response.Page != page {
			return nil, fmt.Errorf("%w: asked for page %d, got page %d", ErrBadPagination, page, response.Page)
		}

		items = append(items, response.Items...)

		if page == 0 {
			pages = response.Pages
		}

		if page+1 < pages {
			c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
				"current page (%d) < all page count (%d)", page+1, pages),
			))
		}
	}

	return items, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	if err := json.NewDecoder(reader).Decode(target); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}

	return nil
}

// request retries transport errors and 5xx responses with exponential backoff.
func (c *Client) request(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := utils.Backoff(c.RetryDelay, retryMaxDelay, attempt)
			c.logger.Debug("retrying request",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := utils.WaitFor(ctx, delay); err != nil {
				return nil, err
			}
		}

		c.logger.Debug("make request", zap.String("url", req.URL.String()))
		resp, err := c.HTTPClient.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, Status: resp.Status}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func cloneValues(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
