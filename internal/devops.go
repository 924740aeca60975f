package internal

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BishopFox/devopsfox/globals"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

var ErrUnauthorized = errors.New("unauthorized access - please verify your PAT has read permissions for this resource")

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type DevOpsClientOptions struct {
	Timeout time.Duration
	Retries int
}

// DevOpsClient performs PAT-authenticated calls against one organization.
type DevOpsClient struct {
	Organization string

	authHeader string
	client     *retryablehttp.Client
	log        Logger
}

func NewDevOpsClient(organization, token string, opts DevOpsClientOptions) *DevOpsClient {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = opts.Timeout

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &DevOpsClient{
		Organization: organization,
		authHeader:   "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+token)),
		client:       retryClient,
		log:          NewLogger("transport"),
	}
}

// HTTPClient exposes the underlying client so tests can swap its transport.
func (c *DevOpsClient) HTTPClient() *http.Client {
	return c.client.HTTPClient
}

// BuildURL assembles https://<host>/<organization>[/<project>]/_apis/<area>?<query>.
func (c *DevOpsClient) BuildURL(host, project, area string, query url.Values) string {
	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(host)
	b.WriteString("/")
	b.WriteString(url.PathEscape(c.Organization))
	if project != "" {
		b.WriteString("/")
		b.WriteString(url.PathEscape(project))
	}
	b.WriteString("/_apis/")
	b.WriteString(strings.TrimPrefix(area, "/"))
	if len(query) > 0 {
		b.WriteString("?")
		b.WriteString(query.Encode())
	}
	return b.String()
}

func (c *DevOpsClient) GetJSON(ctx context.Context, url string, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *DevOpsClient) PostJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, payload, out)
}

func (c *DevOpsClient) do(ctx context.Context, method, url string, payload []byte, out interface{}) error {
	var body interface{}
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", globals.DEVOPSFOX_USER_AGENT)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugf("%s %s", method, url)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", url, err)
	}
	return nil
}
