package clients

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeoutSeconds bounds every single request made by this tool.
	// There is no retry: a request that times out is treated as no data for
	// that item.
	DefaultTimeoutSeconds = 30

	// ApiUserAgent identifies the tool against the Bluesky API.
	ApiUserAgent = "bskybook/0.1.0"

	// BrowserUserAgent is used for article and image fetches, some
	// publishers refuse obviously non-browser agents.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// HttpClient is a thin wrapper upon http.Client that pins a User-Agent and a
// fixed request timeout. Callers own its lifetime and release the underlying
// connection pool with Close when done.
type HttpClient struct {
	header http.Header

	client *http.Client

	log *logrus.Entry
}

func NewHttpClient(userAgent string, log *logrus.Entry) *HttpClient {
	if ua := os.Getenv("BSKYBOOK_UA"); ua != "" {
		userAgent = ua
	}
	header := http.Header{}
	header.Set("User-Agent", userAgent)
	return &HttpClient{
		header: header,
		client: &http.Client{Timeout: time.Duration(TimeoutSeconds()) * time.Second},
		log:    log,
	}
}

// Close releases idle connections held by the client's pool.
func (c *HttpClient) Close() {
	c.client.CloseIdleConnections()
}

// TimeoutSeconds returns the per-request timeout, overridable through the
// BSKYBOOK_TIMEOUT_SECONDS environment variable.
func TimeoutSeconds() int {
	if v := os.Getenv("BSKYBOOK_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return secs
		}
	}
	return DefaultTimeoutSeconds
}

func (c *HttpClient) Get(uri string) (*http.Response, error) {
	req, err := http.NewRequest("GET", uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header = c.header

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if IsNon200HttpResponse(res) {
		c.logNon200(res)
		res.Body.Close()
		return nil, errors.Errorf("non-200 http code: %d", res.StatusCode)
	}
	return res, nil
}

// GetWithQueryParams takes an additional map from query key to query value,
// which will be appended to the request uri as ?${KEY}=${VALUE}.
func (c *HttpClient) GetWithQueryParams(uri string, params map[string]string) (*http.Response, error) {
	req, err := http.NewRequest("GET", uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header = c.header

	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if IsNon200HttpResponse(res) {
		c.logNon200(res)
		res.Body.Close()
		return nil, errors.Errorf("non-200 http code: %d", res.StatusCode)
	}
	return res, nil
}

func (c *HttpClient) logNon200(res *http.Response) {
	c.log.Errorf("non-200 http code: %d for %s", res.StatusCode, res.Request.URL)
	if body, err := io.ReadAll(io.LimitReader(res.Body, 4096)); err == nil {
		c.log.Debugln("response body is: ", string(body))
	}
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode >= 300
}
