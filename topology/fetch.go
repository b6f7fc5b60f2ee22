package topology

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

const fetchTimeout = 60 * time.Second

// Fetcher downloads the raw reference dataset.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPFetcher retrieves the dataset over HTTP with Basic auth. Automatic
// redirect following is disabled: the data endpoint redirects to a signed
// storage URL, and forwarding the Authorization header there gets the request
// rejected. A single redirect is instead followed manually with credentials
// stripped.
type HTTPFetcher struct {
	url      string
	username string
	password string
	client   *http.Client
}

// NewHTTPFetcher builds a fetcher for the given endpoint and credentials.
func NewHTTPFetcher(url, username, password string) *HTTPFetcher {
	return &HTTPFetcher{
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Fetch downloads the dataset body.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	body, status, location, err := f.get(ctx, f.url, true)
	if err != nil {
		return nil, err
	}

	if status >= 300 && status < 400 && location != "" {
		body, status, _, err = f.get(ctx, location, false)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, errors.WrapFatal(errors.ErrAuthFailed, "HTTPFetcher", "Fetch", "authenticate")
	case status != http.StatusOK:
		return nil, errors.WrapTransient(
			fmt.Errorf("unexpected status %d", status), "HTTPFetcher", "Fetch", "download dataset")
	}
	return body, nil
}

// get performs one request and returns the body, status, and any Location
// header. Credentials are attached only when withAuth is set.
func (f *HTTPFetcher) get(ctx context.Context, url string, withAuth bool) ([]byte, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, "", errors.WrapInvalid(err, "HTTPFetcher", "get", "build request")
	}
	if withAuth {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, "", errors.WrapTransient(err, "HTTPFetcher", "get", "execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", errors.WrapTransient(err, "HTTPFetcher", "get", "read response body")
	}
	return body, resp.StatusCode, resp.Header.Get("Location"), nil
}
