package blobstore

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mhutcheson/raingrid/internal/metrics"
	"github.com/mhutcheson/raingrid/internal/models"
)

// HTTPStore reads a public bucket over plain HTTP. No authentication is
// used; the dataset allows anonymous read access.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type listBucketResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	Contents    []listContent `xml:"Contents"`
	IsTruncated bool          `xml:"IsTruncated"`
	NextMarker  string        `xml:"NextMarker"`
}

type listContent struct {
	Key  string `xml:"Key"`
	Size int64  `xml:"Size"`
}

// List enumerates object keys under prefix, following truncated listings
// until the bucket reports the final page.
func (s *HTTPStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	marker := ""

	for {
		u := fmt.Sprintf("%s/?prefix=%s", s.baseURL, url.QueryEscape(prefix))
		if marker != "" {
			u += "&marker=" + url.QueryEscape(marker)
		}

		body, err := s.get(ctx, u, "")
		if err != nil {
			return nil, err
		}

		var page listBucketResult
		if err := xml.Unmarshal(body, &page); err != nil {
			return nil, &models.FetchError{Err: fmt.Errorf("unmarshal listing: %w", err)}
		}

		for _, c := range page.Contents {
			keys = append(keys, c.Key)
		}

		if !page.IsTruncated || len(page.Contents) == 0 {
			return keys, nil
		}
		if page.NextMarker != "" {
			marker = page.NextMarker
		} else {
			marker = page.Contents[len(page.Contents)-1].Key
		}
	}
}

// Fetch retrieves one object's bytes.
func (s *HTTPStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	body, err := s.get(ctx, s.baseURL+"/"+key, key)
	if err != nil {
		return nil, err
	}
	metrics.FetchBytes.Add(float64(len(body)))
	return body, nil
}

// get performs a GET with retry on transient statuses. Anything the store
// will answer the same way next time (404, other 4xx) is permanent.
func (s *HTTPStore) get(ctx context.Context, reqURL, key string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			metrics.StoreFetches.WithLabelValues("http", "error").Inc()
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			metrics.StoreFetches.WithLabelValues("http", fmt.Sprint(resp.StatusCode)).Inc()
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			metrics.StoreFetches.WithLabelValues("http", "404").Inc()
			return backoff.Permanent(fmt.Errorf("object not found"))
		}
		if resp.StatusCode != http.StatusOK {
			metrics.StoreFetches.WithLabelValues("http", fmt.Sprint(resp.StatusCode)).Inc()
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		metrics.StoreFetches.WithLabelValues("http", "ok").Inc()
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, &models.FetchError{Key: key, Err: err}
	}
	return body, nil
}
