package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// 피드 문서의 최대 크기
const maxFeedBodySize = 10 << 20

// Fetcher 하나의 피드 URL을 가져와 기사 목록으로 변환한다.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, timeout time.Duration) (*Result, error)
}

type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{},
		userAgent:  userAgent,
	}
}

// Fetch 피드를 가져와서 해석한다.
// 네트워크 관련 실패는 *FetchError, 문서 해석 실패는 *ParseError를 반환한다.
//noinspection GoUnhandledErrorResult
func (c *Client) Fetch(ctx context.Context, feedURL string, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Kind: Permanent, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.1")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Kind: Transient, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &FetchError{
			URL:        feedURL,
			Kind:       statusKind(res.StatusCode),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("HTTP Response StatusCode %d", res.StatusCode),
		}
	}

	if err := checkContentType(res.Header.Get("Content-Type")); err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxFeedBodySize))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Kind: Transient, Err: err}
	}

	result, err := Parse(data)
	if err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}
	if result.Warning != nil {
		result.Warning = &ParseError{URL: feedURL, Err: result.Warning}
	}

	return result, nil
}

func statusKind(statusCode int) FetchErrorKind {
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooEarly, statusCode == http.StatusTooManyRequests:
		return Transient
	case statusCode >= 500:
		return Transient
	}
	return Permanent
}

var errUnsupportedContentType = errors.New("unsupported content type")

// 헤더가 없는 경우는 본문의 내용으로 판단한다.
func checkContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %s", errUnsupportedContentType, contentType)
	}
	if strings.HasSuffix(mediaType, "/xml") == true || strings.HasSuffix(mediaType, "+xml") == true {
		return nil
	}

	return fmt.Errorf("%w: %s", errUnsupportedContentType, mediaType)
}
