// Package line LINE Messaging API로 알림 메시지를 발송한다.
package line

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

	"github.com/cenkalti/backoff/v4"
	"github.com/darkkaiser/rss-feed-notifier/message"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// LINE 텍스트 메시지의 최대 길이
	maxTextLength = 5000

	maxPushRetries = 3
)

var ErrEmptyCarousel = errors.New("line: empty carousel")

type Config struct {
	APIUrl             string
	ChannelAccessToken string
	UserID             string
	PushPerSecond      float64
}

type Client struct {
	config Config

	httpClient *http.Client
	limiter    *rate.Limiter

	retryInterval time.Duration
}

func NewClient(config Config) *Client {
	limit := rate.Limit(config.PushPerSecond)
	if config.PushPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Client{
		config: config,

		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),

		retryInterval: time.Second,
	}
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []interface{} `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type flexMessage struct {
	Type     string        `json:"type"`
	AltText  string        `json:"altText"`
	Contents *flexCarousel `json:"contents"`
}

// PushError LINE API가 성공 이외의 응답을 반환함
type PushError struct {
	StatusCode int
	Body       string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("line: push message failed (HTTP %d): %s", e.StatusCode, e.Body)
}

// Deliver 캐러셀을 Flex Message로 변환하여 설정된 사용자에게 발송한다.
func (c *Client) Deliver(ctx context.Context, carousel *message.Carousel) error {
	if carousel.Empty() == true {
		return ErrEmptyCarousel
	}

	return c.push(ctx, c.config.UserID, &flexMessage{
		Type:     "flex",
		AltText:  carousel.AltText,
		Contents: renderCarousel(carousel),
	})
}

// SendText 텍스트 메시지를 발송한다. to가 빈 문자열이면 설정된 사용자에게 발송한다.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	if to == "" {
		to = c.config.UserID
	}

	runes := []rune(text)
	if len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
	}

	return c.push(ctx, to, &textMessage{Type: "text", Text: text})
}

// push 429, 5xx 응답은 재시도한다. 같은 요청이 두번 처리되지 않도록 모든 시도에 같은 X-Line-Retry-Key를 사용한다.
func (c *Client) push(ctx context.Context, to string, m interface{}) error {
	body, err := json.Marshal(&pushRequest{To: to, Messages: []interface{}{m}})
	if err != nil {
		return err
	}

	retryKey := uuid.NewString()

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.APIUrl, "/")+"/message/push", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.ChannelAccessToken)
		req.Header.Set("X-Line-Retry-Key", retryKey)

		res, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		// 이전 시도가 이미 처리된 경우
		if res.StatusCode == http.StatusConflict && res.Header.Get("X-Line-Accepted-Request-Id") != "" {
			return nil
		}

		if res.StatusCode != http.StatusOK {
			resBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
			pushErr := &PushError{StatusCode: res.StatusCode, Body: string(resBody)}
			if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
				return pushErr
			}
			return backoff.Permanent(pushErr)
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	notify := func(err error, d time.Duration) {
		log.WithFields(log.Fields{"retry_after": d}).Warnf("LINE 메시지 발송이 실패하여 다시 시도합니다. (error:%s)", err)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, maxPushRetries), ctx), notify)
}
