package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/g"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/handler"
	"github.com/labstack/echo/v4"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	texts   []string
	callers []string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, text, callerID string) string {
	d.texts = append(d.texts, text)
	d.callers = append(d.callers, callerID)
	return "reply:" + text
}

type fakeTrigger struct {
	busy    bool
	callers []string
}

func (t *fakeTrigger) Trigger(callerID string) bool {
	if t.busy == true {
		return false
	}
	t.callers = append(t.callers, callerID)
	return true
}

type fakeHistory struct {
	entries []*model.HistoryEntry
	err     error
}

func (h *fakeHistory) Recent(ctx context.Context, n int) ([]*model.HistoryEntry, error) {
	if h.err != nil {
		return nil, h.err
	}
	if n < len(h.entries) {
		return h.entries[:n], nil
	}
	return h.entries, nil
}

func newTestEcho(t *testing.T, rateLimit float64) (*echo.Echo, *fakeDispatcher, *fakeTrigger, *fakeHistory) {
	config := g.DefaultAppConfig()
	config.WS.RateLimit = rateLimit

	d := &fakeDispatcher{}
	tr := &fakeTrigger{}
	h := &fakeHistory{}

	return New(config, handler.New(d, tr, h)), d, tr, h
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPostCommand(t *testing.T) {
	assert := assert.New(t)

	e, d, _, _ := newTestEcho(t, 100)

	rec := serve(e, http.MethodPost, "/api/v1/commands", `{"commandText":"一覧","callerId":"U1"}`)
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"response":"reply:一覧"}`, rec.Body.String())
	assert.Equal([]string{"U1"}, d.callers)

	// 요청 본문이 유효하지 않은 경우
	rec = serve(e, http.MethodPost, "/api/v1/commands", `{"commandText":`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/commands", `{"callerId":"U1"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	assert.Len(d.texts, 1)
}

func TestPostNotify(t *testing.T) {
	assert := assert.New(t)

	e, _, tr, _ := newTestEcho(t, 100)

	rec := serve(e, http.MethodPost, "/api/v1/notify", `{"callerId":"U1"}`)
	assert.Equal(http.StatusAccepted, rec.Code)
	assert.Contains(rec.Body.String(), "通知処理を開始しました")

	rec = serve(e, http.MethodPost, "/api/v1/notify", "")
	assert.Equal(http.StatusAccepted, rec.Code)
	assert.Equal([]string{"U1", ""}, tr.callers)

	tr.busy = true
	rec = serve(e, http.MethodPost, "/api/v1/notify", "")
	assert.Equal(http.StatusConflict, rec.Code)
	assert.Contains(rec.Body.String(), "通知処理を実行中です")
}

func TestGetHistoryFeed(t *testing.T) {
	assert := assert.New(t)

	e, _, _, h := newTestEcho(t, 100)

	notifiedAt := time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		h.entries = append(h.entries, &model.HistoryEntry{
			ID:         "id",
			Title:      "記事",
			Link:       "https://example.com/articles",
			FeedTitle:  "Example",
			Category:   "ニュース",
			NotifiedAt: notifiedAt,
		})
	}
	h.entries[0].Title = "最新の記事"

	rec := serve(e, http.MethodGet, "/history/feed.xml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "application/rss+xml"))

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal("rss", feed.FeedType)
	assert.Len(feed.Items, 50)
	assert.Equal("最新の記事", feed.Items[0].Title)
	assert.Equal("https://example.com/articles", feed.Items[0].Link)

	h.err = errors.New("disk I/O error")
	rec = serve(e, http.MethodGet, "/history/feed.xml", "")
	assert.Equal(http.StatusInternalServerError, rec.Code)
}

func TestGetMetrics(t *testing.T) {
	e, _, _, _ := newTestEcho(t, 100)

	rec := serve(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRateLimiter(t *testing.T) {
	assert := assert.New(t)

	e, _, _, _ := newTestEcho(t, 1)

	// 버스트를 모두 소진하면 429를 반환한다.
	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, serve(e, http.MethodPost, "/api/v1/commands", `{"commandText":"ヘルプ"}`).Code)
	}
	assert.Equal(http.StatusOK, codes[0])
	assert.Contains(codes, http.StatusTooManyRequests)

	// API 이외의 경로는 제한하지 않는다.
	for i := 0; i < 5; i++ {
		assert.Equal(http.StatusOK, serve(e, http.MethodGet, "/metrics", "").Code)
	}
}

func TestSwagger(t *testing.T) {
	e, _, _, _ := newTestEcho(t, 100)

	rec := serve(e, http.MethodGet, "/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/commands")
	assert.Contains(t, rec.Body.String(), g.AppVersion)
}
