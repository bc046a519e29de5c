package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	results map[string]*feeds.Result
}

func (f *fakeFetcher) Fetch(ctx context.Context, feedURL string, timeout time.Duration) (*feeds.Result, error) {
	r, exists := f.results[feedURL]
	if exists == false {
		return nil, &feeds.FetchError{URL: feedURL, Kind: feeds.Permanent, StatusCode: 404}
	}
	return r, nil
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

type panicRegistry struct {
	FeedRegistry
}

func (r *panicRegistry) List(ctx context.Context) ([]*model.Feed, error) {
	panic("boom")
}

type brokenRegistry struct {
	FeedRegistry
}

func (r *brokenRegistry) List(ctx context.Context) ([]*model.Feed, error) {
	return nil, &store.StoreError{Op: "get", Key: model.ConfigDocumentKey, Err: errors.New("disk I/O error")}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *model.FeedStore, *fakeTrigger) {
	fetcher := &fakeFetcher{results: map[string]*feeds.Result{
		"https://go.dev/blog/feed.atom": {
			Title:    "Golang Weekly",
			Articles: []*feeds.Article{{Title: "Go 1.24", Link: "https://go.dev/blog/go1.24"}},
		},
		"https://example.com/feed": {
			Title:    "Example",
			Articles: []*feeds.Article{{Title: "hello", Link: "https://example.com/hello"}},
		},
		"https://example.com/empty": {
			Title: "Empty",
		},
	}}

	feedStore := model.NewFeedStore(store.NewMemoryStore(), fetcher, time.Second, 3)
	trigger := &fakeTrigger{}

	return NewDispatcher(feedStore, trigger, 1000), feedStore, trigger
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	cmd, err := Parse("  追加　https://example.com/feed  extra ", 1000)
	assert.NoError(err)
	assert.Equal(&Command{Verb: VerbAdd, Args: []string{"https://example.com/feed", "extra"}}, cmd)

	_, err = Parse("   ", 1000)
	var cmdErr *CommandError
	assert.True(errors.As(err, &cmdErr))
	assert.Equal(EmptyCommand, cmdErr.Reason)

	// 길이는 바이트가 아니라 문자 수로 계산한다.
	_, err = Parse(strings.Repeat("あ", 10), 10)
	assert.NoError(err)

	_, err = Parse(strings.Repeat("あ", 11), 10)
	assert.True(errors.As(err, &cmdErr))
	assert.Equal(CommandTooLong, cmdErr.Reason)
	assert.Equal(11, cmdErr.Length)
}

func TestDispatcher_List(t *testing.T) {
	assert := assert.New(t)

	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	assert.Equal(emptyListMessage, d.Dispatch(ctx, "一覧", "U1"))

	assert.Contains(d.Dispatch(ctx, "追加 https://go.dev/blog/feed.atom", "U1"), "Golang Weekly")
	assert.Contains(d.Dispatch(ctx, "追加 https://example.com/feed", "U1"), "Example")

	response := d.Dispatch(ctx, "一覧", "U1")
	assert.True(strings.HasPrefix(response, "📋 登録済みRSSフィード一覧:\n\n1. ✅ Golang Weekly\n   📂 プログラミング\n\n2. ✅ Example\n"))
	assert.True(strings.HasSuffix(response, "• 通知 - 手動通知実行"))
}

func TestDispatcher_Add(t *testing.T) {
	assert := assert.New(t)

	d, feedStore, _ := newTestDispatcher(t)
	ctx := context.Background()

	assert.Equal(addUsageMessage, d.Dispatch(ctx, "追加", "U1"))
	assert.Equal(invalidURLMessage, d.Dispatch(ctx, "追加 ftp://example.com/feed", "U1"))
	assert.Equal(invalidURLMessage, d.Dispatch(ctx, "追加 not-a-url", "U1"))
	assert.Equal(notAFeedMessage, d.Dispatch(ctx, "追加 https://example.com/missing", "U1"))
	assert.Equal(notAFeedMessage, d.Dispatch(ctx, "追加 https://example.com/empty", "U1"))

	assert.Equal("✅ RSSフィードを追加しました:\n\n📰 Golang Weekly\n📂 カテゴリ: プログラミング\n\n現在の登録フィード数: 1", d.Dispatch(ctx, "追加 https://go.dev/blog/feed.atom", "U1"))

	// 이미 등록된 피드
	assert.Equal(duplicateFeedMessage, d.Dispatch(ctx, "追加 https://go.dev/blog/feed.atom", "U1"))

	feedList, err := feedStore.List(ctx)
	assert.NoError(err)
	assert.Len(feedList, 1)
}

func TestDispatcher_AddTooManyFeeds(t *testing.T) {
	assert := assert.New(t)

	fetcher := &fakeFetcher{results: map[string]*feeds.Result{}}
	for _, u := range []string{"https://a.example.com/feed", "https://b.example.com/feed"} {
		fetcher.results[u] = &feeds.Result{Title: u, Articles: []*feeds.Article{{Title: "t", Link: u + "/1"}}}
	}

	d := NewDispatcher(model.NewFeedStore(store.NewMemoryStore(), fetcher, time.Second, 1), &fakeTrigger{}, 1000)

	assert.Contains(d.Dispatch(context.Background(), "追加 https://a.example.com/feed", "U1"), "✅")
	assert.Equal(tooManyFeedsMessage, d.Dispatch(context.Background(), "追加 https://b.example.com/feed", "U1"))
}

func TestDispatcher_Delete(t *testing.T) {
	assert := assert.New(t)

	d, feedStore, _ := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, "追加 https://go.dev/blog/feed.atom", "U1")
	d.Dispatch(ctx, "追加 https://example.com/feed", "U1")

	assert.Equal(deleteUsageMessage, d.Dispatch(ctx, "削除", "U1"))
	assert.Equal(invalidIndexMessage, d.Dispatch(ctx, "削除 first", "U1"))
	assert.Equal("❌ 番号5のフィードは存在しません。\n\n「一覧」コマンドで確認してください。", d.Dispatch(ctx, "削除 5", "U1"))
	assert.Equal("❌ 番号0のフィードは存在しません。\n\n「一覧」コマンドで確認してください。", d.Dispatch(ctx, "削除 0", "U1"))

	feedList, err := feedStore.List(ctx)
	assert.NoError(err)
	assert.Len(feedList, 2)

	assert.Equal("✅ RSSフィードを削除しました:\n\n📰 Golang Weekly\n\n残りフィード数: 1", d.Dispatch(ctx, "削除 1", "U1"))

	feedList, err = feedStore.List(ctx)
	assert.NoError(err)
	require.Len(t, feedList, 1)
	assert.Equal("Example", feedList[0].Title)
}

func TestDispatcher_Notify(t *testing.T) {
	assert := assert.New(t)

	d, _, trigger := newTestDispatcher(t)

	assert.Equal(notifyStartedMessage, d.Dispatch(context.Background(), "通知", "U1"))
	assert.Equal([]string{"U1"}, trigger.callers)

	trigger.busy = true
	assert.Equal(notifyRunningMessage, d.Dispatch(context.Background(), "通知", "U2"))
	assert.Equal([]string{"U1"}, trigger.callers)
}

func TestDispatcher_Misc(t *testing.T) {
	assert := assert.New(t)

	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	assert.Equal(HelpMessage, d.Dispatch(ctx, "ヘルプ", "U1"))
	assert.Equal(HelpMessage, d.Dispatch(ctx, "", "U1"))

	// 명령어는 정확히 일치해야 한다.
	assert.Equal("❓ 不明なコマンドです: help\n\n「ヘルプ」と送信してコマンド一覧を確認してください。", d.Dispatch(ctx, "help", "U1"))
	assert.Equal("❓ 不明なコマンドです: 一覧表示\n\n「ヘルプ」と送信してコマンド一覧を確認してください。", d.Dispatch(ctx, "一覧表示", "U1"))

	assert.Equal("❌ コマンドが長すぎます（最大1,000文字）", d.Dispatch(ctx, "追加 "+strings.Repeat("a", 1000), "U1"))
}

func TestDispatcher_InternalErrors(t *testing.T) {
	assert := assert.New(t)

	d := NewDispatcher(&panicRegistry{}, &fakeTrigger{}, 1000)
	assert.Equal("❌ コマンド処理中にエラーが発生しました: boom", d.Dispatch(context.Background(), "一覧", "U1"))

	d = NewDispatcher(&brokenRegistry{}, &fakeTrigger{}, 1000)
	response := d.Dispatch(context.Background(), "一覧", "U1")
	assert.True(strings.HasPrefix(response, "❌ コマンド処理中にエラーが発生しました: "))
	assert.Contains(response, "disk I/O error")
}
