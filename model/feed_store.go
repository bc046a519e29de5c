package model

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/analyzer"
	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/darkkaiser/rss-feed-notifier/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultFeedTitle = "無題のフィード"

	defaultFeedPriority = 5
)

var validate = validator.New()

//
// FeedStore
//
type FeedStore struct {
	store store.ObjectStore

	fetcher      feeds.Fetcher
	fetchTimeout time.Duration

	maxFeeds int

	now func() time.Time
}

func NewFeedStore(s store.ObjectStore, fetcher feeds.Fetcher, fetchTimeout time.Duration, maxFeeds int) *FeedStore {
	return &FeedStore{
		store: s,

		fetcher:      fetcher,
		fetchTimeout: fetchTimeout,

		maxFeeds: maxFeeds,

		now: time.Now,
	}
}

func (s *FeedStore) Document(ctx context.Context) (*ConfigDocument, error) {
	d, _, err := store.Load(ctx, s.store, ConfigDocumentKey, newConfigDocument(s.maxFeeds))
	return d, err
}

// List 등록된 순서대로 모든 피드를 반환한다. 이 순서가 삭제 명령의 번호가 된다.
func (s *FeedStore) List(ctx context.Context) ([]*Feed, error) {
	d, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return d.Feeds, nil
}

func (s *FeedStore) EnabledFeeds(ctx context.Context) ([]*Feed, error) {
	feedList, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Filter(feedList, func(f *Feed, _ int) bool {
		return f.Enabled == true
	}), nil
}

// Add 피드를 한번 가져와서 읽을 수 있는 피드인지 확인한 후 목록에 추가한다.
// 추가된 피드와 추가된 후의 전체 피드 수를 반환한다.
func (s *FeedStore) Add(ctx context.Context, rawURL string) (*Feed, int, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateFeedURL(rawURL); err != nil {
		return nil, 0, err
	}

	// 피드를 가져오기 전에 확인할 수 있는 것은 먼저 확인한다.
	d, err := s.Document(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := s.checkAddable(d, rawURL); err != nil {
		return nil, 0, err
	}

	result, err := s.fetcher.Fetch(ctx, rawURL, s.fetchTimeout)
	if err != nil {
		return nil, 0, &ValidationError{Reason: NotAFeed, Value: rawURL, Err: err}
	}
	if len(result.Articles) == 0 {
		return nil, 0, &ValidationError{Reason: NotAFeed, Value: rawURL}
	}

	title := result.Title
	if title == "" {
		title = DefaultFeedTitle
	}
	category, ok := analyzer.Categorize(title)
	if ok == false {
		category = analyzer.DefaultCategoryName
	}

	feed := &Feed{
		ID:          uuid.NewString(),
		URL:         rawURL,
		Title:       title,
		Description: result.Description,
		Category:    category,
		Enabled:     true,
		Priority:    defaultFeedPriority,
		AddedAt:     s.now().UTC(),
		SuccessRate: 1.0,
	}

	var count int
	_, err = store.Update(ctx, s.store, ConfigDocumentKey, newConfigDocument(s.maxFeeds), func(d *ConfigDocument) error {
		// 피드를 가져오는 동안 다른 요청이 같은 피드를 추가했을 수 있다.
		if err := s.checkAddable(d, rawURL); err != nil {
			return err
		}

		d.Feeds = append(d.Feeds, feed)
		d.touch(s.now().UTC())
		count = len(d.Feeds)

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	log.WithFields(log.Fields{
		"feed_id":  feed.ID,
		"url":      feed.URL,
		"category": feed.Category,
	}).Info("피드가 추가되었습니다.")

	return feed, count, nil
}

func (s *FeedStore) checkAddable(d *ConfigDocument, rawURL string) error {
	if lo.ContainsBy(d.Feeds, func(f *Feed) bool { return f.URL == rawURL }) == true {
		return &ValidationError{Reason: DuplicateFeed, Value: rawURL}
	}

	limit := d.Settings.MaxFeeds
	if limit <= 0 {
		limit = s.maxFeeds
	}
	if limit > 0 && len(d.Feeds) >= limit {
		return &ValidationError{Reason: TooManyFeeds, Value: rawURL}
	}

	return nil
}

// Remove List가 반환하는 순서 기준으로 1부터 시작하는 번호의 피드를 삭제한다.
// 삭제된 피드와 삭제된 후의 전체 피드 수를 반환한다.
func (s *FeedStore) Remove(ctx context.Context, index int) (*Feed, int, error) {
	var removed *Feed
	var count int

	_, err := store.Update(ctx, s.store, ConfigDocumentKey, newConfigDocument(s.maxFeeds), func(d *ConfigDocument) error {
		if index < 1 || index > len(d.Feeds) {
			return &NotFoundError{Index: index, Count: len(d.Feeds)}
		}

		removed = d.Feeds[index-1]
		d.Feeds = append(d.Feeds[:index-1], d.Feeds[index:]...)
		d.touch(s.now().UTC())
		count = len(d.Feeds)

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	log.WithFields(log.Fields{
		"feed_id": removed.ID,
		"url":     removed.URL,
	}).Info("피드가 삭제되었습니다.")

	return removed, count, nil
}

// RecordChecks 피드별 확인 결과(성공 여부)를 반영한다. 성공률은 지수 이동 평균으로 갱신된다.
// 확인하는 동안 삭제된 피드는 무시된다.
func (s *FeedStore) RecordChecks(ctx context.Context, outcomes map[string]bool) error {
	if len(outcomes) == 0 {
		return nil
	}

	_, err := store.Update(ctx, s.store, ConfigDocumentKey, newConfigDocument(s.maxFeeds), func(d *ConfigDocument) error {
		now := s.now().UTC()
		for _, f := range d.Feeds {
			succeeded, exists := outcomes[f.ID]
			if exists == false {
				continue
			}

			checkedAt := now
			f.LastCheckedAt = &checkedAt
			f.SuccessRate = nextSuccessRate(f.SuccessRate, succeeded)
		}
		d.touch(now)

		return nil
	})

	return err
}

func nextSuccessRate(old float64, succeeded bool) float64 {
	var v float64
	if succeeded == true {
		v = 1
	}
	return round(0.8*old+0.2*v, 4)
}

// RecordNotification 알림 발송 통계를 갱신한다.
func (s *FeedStore) RecordNotification(ctx context.Context, articleCount int) error {
	_, err := store.Update(ctx, s.store, ConfigDocumentKey, newConfigDocument(s.maxFeeds), func(d *ConfigDocument) error {
		d.Statistics.TotalNotificationsSent++
		d.Statistics.TotalArticlesProcessed += articleCount
		d.Statistics.AvgArticlesPerNotification = round(float64(d.Statistics.TotalArticlesProcessed)/float64(d.Statistics.TotalNotificationsSent), 1)
		d.touch(s.now().UTC())

		return nil
	})

	return err
}

func validateFeedURL(rawURL string) error {
	if err := validate.Var(rawURL, "required,http_url"); err != nil {
		return &ValidationError{Reason: InvalidURL, Value: rawURL, Err: err}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Reason: InvalidURL, Value: rawURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Reason: InvalidURL, Value: rawURL}
	}

	return nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
