package notifier

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/darkkaiser/rss-feed-notifier/metrics"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RetryPolicy 피드 하나를 가져올 때의 재시도 정책
// 최대 MaxRetries번 시도하며, n번째 재시도 전에 BaseDelay * Multiplier^(n-1) 만큼 대기한다.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(1<<63 - 1)
	b.MaxElapsedTime = 0
	b.Reset()

	retries := p.MaxRetries - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}

// FeedReport 피드 하나를 가져온 결과
type FeedReport struct {
	FeedID    string
	FeedTitle string
	URL       string

	Articles int
	Attempts int

	// 재시도 후에도 가져오지 못한 경우의 마지막 오류
	Err error

	// 피드의 일부만 해석된 경우의 해석 오류
	Warning error
}

func (r *FeedReport) Succeeded() bool {
	return r.Err == nil
}

// Report 모든 피드를 가져온 결과
type Report struct {
	Feeds []*FeedReport

	// 피드 순서, 그리고 피드 내의 순서를 유지한다.
	Articles []*feeds.Article
}

func (r *Report) Failed() []*FeedReport {
	return lo.Filter(r.Feeds, func(f *FeedReport, _ int) bool {
		return f.Succeeded() == false
	})
}

// Outcomes 피드 ID별 성공 여부
func (r *Report) Outcomes() map[string]bool {
	return lo.SliceToMap(r.Feeds, func(f *FeedReport) (string, bool) {
		return f.FeedID, f.Succeeded()
	})
}

//
// Coordinator
//
type Coordinator struct {
	fetcher feeds.Fetcher

	workers        int
	requestTimeout time.Duration
	retry          RetryPolicy
}

func NewCoordinator(fetcher feeds.Fetcher, workers int, requestTimeout time.Duration, retry RetryPolicy) *Coordinator {
	if workers <= 0 {
		workers = 1
	}

	return &Coordinator{
		fetcher: fetcher,

		workers:        workers,
		requestTimeout: requestTimeout,
		retry:          retry,
	}
}

// FetchAll 최대 workers개의 피드를 동시에 가져온다. 모든 피드의 처리가 끝난 후에 결과를 반환하며,
// 피드 하나의 실패는 다른 피드에 영향을 주지 않는다.
func (c *Coordinator) FetchAll(ctx context.Context, feedList []*model.Feed) *Report {
	results := make([]*feeds.Result, len(feedList))
	reports := make([]*FeedReport, len(feedList))

	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, feed := range feedList {
		i, feed := i, feed
		g.Go(func() error {
			results[i], reports[i] = c.fetch(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Feeds: reports}
	for i, feed := range feedList {
		if results[i] == nil {
			continue
		}
		for _, article := range results[i].Articles {
			article.FeedID = feed.ID
			article.FeedTitle = feed.Title
			article.FeedCategory = feed.Category
			report.Articles = append(report.Articles, article)
		}
	}

	return report
}

func (c *Coordinator) fetch(ctx context.Context, feed *model.Feed) (*feeds.Result, *FeedReport) {
	report := &FeedReport{
		FeedID:    feed.ID,
		FeedTitle: feed.Title,
		URL:       feed.URL,
	}

	logger := log.WithFields(log.Fields{
		"feed_id": feed.ID,
		"url":     feed.URL,
	})

	startTime := time.Now()

	var result *feeds.Result
	operation := func() error {
		report.Attempts++
		metrics.FeedFetchAttempts.Inc()

		r, err := c.fetcher.Fetch(ctx, feed.URL, c.requestTimeout)
		if err != nil {
			if feeds.IsTransient(err) == false {
				return backoff.Permanent(err)
			}
			return err
		}

		result = r

		return nil
	}

	notify := func(err error, d time.Duration) {
		logger.WithFields(log.Fields{
			"attempt":     report.Attempts,
			"retry_after": d,
		}).Warnf("피드를 가져오지 못하여 다시 시도합니다. (error:%s)", err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(c.retry.newBackOff(), ctx), notify)

	metrics.FeedFetchDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		report.Err = err
		metrics.FeedFetches.WithLabelValues("failure").Inc()

		logger.WithField("attempts", report.Attempts).Errorf("피드를 가져오지 못하였습니다. (error:%s)", err)

		return nil, report
	}

	report.Articles = len(result.Articles)
	report.Warning = result.Warning
	metrics.FeedFetches.WithLabelValues("success").Inc()

	if result.Warning != nil {
		logger.Warnf("피드의 일부만 해석되었습니다. %d건의 기사를 복구하였습니다. (error:%s)", report.Articles, result.Warning)
	} else {
		logger.Debugf("피드에서 %d건의 기사를 읽었습니다.", report.Articles)
	}

	return result, report
}
