// Package metrics 알림 파이프라인의 Prometheus 지표
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_notifier_feed_fetches_total",
		Help: "The total number of feed fetches by result (success, failure)",
	}, []string{"result"})

	FeedFetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rss_notifier_feed_fetch_attempts_total",
		Help: "The total number of feed fetch attempts including retries",
	})

	FeedFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rss_notifier_feed_fetch_duration_seconds",
		Help:    "Duration of a feed fetch including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // Start at 50ms, double each bucket, 10 buckets
	})

	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_notifier_pipeline_runs_total",
		Help: "The total number of notification runs by status",
	}, []string{"status"})

	ArticlesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rss_notifier_articles_fetched_total",
		Help: "The total number of articles read from feeds",
	})

	ArticlesNotified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rss_notifier_articles_notified_total",
		Help: "The total number of articles included in delivered notifications",
	})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_notifier_commands_total",
		Help: "The total number of chat commands by verb",
	}, []string{"command"})
)
