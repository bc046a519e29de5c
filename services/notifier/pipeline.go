package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/analyzer"
	"github.com/darkkaiser/rss-feed-notifier/message"
	"github.com/darkkaiser/rss-feed-notifier/metrics"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/notifyapi"
	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Deliverer 알림 메시지를 사용자에게 전달한다.
type Deliverer interface {
	Deliver(ctx context.Context, carousel *message.Carousel) error
	SendText(ctx context.Context, to, text string) error
}

type Status string

const (
	StatusNothingToNotify   Status = "nothing-to-notify"
	StatusNotified          Status = "notified"
	StatusHistoryNotUpdated Status = "history-not-updated"
	StatusFailed            Status = "failed"
)

// RunResult 알림 실행 한 번의 결과
type RunResult struct {
	BatchID string
	Status  Status

	// 알림 메시지에 포함된 기사수
	Notified int

	Report *Report
	Dedup  DedupStats

	Err error
}

//
// Pipeline
//
type Pipeline struct {
	feedStore    *model.FeedStore
	historyStore *model.HistoryStore

	coordinator *Coordinator
	analyzer    *analyzer.Analyzer
	builder     *message.Builder
	deliverer   Deliverer

	articleAge time.Duration

	now   func() time.Time
	alert func(message string, errorOccurred bool) bool
}

func NewPipeline(feedStore *model.FeedStore, historyStore *model.HistoryStore, coordinator *Coordinator, analyzer *analyzer.Analyzer, builder *message.Builder, deliverer Deliverer, articleAge time.Duration) *Pipeline {
	return &Pipeline{
		feedStore:    feedStore,
		historyStore: historyStore,

		coordinator: coordinator,
		analyzer:    analyzer,
		builder:     builder,
		deliverer:   deliverer,

		articleAge: articleAge,

		now:   time.Now,
		alert: notifyapi.Send,
	}
}

// Run 피드를 가져와서 새 기사를 알림으로 발송하고 알림 이력을 저장한다.
// 발송이 실패하면 알림 이력은 변경되지 않는다. 발송 후 이력 저장이 실패하면
// StatusHistoryNotUpdated를 반환하며, 이 경우 다음 실행에서 같은 기사가 다시 발송될 수 있다.
func (p *Pipeline) Run(ctx context.Context) *RunResult {
	result := &RunResult{BatchID: uuid.NewString()}

	logger := log.WithField("batch_id", result.BatchID)
	logger.Info("알림 작업을 시작합니다.")

	defer func() {
		metrics.PipelineRuns.WithLabelValues(string(result.Status)).Inc()
	}()

	feedList, err := p.feedStore.EnabledFeeds(ctx)
	if err != nil {
		return p.fail(logger, result, "피드 목록을 읽어들이는 중에 오류가 발생하였습니다.", err)
	}
	if len(feedList) == 0 {
		logger.Warn("알림 대상 피드가 없습니다.")
		result.Status = StatusNothingToNotify
		return result
	}

	// 피드를 가져온다.
	result.Report = p.coordinator.FetchAll(ctx, feedList)
	metrics.ArticlesFetched.Add(float64(len(result.Report.Articles)))

	if failed := result.Report.Failed(); len(failed) > 0 {
		logger.Warnf("%d개의 피드 중 %d개의 피드를 가져오지 못하였습니다.", len(feedList), len(failed))

		if len(failed) == len(feedList) {
			p.alert(fmt.Sprintf("모든 피드(%d개)를 가져오지 못하였습니다.\r\n\r\n%s", len(failed), failed[0].Err), true)
		}
	}

	if err := p.feedStore.RecordChecks(ctx, result.Report.Outcomes()); err != nil {
		logger.Warnf("피드 확인 결과를 저장하는 중에 오류가 발생하였습니다. (error:%s)", err)
	}

	// 이미 알림이 발송된 기사와 오래된 기사를 제외한다.
	snapshot, err := p.historyStore.Snapshot(ctx)
	if err != nil {
		return p.fail(logger, result, "알림 이력을 읽어들이는 중에 오류가 발생하였습니다.", err)
	}

	now := p.now()
	fresh, stats := Deduplicate(result.Report.Articles, snapshot, now, p.articleAge)
	result.Dedup = stats

	logger.WithFields(log.Fields{
		"input":    stats.Input,
		"notified": stats.Notified,
		"in_batch": stats.InBatch,
		"expired":  stats.Expired,
	}).Infof("새 기사 %d건을 찾았습니다.", stats.Output)

	// 기사를 분석하고 알림 메시지를 만든다.
	carousel := p.builder.Build(p.analyzer.AnalyzeAll(fresh))
	if carousel.Empty() == true {
		logger.Info("새 기사가 없어 알림을 발송하지 않습니다.")
		result.Status = StatusNothingToNotify
		return result
	}

	if err := p.deliverer.Deliver(ctx, carousel); err != nil {
		return p.fail(logger, result, "알림 메시지를 발송하는 중에 오류가 발생하였습니다.", err)
	}

	articles := carousel.Articles()
	result.Notified = len(articles)
	metrics.ArticlesNotified.Add(float64(result.Notified))

	// 알림 이력을 저장한다.
	notifiedAt := p.now().UTC()
	entries := lo.Map(articles, func(a *analyzer.AnalyzedArticle, _ int) *model.HistoryEntry {
		return newHistoryEntry(a, result.BatchID, notifiedAt)
	})

	if _, err := p.historyStore.Append(ctx, entries); err != nil {
		m := fmt.Sprintf("알림 메시지는 발송되었지만 알림 이력을 저장하지 못하였습니다. 다음 알림에서 %d건의 기사가 다시 발송될 수 있습니다.", result.Notified)

		logger.Errorf("%s (error:%s)", m, err)

		p.alert(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)

		result.Status = StatusHistoryNotUpdated
		result.Err = err

		return result
	}

	if err := p.feedStore.RecordNotification(ctx, result.Notified); err != nil {
		logger.Warnf("알림 통계를 저장하는 중에 오류가 발생하였습니다. (error:%s)", err)
	}

	logger.Infof("%d건의 기사를 알림으로 발송하였습니다.", result.Notified)

	result.Status = StatusNotified

	return result
}

func (p *Pipeline) fail(logger *log.Entry, result *RunResult, m string, err error) *RunResult {
	logger.Errorf("%s (error:%s)", m, err)

	p.alert(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)

	result.Status = StatusFailed
	result.Err = err

	return result
}

func newHistoryEntry(a *analyzer.AnalyzedArticle, batchID string, notifiedAt time.Time) *model.HistoryEntry {
	e := &model.HistoryEntry{
		ID:          uuid.NewString(),
		Title:       a.Title,
		Link:        a.Link,
		FeedID:      a.FeedID,
		FeedTitle:   a.FeedTitle,
		Category:    a.Analysis.Category,
		NotifiedAt:  notifiedAt,
		ContentHash: model.ContentHash(a.Title, a.Link),
		BatchID:     batchID,
		Metadata: model.AnalysisMetadata{
			ArticleType:        a.Type.Name,
			Difficulty:         string(a.Difficulty),
			ReadingTimeMinutes: a.ReadingTimeMinutes,
			PriorityRank:       a.PriorityRank,
		},
	}
	if a.PublishedAt.IsZero() == false {
		publishedAt := a.PublishedAt.UTC()
		e.PublishedAt = &publishedAt
	}

	return e
}
