package model

import (
	"time"
)

const (
	ConfigDocumentKey  = "rss-list.json"
	HistoryDocumentKey = "notified-history.json"

	DocumentVersion = "2.1"
)

// Feed 알림 대상 RSS/Atom 피드
type Feed struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category"`
	Enabled       bool       `json:"enabled"`
	Priority      int        `json:"priority"`
	AddedAt       time.Time  `json:"addedAt"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`
	SuccessRate   float64    `json:"successRate"`
}

type ConfigSettings struct {
	MaxFeeds int `json:"maxFeeds"`
}

type ConfigStatistics struct {
	TotalFeeds                 int     `json:"totalFeeds"`
	ActiveFeeds                int     `json:"activeFeeds"`
	TotalArticlesProcessed     int     `json:"totalArticlesProcessed"`
	TotalNotificationsSent     int     `json:"totalNotificationsSent"`
	AvgArticlesPerNotification float64 `json:"avgArticlesPerNotification"`
}

// ConfigDocument 피드 목록 문서(rss-list.json)
type ConfigDocument struct {
	Version    string           `json:"version"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Settings   ConfigSettings   `json:"settings"`
	Feeds      []*Feed          `json:"feeds"`
	Statistics ConfigStatistics `json:"statistics"`
}

func newConfigDocument(maxFeeds int) func() *ConfigDocument {
	return func() *ConfigDocument {
		return &ConfigDocument{
			Version:  DocumentVersion,
			Settings: ConfigSettings{MaxFeeds: maxFeeds},
			Feeds:    []*Feed{},
		}
	}
}

func (d *ConfigDocument) touch(now time.Time) {
	d.Version = DocumentVersion
	d.UpdatedAt = now

	d.Statistics.TotalFeeds = len(d.Feeds)
	d.Statistics.ActiveFeeds = 0
	for _, f := range d.Feeds {
		if f.Enabled == true {
			d.Statistics.ActiveFeeds++
		}
	}
}

// AnalysisMetadata 알림 시점의 기사 분석 결과
type AnalysisMetadata struct {
	ArticleType        string `json:"articleType"`
	Difficulty         string `json:"difficulty"`
	ReadingTimeMinutes int    `json:"readingTimeMinutes"`
	PriorityRank       int    `json:"priorityRank"`
}

// HistoryEntry 알림이 발송된 기사
type HistoryEntry struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Link        string           `json:"link"`
	FeedID      string           `json:"feedId"`
	FeedTitle   string           `json:"feedTitle"`
	Category    string           `json:"category"`
	NotifiedAt  time.Time        `json:"notifiedAt"`
	PublishedAt *time.Time       `json:"publishedAt,omitempty"`
	ContentHash string           `json:"contentHash"`
	BatchID     string           `json:"batchId"`
	Metadata    AnalysisMetadata `json:"metadata"`
}

type HistoryStatistics struct {
	TotalNotifications    int            `json:"totalNotifications"`
	OldestRecord          *time.Time     `json:"oldestRecord,omitempty"`
	LastCleanup           *time.Time     `json:"lastCleanup,omitempty"`
	CategoryStats         map[string]int `json:"categoryStats"`
	AvgDailyNotifications float64        `json:"avgDailyNotifications"`
}

// HistoryDocument 알림 이력 문서(notified-history.json)
type HistoryDocument struct {
	Version    string            `json:"version"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	History    []*HistoryEntry   `json:"history"`
	Statistics HistoryStatistics `json:"statistics"`
}

func newHistoryDocument() *HistoryDocument {
	return &HistoryDocument{
		Version: DocumentVersion,
		History: []*HistoryEntry{},
		Statistics: HistoryStatistics{
			CategoryStats: map[string]int{},
		},
	}
}
