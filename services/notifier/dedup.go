package notifier

import (
	"time"

	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/darkkaiser/rss-feed-notifier/model"
)

// DedupStats 중복 제거 단계별로 제외된 기사수
type DedupStats struct {
	Input    int
	Notified int
	InBatch  int
	Expired  int
	Output   int
}

// Deduplicate 이미 알림이 발송된 기사, 작성된 지 maxAge가 지난 기사, 같은 실행 안에서 링크가 중복되는
// 기사(먼저 나온 기사를 남긴다)를 차례로 제외한다. 작성일을 알 수 없는 기사는 새 기사로 취급한다.
func Deduplicate(articles []*feeds.Article, history *model.HistorySnapshot, now time.Time, maxAge time.Duration) ([]*feeds.Article, DedupStats) {
	stats := DedupStats{Input: len(articles)}

	cutoff := now.Add(-maxAge)
	seen := make(map[string]struct{}, len(articles))

	fresh := make([]*feeds.Article, 0, len(articles))
	for _, a := range articles {
		if history.ContainsLink(a.Link) == true || history.ContainsHash(model.ContentHash(a.Title, a.Link)) == true {
			stats.Notified++
			continue
		}

		// 기간이 지난 기사는 같은 링크의 다음 기사를 가리지 않는다.
		if maxAge > 0 && a.PublishedAt.IsZero() == false && a.PublishedAt.Before(cutoff) == true {
			stats.Expired++
			continue
		}

		if _, exists := seen[a.Link]; exists == true {
			stats.InBatch++
			continue
		}
		seen[a.Link] = struct{}{}

		fresh = append(fresh, a)
	}
	stats.Output = len(fresh)

	return fresh, stats
}
