package feeds

import (
	"fmt"
	"time"
)

// Article 피드에서 읽어들인 하나의 기사
// 실행 단위로만 사용되며, 알림이 발송된 기사만 알림 이력으로 저장된다.
type Article struct {
	Title       string
	Link        string
	PublishedAt time.Time // 작성일을 알 수 없으면 zero value
	Summary     string
	ImageURL    string

	// 본문의 순수 텍스트, 읽는 시간 추정에만 사용한다.
	Text string

	FeedID       string
	FeedTitle    string
	FeedCategory string
}

func (a Article) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s]", a.FeedID, a.Title, a.Link, a.PublishedAt.Format(time.RFC3339))
}

// Result 하나의 피드를 가져온 결과
type Result struct {
	Title       string
	Description string
	Articles    []*Article

	// 피드의 일부만 해석된 경우에 해석 오류가 설정된다. 이때 Articles에는 복구된 기사만 담긴다.
	Warning error
}
