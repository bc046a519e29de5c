package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/stretchr/testify/assert"
)

func TestClassifyType(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		title    string
		expected ArticleType
	}{
		{"今週の人気記事ランキング", TypeTrend},
		{"Go 言語 入門", TypeTechnical},
		{"便利なライブラリを紹介", TypeTool},
		{"クラウド料金の比較", TypeAnalysis},
		{"新バージョンがリリースされました", TypeNews},
		{"Popular Repositories This Week", TypeTrend},
		{"A Beginner's TUTORIAL", TypeTechnical},
		// 앞선 규칙이 우선한다.
		{"話題のツールを解説", TypeTrend},
		{"入門者向けツール", TypeTechnical},
	}

	for _, c := range cases {
		assert.Equal(c.expected, classifyType(normalize(c.title)), c.title)
	}
}

func TestEstimateDifficulty(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Beginner, estimateDifficulty(normalize("初心者のための基礎講座")))
	assert.Equal(Advanced, estimateDifficulty(normalize("高度な最適化の詳細")))
	assert.Equal(Intermediate, estimateDifficulty(normalize("Kubernetes の運用")))
	// 초급 1회, 상급 1회
	assert.Equal(Intermediate, estimateDifficulty(normalize("入門から上級まで")))
	// 초급 1회, 상급 2회
	assert.Equal(Advanced, estimateDifficulty(normalize("入門者でもわかる高度で詳細な話")))
}

func TestCategorize(t *testing.T) {
	assert := assert.New(t)

	c, ok := Categorize("最新のプログラミング事情")
	assert.True(ok)
	assert.Equal("プログラミング", c)

	// 대소문자 및 전각 문자 무시
	c, ok = Categorize("ＧｉｔＨｕｂ Actions の紹介")
	assert.True(ok)
	assert.Equal("プログラミング", c)

	// 더 긴 키워드가 우선한다: "テクノロジー"(6글자) > "開発"(2글자)
	c, ok = Categorize("テクノロジー企業の開発")
	assert.True(ok)
	assert.Equal("テクノロジー", c)

	// 반각 가타카나
	c, ok = Categorize("ｱﾆﾒ最新情報")
	assert.True(ok)
	assert.Equal("マンガ・エンタメ", c)

	_, ok = Categorize("今日の天気")
	assert.False(ok)
}

func TestLookupCategory(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("#2E7D32", LookupCategory("プログラミング").Color)
	assert.Equal(99, LookupCategory(DefaultCategoryName).Priority)

	c := LookupCategory("旅行")
	assert.Equal("旅行", c.Name)
	assert.Equal("📝", c.Icon)
	assert.Equal(99, c.Priority)
}

func TestReadingTime(t *testing.T) {
	assert := assert.New(t)

	a := New(400)
	assert.Equal(1, a.readingTime(""))
	assert.Equal(1, a.readingTime("short text"))
	assert.Equal(1, a.readingTime(strings.Repeat("word ", 400)))
	assert.Equal(2, a.readingTime(strings.Repeat("word ", 401)))
	assert.Equal(3, a.readingTime(strings.Repeat("あ", 1000)))

	assert.Equal(3, countWords("Go 言語"))
	assert.Equal(2, countWords("hello, world!"))
	assert.Equal(DefaultWordsPerMinute, New(0).wordsPerMinute)
}

func TestAnalyze(t *testing.T) {
	assert := assert.New(t)

	a := New(400)

	// 키워드로 카테고리를 찾지 못하면 피드의 카테고리를 사용한다.
	r := a.Analyze(&feeds.Article{Title: "今日の天気", Summary: "晴れ", FeedCategory: "ニュース"})
	assert.Equal("ニュース", r.Analysis.Category)
	assert.Equal(TypeNews, r.Type)
	assert.Equal(Intermediate, r.Difficulty)
	assert.Equal(1, r.ReadingTimeMinutes)

	r = a.Analyze(&feeds.Article{Title: "今日の天気"})
	assert.Equal(DefaultCategoryName, r.Analysis.Category)

	r = a.Analyze(&feeds.Article{Title: "Python 入門", Summary: "初心者向け", FeedCategory: "ニュース"})
	assert.Equal("プログラミング", r.Analysis.Category)
	assert.Equal(TypeTechnical, r.Type)
	assert.Equal(Beginner, r.Difficulty)
}

func TestAnalyzeAll_RankWithinCategory(t *testing.T) {
	assert := assert.New(t)

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	articles := []*feeds.Article{
		{Title: "Go 開発 入門", Link: "https://example.com/1", PublishedAt: now.Add(-3 * time.Hour)},
		{Title: "開発ツール", Link: "https://example.com/2", PublishedAt: now.Add(-1 * time.Hour)},
		{Title: "話題の開発手法", Link: "https://example.com/3", PublishedAt: now.Add(-5 * time.Hour)},
		{Title: "開発者向け 解説", Link: "https://example.com/4", PublishedAt: now.Add(-1 * time.Hour)},
		{Title: "アニメ化決定", Link: "https://example.com/5"},
	}

	grouped := New(400).AnalyzeAll(articles)
	assert.Len(grouped, 2)

	programming := grouped["プログラミング"]
	assert.Len(programming, 4)
	assert.Equal("https://example.com/3", programming[0].Link) // トレンド
	assert.Equal("https://example.com/4", programming[1].Link) // 技術解説, 1시간 전
	assert.Equal("https://example.com/1", programming[2].Link) // 技術解説, 3시간 전
	assert.Equal("https://example.com/2", programming[3].Link) // ツール
	for i, article := range programming {
		assert.Equal(i+1, article.PriorityRank)
	}

	// 다른 카테고리의 순위는 독립적이다.
	assert.Len(grouped["マンガ・エンタメ"], 1)
	assert.Equal(1, grouped["マンガ・エンタメ"][0].PriorityRank)
}

func TestRank_UnknownDateIsNewest(t *testing.T) {
	assert := assert.New(t)

	now := time.Now()
	articles := []*AnalyzedArticle{
		{Article: &feeds.Article{Link: "a", PublishedAt: now}, Analysis: Analysis{Type: TypeNews}},
		{Article: &feeds.Article{Link: "b"}, Analysis: Analysis{Type: TypeNews}},
		{Article: &feeds.Article{Link: "c", PublishedAt: now.Add(time.Minute)}, Analysis: Analysis{Type: TypeNews}},
	}

	Rank(articles)
	assert.Equal([]string{"b", "c", "a"}, []string{articles[0].Link, articles[1].Link, articles[2].Link})
}
