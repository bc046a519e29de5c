// Package message 분석된 기사들을 카테고리별로 묶어 캐러셀 형태의 알림 메시지를 만든다.
package message

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/analyzer"
	"github.com/darkkaiser/rss-feed-notifier/utils"
	"github.com/samber/lo"
)

const (
	DefaultMaxGroups        = 10
	DefaultMaxItemsPerGroup = 5
)

var medals = []string{"🥇", "🥈", "🥉"}

// 헤더의 유형별 기사수 표시 순서
var typeOrder = []analyzer.ArticleType{
	analyzer.TypeTrend,
	analyzer.TypeTechnical,
	analyzer.TypeTool,
	analyzer.TypeAnalysis,
	analyzer.TypeNews,
}

type Item struct {
	Rank  int
	Medal string

	Title     string
	Link      string
	ImageURL  string
	FeedTitle string

	Type               analyzer.ArticleType
	Difficulty         analyzer.Difficulty
	ReadingTimeMinutes int

	PublishedAt time.Time
	AgeText     string

	Article *analyzer.AnalyzedArticle
}

// MetaText 예: "⚡ 初級 · 3分 · 2時間前"
func (i *Item) MetaText() string {
	parts := []string{fmt.Sprintf("%s %s", i.Type.Icon, i.Difficulty)}
	parts = append(parts, fmt.Sprintf("%d分", i.ReadingTimeMinutes))
	if i.AgeText != "" {
		parts = append(parts, i.AgeText)
	}
	return strings.Join(parts, " · ")
}

type TypeCount struct {
	Type  analyzer.ArticleType
	Count int
}

type Group struct {
	Category analyzer.Category

	// 카테고리의 전체 기사수, Items에는 최대 개수까지만 담긴다.
	Total      int
	TypeCounts []TypeCount

	Items []*Item
}

// Title 예: "💻 プログラミング"
func (g *Group) Title() string {
	return fmt.Sprintf("%s %s", g.Category.Icon, g.Category.Name)
}

// Summary 예: "🔥1 ⚡2 · 3件"
func (g *Group) Summary() string {
	counts := lo.Map(g.TypeCounts, func(tc TypeCount, _ int) string {
		return fmt.Sprintf("%s%d", tc.Type.Icon, tc.Count)
	})
	return fmt.Sprintf("%s · %s件", strings.Join(counts, " "), utils.FormatCommas(g.Total))
}

type Carousel struct {
	AltText string
	Groups  []*Group
}

// Empty 알림을 보낼 기사가 없으면 true
func (c *Carousel) Empty() bool {
	return len(c.Groups) == 0
}

// Articles 메시지에 포함된 기사들을 반환한다.
func (c *Carousel) Articles() []*analyzer.AnalyzedArticle {
	var articles []*analyzer.AnalyzedArticle
	for _, g := range c.Groups {
		for _, item := range g.Items {
			articles = append(articles, item.Article)
		}
	}
	return articles
}

//
// Builder
//
type Builder struct {
	maxGroups        int
	maxItemsPerGroup int

	now func() time.Time
}

func NewBuilder(maxGroups, maxItemsPerGroup int) *Builder {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}
	if maxItemsPerGroup <= 0 {
		maxItemsPerGroup = DefaultMaxItemsPerGroup
	}

	return &Builder{
		maxGroups:        maxGroups,
		maxItemsPerGroup: maxItemsPerGroup,

		now: time.Now,
	}
}

// Build 카테고리별 기사들로 캐러셀을 만든다. 카테고리는 표시 순서, 이름 순으로 정렬되며
// 최대 그룹수와 그룹당 최대 기사수를 넘는 기사는 메시지에 포함되지 않는다.
func (b *Builder) Build(grouped map[string][]*analyzer.AnalyzedArticle) *Carousel {
	categories := lo.Filter(lo.Keys(grouped), func(name string, _ int) bool {
		return len(grouped[name]) > 0
	})
	sort.Slice(categories, func(i, j int) bool {
		pi, pj := analyzer.LookupCategory(categories[i]).Priority, analyzer.LookupCategory(categories[j]).Priority
		if pi != pj {
			return pi < pj
		}
		return categories[i] < categories[j]
	})
	if len(categories) > b.maxGroups {
		categories = categories[:b.maxGroups]
	}

	now := b.now()
	carousel := &Carousel{}

	var total int
	for _, name := range categories {
		articles := append([]*analyzer.AnalyzedArticle(nil), grouped[name]...)
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].PriorityRank < articles[j].PriorityRank
		})

		g := &Group{
			Category:   analyzer.LookupCategory(name),
			Total:      len(articles),
			TypeCounts: countTypes(articles),
		}

		for i, article := range lo.Subset(articles, 0, uint(b.maxItemsPerGroup)) {
			item := &Item{
				Rank:               i + 1,
				Title:              article.Title,
				Link:               article.Link,
				ImageURL:           article.ImageURL,
				FeedTitle:          article.FeedTitle,
				Type:               article.Type,
				Difficulty:         article.Difficulty,
				ReadingTimeMinutes: article.ReadingTimeMinutes,
				PublishedAt:        article.PublishedAt,
				AgeText:            AgeText(now, article.PublishedAt),
				Article:            article,
			}
			if i < len(medals) {
				item.Medal = medals[i]
			}

			g.Items = append(g.Items, item)
		}

		total += len(g.Items)
		carousel.Groups = append(carousel.Groups, g)
	}

	carousel.AltText = fmt.Sprintf("RSS通知 - 新着記事 %s件", utils.FormatCommas(total))

	return carousel
}

func countTypes(articles []*analyzer.AnalyzedArticle) []TypeCount {
	counts := lo.CountValuesBy(articles, func(a *analyzer.AnalyzedArticle) string {
		return a.Type.Name
	})

	var typeCounts []TypeCount
	for _, t := range typeOrder {
		if n := counts[t.Name]; n > 0 {
			typeCounts = append(typeCounts, TypeCount{Type: t, Count: n})
		}
	}
	return typeCounts
}

// AgeText 작성일로부터 지난 시간을 표시한다. 작성일을 알 수 없으면 빈 문자열을 반환한다.
func AgeText(now, publishedAt time.Time) string {
	if publishedAt.IsZero() == true {
		return ""
	}

	elapsed := now.Sub(publishedAt)
	switch {
	case elapsed >= 24*time.Hour:
		return fmt.Sprintf("%d日前", int(elapsed/(24*time.Hour)))
	case elapsed >= time.Hour:
		return fmt.Sprintf("%d時間前", int(elapsed/time.Hour))
	}

	minutes := int(elapsed / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d分前", minutes)
}
