// Package analyzer 기사의 유형, 난이도, 읽는 시간, 카테고리를 추정하고 카테고리 내 순위를 매긴다.
// 모든 판단은 키워드 규칙에 의한 것이며 실패하는 경우는 없다. 일치하는 규칙이 없으면 기본값이 사용된다.
package analyzer

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/darkkaiser/rss-feed-notifier/feeds"
	"github.com/samber/lo"
)

const DefaultWordsPerMinute = 400

type Analysis struct {
	Type               ArticleType
	Difficulty         Difficulty
	ReadingTimeMinutes int
	Category           string

	// 카테고리 내에서의 순위(1부터 시작), Rank가 호출되기 전에는 0
	PriorityRank int
}

type AnalyzedArticle struct {
	*feeds.Article
	Analysis
}

type Analyzer struct {
	wordsPerMinute int
}

func New(wordsPerMinute int) *Analyzer {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	return &Analyzer{wordsPerMinute: wordsPerMinute}
}

// Analyze 하나의 기사를 분석한다. 순위는 매기지 않는다.
func (a *Analyzer) Analyze(article *feeds.Article) *AnalyzedArticle {
	title := normalize(article.Title)
	text := title + " " + normalize(article.Summary)

	category, ok := Categorize(article.Title + " " + article.Summary)
	if ok == false {
		category = article.FeedCategory
	}
	if category == "" {
		category = DefaultCategoryName
	}

	body := article.Text
	if body == "" {
		body = article.Summary
	}

	return &AnalyzedArticle{
		Article: article,
		Analysis: Analysis{
			Type:               classifyType(title),
			Difficulty:         estimateDifficulty(text),
			ReadingTimeMinutes: a.readingTime(body),
			Category:           category,
		},
	}
}

// AnalyzeAll 기사들을 분석하여 카테고리별로 나누고, 카테고리마다 순위를 매긴다.
// 반환되는 각 카테고리의 기사는 순위 오름차순으로 정렬되어 있다.
func (a *Analyzer) AnalyzeAll(articles []*feeds.Article) map[string][]*AnalyzedArticle {
	analyzed := lo.Map(articles, func(article *feeds.Article, _ int) *AnalyzedArticle {
		return a.Analyze(article)
	})

	grouped := lo.GroupBy(analyzed, func(article *AnalyzedArticle) string {
		return article.Analysis.Category
	})
	for _, group := range grouped {
		Rank(group)
	}

	return grouped
}

// Rank (유형 가중치, 작성일) 내림차순으로 정렬하고 1부터 순위를 매긴다.
// 작성일을 알 수 없는 기사는 가장 최신으로 취급한다. 두 값이 모두 같으면 입력 순서를 유지한다.
func Rank(articles []*AnalyzedArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Type.Weight != articles[j].Type.Weight {
			return articles[i].Type.Weight > articles[j].Type.Weight
		}

		ti, tj := articles[i].PublishedAt, articles[j].PublishedAt
		switch {
		case ti.IsZero() == true:
			return tj.IsZero() == false
		case tj.IsZero() == true:
			return false
		}
		return ti.After(tj)
	})

	for i, article := range articles {
		article.PriorityRank = i + 1
	}
}

// readingTime 단어수를 분당 읽는 단어수로 나눈 값(올림)이며 최소 1분이다.
func (a *Analyzer) readingTime(text string) int {
	minutes := int(math.Ceil(float64(countWords(text)) / float64(a.wordsPerMinute)))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// countWords 공백으로 구분되는 단어를 센다. 한중일 문자는 띄어쓰기를 하지 않으므로 한 글자를 한 단어로 센다.
func countWords(text string) int {
	var count int
	for _, field := range strings.Fields(text) {
		var inWord bool
		for _, r := range field {
			if isCJK(r) == true {
				count++
				inWord = false
				continue
			}
			if inWord == false && (unicode.IsLetter(r) == true || unicode.IsDigit(r) == true) {
				count++
				inWord = true
			}
		}
	}
	return count
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
