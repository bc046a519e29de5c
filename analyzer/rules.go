package analyzer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ArticleType 기사 유형
type ArticleType struct {
	Name   string
	Icon   string
	Weight int
}

var (
	TypeTrend     = ArticleType{Name: "トレンド", Icon: "🔥", Weight: 30}
	TypeNews      = ArticleType{Name: "ニュース", Icon: "📰", Weight: 25}
	TypeTechnical = ArticleType{Name: "技術解説", Icon: "⚡", Weight: 20}
	TypeTool      = ArticleType{Name: "ツール", Icon: "🛠️", Weight: 15}
	TypeAnalysis  = ArticleType{Name: "分析", Icon: "📊", Weight: 10}
)

type typeRule struct {
	articleType ArticleType
	keywords    []string
}

// 위에서부터 순서대로 평가하며 처음 일치한 규칙의 유형이 선택된다. 일치하는 규칙이 없으면 ニュース
var typeRules = []typeRule{
	{TypeTrend, normalizeAll("話題", "人気", "注目", "バズ", "話題沸騰", "急上昇", "ランキング", "popular", "trend")},
	{TypeTechnical, normalizeAll("解説", "入門", "基礎", "初心者", "学習", "理解", "仕組み", "原理", "tutorial", "guide")},
	{TypeTool, normalizeAll("ツール", "ライブラリ", "フレームワーク", "アプリ", "サービス", "使い方", "導入", "tool", "library")},
	{TypeAnalysis, normalizeAll("分析", "調査", "レポート", "統計", "データ", "比較", "検証", "考察", "analysis", "report")},
}

func classifyType(normalizedTitle string) ArticleType {
	for _, rule := range typeRules {
		if containsAny(normalizedTitle, rule.keywords) == true {
			return rule.articleType
		}
	}
	return TypeNews
}

// Difficulty 기사 난이도
type Difficulty string

const (
	Beginner     Difficulty = "初級"
	Intermediate Difficulty = "中級"
	Advanced     Difficulty = "上級"
)

var (
	beginnerKeywords = normalizeAll("初心者", "入門", "基礎", "基本", "はじめて", "簡単", "やさしい", "beginner", "introduction")
	advancedKeywords = normalizeAll("上級", "高度", "アドバンス", "詳細", "深い", "プロ", "エキスパート", "advanced", "deep dive", "internals")
)

// estimateDifficulty 초급/상급 키워드가 나타난 횟수를 비교한다. 횟수가 같거나 어느 쪽도 없으면 中級
func estimateDifficulty(normalizedText string) Difficulty {
	beginner := countHits(normalizedText, beginnerKeywords)
	advanced := countHits(normalizedText, advancedKeywords)

	switch {
	case beginner > advanced:
		return Beginner
	case advanced > beginner:
		return Advanced
	}
	return Intermediate
}

// Category 기사 카테고리와 화면 표시 정보
type Category struct {
	Name     string
	Icon     string
	Color    string
	Priority int
}

const DefaultCategoryName = "その他"

var categories = []Category{
	{Name: "プログラミング", Icon: "💻", Color: "#2E7D32", Priority: 1},
	{Name: "テクノロジー", Icon: "🔧", Color: "#1976D2", Priority: 2},
	{Name: "マンガ・エンタメ", Icon: "🎮", Color: "#F57C00", Priority: 3},
	{Name: "ニュース", Icon: "📰", Color: "#5D4037", Priority: 4},
	{Name: DefaultCategoryName, Icon: "📝", Color: "#616161", Priority: 99},
}

type categoryKeyword struct {
	keyword  string
	category string
}

var categoryKeywords = newCategoryKeywords(map[string][]string{
	"プログラミング":  {"プログラミング", "コード", "開発", "programming", "coding", "golang", "python", "javascript", "qiita", "github"},
	"テクノロジー":   {"テクノロジー", "技術", "technology", "iot", "人工知能", "機械学習", "クラウド", "セキュリティ"},
	"マンガ・エンタメ": {"マンガ", "漫画", "アニメ", "ゲーム", "エンタメ", "entertainment", "manga", "anime"},
	"ニュース":     {"ニュース", "政治", "経済", "news", "politics", "business"},
})

func newCategoryKeywords(table map[string][]string) []categoryKeyword {
	var keywords []categoryKeyword
	for _, c := range categories {
		for _, k := range table[c.Name] {
			keywords = append(keywords, categoryKeyword{keyword: normalize(k), category: c.Name})
		}
	}
	return keywords
}

// LookupCategory 카테고리의 표시 정보를 반환한다.
// 등록되지 않은 카테고리는 その他의 표시 정보를 사용한다.
func LookupCategory(name string) Category {
	for _, c := range categories {
		if c.Name == name {
			return c
		}
	}

	c := categories[len(categories)-1]
	if name != "" {
		c.Name = name
	}
	return c
}

// Categorize 텍스트에서 가장 긴 카테고리 키워드를 찾아 그 카테고리를 반환한다.
// 길이가 같으면 표시 순서가 앞선 카테고리가 선택된다.
func Categorize(text string) (string, bool) {
	normalized := normalize(text)

	var matched categoryKeyword
	for _, k := range categoryKeywords {
		if len(k.keyword) > len(matched.keyword) && strings.Contains(normalized, k.keyword) == true {
			matched = k
		}
	}
	if matched.category == "" {
		return "", false
	}

	return matched.category, true
}

// normalize 전각/반각 차이와 대소문자 차이를 없앤다.
func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func normalizeAll(keywords ...string) []string {
	for i, k := range keywords {
		keywords[i] = normalize(k)
	}
	return keywords
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) == true {
			return true
		}
	}
	return false
}

func countHits(s string, keywords []string) int {
	var hits int
	for _, k := range keywords {
		hits += strings.Count(s, k)
	}
	return hits
}
