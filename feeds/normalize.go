package feeds

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/rss-feed-notifier/utils"
)

const (
	// 요약문의 최대 길이(글자수)
	maxSummaryLength = 200

	summaryEllipsis = "..."
)

// newArticle 피드 엔트리를 Article로 정규화한다.
// 제목 또는 링크가 없는 엔트리는 nil을 반환한다.
func newArticle(title, link string, publishedAt time.Time, description, content, imageURL string) *Article {
	title = utils.Trim(plainText(title))
	link = strings.TrimSpace(link)
	if title == "" || link == "" {
		return nil
	}

	summarySource := description
	if strings.TrimSpace(summarySource) == "" {
		summarySource = content
	}
	summary := utils.Trim(plainText(summarySource))

	text := summary
	if strings.TrimSpace(content) != "" {
		text = utils.Trim(plainText(content))
	}

	if imageURL == "" {
		imageURL = firstImage(content)
	}
	if imageURL == "" {
		imageURL = firstImage(description)
	}

	return &Article{
		Title:       title,
		Link:        link,
		PublishedAt: publishedAt,
		Summary:     utils.Truncate(summary, maxSummaryLength, summaryEllipsis),
		ImageURL:    strings.TrimSpace(imageURL),
		Text:        text,
	}
}

// plainText HTML 태그를 제거한 텍스트를 반환한다.
func plainText(s string) string {
	if strings.ContainsAny(s, "<&") == false {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	// 블록 요소 사이의 텍스트가 붙지 않도록 공백을 넣는다.
	doc.Find("br, p, div, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	doc.Find("script, style").Remove()

	return doc.Text()
}

func firstImage(s string) string {
	if strings.Contains(s, "<img") == false {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
