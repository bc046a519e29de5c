package feeds

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"
)

var (
	errNoEntries         = errors.New("no well-formed entries")
	errUnsupportedFormat = errors.New("only RSS 2.0 and Atom feeds are supported")
)

// Parse RSS 2.0 또는 Atom 문서를 해석한다.
// 문서 전체의 해석이 실패하더라도 온전한 엔트리를 하나 이상 복구할 수 있으면 그 엔트리들과 함께
// Result.Warning에 해석 오류를 담아 반환한다. 복구된 엔트리가 없으면 오류를 반환한다.
func Parse(data []byte) (*Result, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err == nil {
		if feed.FeedType != "rss" && feed.FeedType != "atom" {
			return nil, fmt.Errorf("%w (type:%s)", errUnsupportedFormat, feed.FeedType)
		}
		return fromGofeed(feed), nil
	}

	// 엄격한 해석이 실패하면, 해석 가능한 엔트리만이라도 복구해 본다.
	result := recoverEntries(data)
	if len(result.Articles) == 0 {
		return nil, err
	}
	result.Warning = err

	return result, nil
}

func fromGofeed(feed *gofeed.Feed) *Result {
	result := &Result{
		Title:       strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(feed.Description),
		Articles:    make([]*Article, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}

		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		var imageURL string
		for _, enclosure := range item.Enclosures {
			if strings.HasPrefix(enclosure.Type, "image/") == true {
				imageURL = enclosure.URL
				break
			}
		}
		if imageURL == "" && item.Image != nil {
			imageURL = item.Image.URL
		}

		if article := newArticle(item.Title, link, publishedAt, item.Description, item.Content, imageURL); article != nil {
			result.Articles = append(result.Articles, article)
		}
	}

	return result
}

type lenientLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

type lenientEntry struct {
	Title       string        `xml:"title"`
	Links       []lenientLink `xml:"link"`
	PubDate     string        `xml:"pubDate"`
	Published   string        `xml:"published"`
	Updated     string        `xml:"updated"`
	Date        string        `xml:"date"`
	Description string        `xml:"description"`
	Summary     string        `xml:"summary"`
	Content     string        `xml:"content"`
	Encoded     string        `xml:"encoded"`
}

func (e *lenientEntry) link() string {
	for _, l := range e.Links {
		if strings.TrimSpace(l.Text) != "" {
			return strings.TrimSpace(l.Text)
		}
		if l.Href != "" && (l.Rel == "" || l.Rel == "alternate") {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

// feedAutoClose 본문에 이스케이프되지 않은 채 들어오는 HTML 빈 요소들
// xml.HTMLAutoClose와 달리 link는 포함하지 않는다. RSS 2.0의 <link>는 내용을 가지는 요소이다.
var feedAutoClose = []string{"area", "base", "br", "col", "embed", "hr", "img", "input", "meta", "param", "source", "wbr"}

// recoverEntries 비엄격 모드의 XML 디코더로 문서를 앞에서부터 읽으면서, 오류가 발생하기 전까지의
// 온전한 item/entry 요소만 수집한다.
func recoverEntries(data []byte) *Result {
	result := &Result{}

	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.AutoClose = feedAutoClose
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	for {
		token, err := d.Token()
		if err != nil {
			break
		}

		se, ok := token.(xml.StartElement)
		if ok == false {
			continue
		}

		switch se.Name.Local {
		case "title":
			if result.Title == "" && len(result.Articles) == 0 {
				var title string
				if err := d.DecodeElement(&title, &se); err != nil {
					return result
				}
				result.Title = strings.TrimSpace(title)
			}

		case "item", "entry":
			var e lenientEntry
			if err := d.DecodeElement(&e, &se); err != nil {
				return result
			}

			publishedAt := parseDate(e.PubDate, e.Published, e.Date, e.Updated)
			description := firstNonEmpty(e.Description, e.Summary)
			content := firstNonEmpty(e.Encoded, e.Content)

			if article := newArticle(e.Title, e.link(), publishedAt, description, content, ""); article != nil {
				result.Articles = append(result.Articles, article)
			}
		}
	}

	return result
}

// gofeed의 날짜 해석기는 외부에 공개되어 있지 않으므로 복구 경로에서 사용할 형식을 직접 열거한다.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(values ...string) time.Time {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
