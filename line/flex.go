package line

import (
	"github.com/darkkaiser/rss-feed-notifier/message"
)

// Flex Message 구성요소, 사용하는 속성만 정의한다.
type flexComponent struct {
	Type            string           `json:"type"`
	Layout          string           `json:"layout,omitempty"`
	Contents        []*flexComponent `json:"contents,omitempty"`
	Text            string           `json:"text,omitempty"`
	Size            string           `json:"size,omitempty"`
	Weight          string           `json:"weight,omitempty"`
	Color           string           `json:"color,omitempty"`
	Align           string           `json:"align,omitempty"`
	Margin          string           `json:"margin,omitempty"`
	Wrap            bool             `json:"wrap,omitempty"`
	MaxLines        int              `json:"maxLines,omitempty"`
	Flex            *int             `json:"flex,omitempty"`
	Action          *flexAction      `json:"action,omitempty"`
	PaddingAll      string           `json:"paddingAll,omitempty"`
	CornerRadius    string           `json:"cornerRadius,omitempty"`
	BackgroundColor string           `json:"backgroundColor,omitempty"`
}

type flexAction struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type flexBubble struct {
	Type   string         `json:"type"`
	Size   string         `json:"size,omitempty"`
	Header *flexComponent `json:"header,omitempty"`
	Body   *flexComponent `json:"body"`
}

type flexCarousel struct {
	Type     string        `json:"type"`
	Contents []*flexBubble `json:"contents"`
}

const (
	headerTextColor  = "#FFFFFF"
	titleTextColor   = "#333333"
	metaTextColor    = "#666666"
	medalItemColor   = "#FFF9C4"
	defaultItemColor = "#F5F5F5"
	uriActionType    = "uri"
)

func renderCarousel(c *message.Carousel) *flexCarousel {
	carousel := &flexCarousel{Type: "carousel"}
	for _, g := range c.Groups {
		carousel.Contents = append(carousel.Contents, renderBubble(g))
	}
	return carousel
}

func renderBubble(g *message.Group) *flexBubble {
	one := 1

	header := &flexComponent{
		Type:   "box",
		Layout: "vertical",
		Contents: []*flexComponent{
			{Type: "text", Text: g.Title(), Size: "lg", Weight: "bold", Color: headerTextColor, Flex: &one},
			{Type: "text", Text: g.Summary(), Size: "sm", Color: headerTextColor, Margin: "sm"},
		},
		BackgroundColor: g.Category.Color,
		PaddingAll:      "15px",
	}

	body := &flexComponent{Type: "box", Layout: "vertical", PaddingAll: "15px"}
	for i, item := range g.Items {
		if i > 0 {
			body.Contents = append(body.Contents, &flexComponent{Type: "separator", Margin: "md"})
		}
		body.Contents = append(body.Contents, renderItem(item))
	}

	return &flexBubble{
		Type:   "bubble",
		Size:   "giga",
		Header: header,
		Body:   body,
	}
}

func renderItem(item *message.Item) *flexComponent {
	title := item.Title
	if item.Medal != "" {
		title = item.Medal + " " + title
	}

	backgroundColor := defaultItemColor
	if item.Medal != "" {
		backgroundColor = medalItemColor
	}

	return &flexComponent{
		Type:   "box",
		Layout: "vertical",
		Contents: []*flexComponent{
			{Type: "text", Text: title, Size: "md", Weight: "bold", Wrap: true, MaxLines: 2, Color: titleTextColor},
			{Type: "text", Text: item.MetaText(), Size: "xs", Color: metaTextColor, Margin: "sm"},
		},
		Action:          &flexAction{Type: uriActionType, URI: item.Link},
		PaddingAll:      "12px",
		CornerRadius:    "8px",
		BackgroundColor: backgroundColor,
	}
}
