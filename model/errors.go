package model

import "fmt"

type ValidationReason int

const (
	InvalidURL ValidationReason = iota
	DuplicateFeed
	NotAFeed
	TooManyFeeds
	InvalidIndex
)

func (r ValidationReason) String() string {
	switch r {
	case InvalidURL:
		return "invalid url"
	case DuplicateFeed:
		return "duplicate feed"
	case NotAFeed:
		return "not a feed"
	case TooManyFeeds:
		return "too many feeds"
	case InvalidIndex:
		return "invalid index"
	}
	return "unknown"
}

// ValidationError 피드 추가/삭제 요청이 유효하지 않음
type ValidationError struct {
	Reason ValidationReason
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError 목록에 없는 번호의 피드
type NotFoundError struct {
	Index int
	Count int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("feed #%d not found (%d feeds)", e.Index, e.Count)
}
