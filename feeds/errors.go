package feeds

import (
	"errors"
	"fmt"
)

type FetchErrorKind int

const (
	// 시간초과, 5xx, 연결끊김 등 재시도하면 성공할 수 있는 실패
	Transient FetchErrorKind = iota

	// 404, 잘못된 URL 등 재시도해도 성공할 수 없는 실패
	Permanent
)

func (k FetchErrorKind) String() string {
	if k == Transient {
		return "transient"
	}
	return "permanent"
}

type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed fetch %s (%s, HTTP %d): %s", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("feed fetch %s (%s): %s", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError 피드의 내용을 RSS 2.0 또는 Atom으로 해석할 수 없음
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("feed parse %s: %s", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTransient 재시도할 가치가 있는 오류인지 확인한다.
func IsTransient(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) == true {
		return fetchErr.Kind == Transient
	}
	return false
}
