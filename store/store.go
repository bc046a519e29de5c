// Package store 설정 문서와 알림 이력 문서를 통째로 읽고 쓰는 오브젝트 저장소를 제공한다.
//
// 저장소는 필드 단위 갱신을 지원하지 않는다. 대신 모든 문서는 버전을 가지며 Put은
// 호출자가 읽었던 버전과 현재 버전이 같을 때만 성공한다(compare-and-swap).
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("store: object not found")
	ErrVersionConflict = errors.New("store: version conflict")
)

// ObjectStore 키 단위로 문서 전체를 읽고 쓰는 저장소
type ObjectStore interface {
	// Get 문서와 현재 버전을 반환한다. 문서가 없으면 ErrNotFound를 반환한다.
	Get(ctx context.Context, key string) ([]byte, int64, error)

	// Put expectedVersion이 현재 버전과 같을 때만 문서를 저장하고 새로운 버전을 반환한다.
	// expectedVersion이 0이면 문서가 존재하지 않을 때만 생성한다.
	Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error)
}

// StoreError 저장소 입출력 실패
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %s", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
