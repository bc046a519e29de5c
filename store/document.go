package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const maxConflictRetries = 5

// Load JSON 문서를 읽어 v에 채우고 버전을 반환한다. 문서가 없으면 init으로 v를 초기화하고 버전 0을 반환한다.
func Load[T any](ctx context.Context, s ObjectStore, key string, init func() *T) (*T, int64, error) {
	data, version, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) == true {
			return init(), 0, nil
		}
		return nil, 0, asStoreError("get", key, err)
	}

	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, 0, &StoreError{Op: "decode", Key: key, Err: err}
	}

	return v, version, nil
}

// Update 문서를 읽고 fn으로 변경한 후, 읽었던 버전을 기준으로 다시 저장한다.
// 다른 호출자가 먼저 저장하여 버전이 충돌하면 문서를 다시 읽어 fn을 재적용한다.
// fn이 오류를 반환하면 저장하지 않고 그 오류를 그대로 반환한다.
func Update[T any](ctx context.Context, s ObjectStore, key string, init func() *T, fn func(*T) error) (*T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0

	var result *T
	operation := func() error {
		v, version, err := Load(ctx, s, key, init)
		if err != nil {
			return backoff.Permanent(err)
		}

		if err := fn(v); err != nil {
			return backoff.Permanent(err)
		}

		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return backoff.Permanent(&StoreError{Op: "encode", Key: key, Err: err})
		}

		if _, err = s.Put(ctx, key, data, version); err != nil {
			if errors.Is(err, ErrVersionConflict) == true {
				return err
			}
			return backoff.Permanent(asStoreError("put", key, err))
		}

		result = v

		return nil
	}

	notify := func(err error, d time.Duration) {
		log.WithFields(log.Fields{"key": key, "retry_after": d}).Warnf("문서 저장 중에 버전 충돌이 발생하여 다시 시도합니다. (error:%s)", err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, maxConflictRetries), ctx), notify); err != nil {
		return nil, err
	}

	return result, nil
}

func asStoreError(op, key string, err error) error {
	var storeErr *StoreError
	if errors.As(err, &storeErr) == true {
		return err
	}
	return &StoreError{Op: op, Key: key, Err: err}
}
