package store

import (
	"context"
	"sync"
)

type memoryObject struct {
	data    []byte
	version int64
}

// MemoryStore 프로세스 메모리에 문서를 보관하는 ObjectStore
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.objects[key]
	if exists == false {
		return nil, 0, ErrNotFound
	}

	return append([]byte(nil), o.data...), o.version, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if o := s.objects[key]; o.version != expectedVersion {
		return 0, ErrVersionConflict
	}

	newVersion := expectedVersion + 1
	s.objects[key] = memoryObject{
		data:    append([]byte(nil), data...),
		version: newVersion,
	}

	return newVersion, nil
}
