package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/store"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// ContentHash 제목과 링크로 기사의 해시를 생성한다.
func ContentHash(title, link string) string {
	sum := sha256.Sum256([]byte(title + link))
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}

// HistorySnapshot 특정 시점의 알림 이력에 대한 중복 확인용 색인
type HistorySnapshot struct {
	links  map[string]struct{}
	hashes map[string]struct{}
}

func NewHistorySnapshot(entries []*HistoryEntry) *HistorySnapshot {
	s := &HistorySnapshot{
		links:  make(map[string]struct{}, len(entries)),
		hashes: make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		s.links[e.Link] = struct{}{}
		if e.ContentHash != "" {
			s.hashes[e.ContentHash] = struct{}{}
		}
	}
	return s
}

func (s *HistorySnapshot) ContainsLink(link string) bool {
	_, exists := s.links[link]
	return exists
}

func (s *HistorySnapshot) ContainsHash(hash string) bool {
	_, exists := s.hashes[hash]
	return exists
}

func (s *HistorySnapshot) Len() int {
	return len(s.links)
}

//
// HistoryStore
//
type HistoryStore struct {
	store store.ObjectStore

	maxHistorySize int
	cleanupDays    int

	now func() time.Time
}

func NewHistoryStore(s store.ObjectStore, maxHistorySize, cleanupDays int) *HistoryStore {
	return &HistoryStore{
		store: s,

		maxHistorySize: maxHistorySize,
		cleanupDays:    cleanupDays,

		now: time.Now,
	}
}

func (s *HistoryStore) Document(ctx context.Context) (*HistoryDocument, error) {
	d, _, err := store.Load(ctx, s.store, HistoryDocumentKey, newHistoryDocument)
	return d, err
}

// LoadAll 알림 시각 오름차순으로 모든 이력을 반환한다.
func (s *HistoryStore) LoadAll(ctx context.Context) ([]*HistoryEntry, error) {
	d, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return d.History, nil
}

// Recent 최근에 알림이 발송된 순서로 최대 n개의 이력을 반환한다.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]*HistoryEntry, error) {
	entries, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	entries = lo.Reverse(append([]*HistoryEntry(nil), entries...))
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (s *HistoryStore) Contains(ctx context.Context, link string) (bool, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return snapshot.ContainsLink(link), nil
}

func (s *HistoryStore) Snapshot(ctx context.Context) (*HistorySnapshot, error) {
	entries, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewHistorySnapshot(entries), nil
}

// Append 이력을 추가한 후 보관 기간과 최대 개수 제한을 적용한다.
// 이미 같은 링크의 이력이 있으면 추가하지 않는다. 실제로 추가된 이력의 개수를 반환한다.
// 저장에 실패하면 *store.StoreError를 반환한다.
func (s *HistoryStore) Append(ctx context.Context, entries []*HistoryEntry) (int, error) {
	var appended int

	_, err := store.Update(ctx, s.store, HistoryDocumentKey, newHistoryDocument, func(d *HistoryDocument) error {
		appended = 0

		snapshot := NewHistorySnapshot(d.History)
		for _, e := range entries {
			if snapshot.ContainsLink(e.Link) == true {
				continue
			}
			snapshot.links[e.Link] = struct{}{}

			d.History = append(d.History, e)
			appended++
		}

		now := s.now().UTC()
		removed := s.cleanup(d, now)
		updateHistoryStatistics(d, now)
		d.Version = DocumentVersion
		d.UpdatedAt = now

		if removed > 0 {
			log.WithFields(log.Fields{"removed": removed, "remaining": len(d.History)}).Info("오래된 알림 이력을 정리하였습니다.")
		}

		return nil
	})
	if err != nil {
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) == false {
			err = &store.StoreError{Op: "update", Key: HistoryDocumentKey, Err: err}
		}
		return 0, err
	}

	return appended, nil
}

// cleanup 보관 기간이 지난 이력을 먼저 삭제하고, 그래도 최대 개수를 넘으면 오래된 것부터 삭제한다.
func (s *HistoryStore) cleanup(d *HistoryDocument, now time.Time) int {
	before := len(d.History)

	if s.cleanupDays > 0 {
		cutoff := now.AddDate(0, 0, -s.cleanupDays)
		d.History = lo.Filter(d.History, func(e *HistoryEntry, _ int) bool {
			return e.NotifiedAt.Before(cutoff) == false
		})
	}

	if s.maxHistorySize > 0 && len(d.History) > s.maxHistorySize {
		sort.SliceStable(d.History, func(i, j int) bool {
			return d.History[i].NotifiedAt.Before(d.History[j].NotifiedAt)
		})
		d.History = d.History[len(d.History)-s.maxHistorySize:]
	}

	removed := before - len(d.History)
	if removed > 0 {
		d.Statistics.LastCleanup = &now
	}

	return removed
}

func updateHistoryStatistics(d *HistoryDocument, now time.Time) {
	d.Statistics.TotalNotifications = len(d.History)
	d.Statistics.CategoryStats = lo.CountValuesBy(d.History, func(e *HistoryEntry) string {
		return e.Category
	})

	if len(d.History) == 0 {
		d.Statistics.OldestRecord = nil
		d.Statistics.AvgDailyNotifications = 0
		return
	}

	oldest := lo.MinBy(d.History, func(a, b *HistoryEntry) bool {
		return a.NotifiedAt.Before(b.NotifiedAt)
	}).NotifiedAt
	d.Statistics.OldestRecord = &oldest

	if days := int(now.Sub(oldest).Hours() / 24); days > 0 {
		d.Statistics.AvgDailyNotifications = round(float64(len(d.History))/float64(days), 1)
	}
}
