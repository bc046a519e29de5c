package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/huandu/go-sqlbuilder"
	_ "github.com/mattn/go-sqlite3"
)

const objectTableName = "rss_notifier_object"

// SQLiteStore SQLite 테이블 하나를 키-값 오브젝트 저장소로 사용한다.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, &StoreError{Op: "init", Key: objectTableName, Err: err}
	}
	return s, nil
}

//noinspection GoUnhandledErrorResult
func (s *SQLiteStore) createTables() error {
	stmt, err := s.db.Prepare(`
		CREATE TABLE IF NOT EXISTS ` + objectTableName + ` (
			object_key	VARCHAR(200) PRIMARY KEY NOT NULL UNIQUE,
			data		BLOB NOT NULL,
			version		INTEGER NOT NULL,
			updated_at	DATETIME NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec()
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("data", "version").From(objectTableName).Where(sb.Equal("object_key", key))
	query, args := sb.Build()

	var data []byte
	var version int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) == true {
			return nil, 0, ErrNotFound
		}
		return nil, 0, &StoreError{Op: "get", Key: key, Err: err}
	}

	return data, version, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	newVersion := expectedVersion + 1
	now := time.Now().UTC()

	var query string
	var args []interface{}
	if expectedVersion == 0 {
		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertIgnoreInto(objectTableName).
			Cols("object_key", "data", "version", "updated_at").
			Values(key, data, newVersion, now)
		query, args = ib.Build()
	} else {
		ub := sqlbuilder.SQLite.NewUpdateBuilder()
		ub.Update(objectTableName).
			Set(
				ub.Assign("data", data),
				ub.Assign("version", newVersion),
				ub.Assign("updated_at", now),
			).
			Where(
				ub.Equal("object_key", key),
				ub.Equal("version", expectedVersion),
			)
		query, args = ub.Build()
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &StoreError{Op: "put", Key: key, Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "put", Key: key, Err: err}
	}
	if affected == 0 {
		return 0, ErrVersionConflict
	}

	return newVersion, nil
}
