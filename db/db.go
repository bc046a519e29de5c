package db

import (
	"database/sql"
	"fmt"

	"github.com/darkkaiser/rss-feed-notifier/notifyapi"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// New 오브젝트 저장소로 사용할 SQLite 데이터베이스를 연다.
func New(path string) *sql.DB {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		m := fmt.Sprintf("DB('%s')를 여는 중에 치명적인 오류가 발생하였습니다.", path)

		notifyapi.Send(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)

		log.Panicf("%s (error:%s)", m, err)
	}

	// SQLite는 쓰기 작업을 동시에 하나만 처리한다.
	db.SetMaxOpenConns(1)

	return db
}

// Close 데이터베이스를 닫는다. 오류가 발생하면 운영자에게 알린다.
func Close(db *sql.DB) {
	if err := db.Close(); err != nil {
		m := "DB를 닫는 중에 오류가 발생하였습니다."

		log.Errorf("%s (error:%s)", m, err)

		notifyapi.Send(fmt.Sprintf("%s\r\n\r\n%s", m, err), true)
	}
}
