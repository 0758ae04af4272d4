package dummydb

import (
	"sync"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

type (
	DB struct {
		notice *noticeTable
	}

	noticeTable struct {
		sync.RWMutex
		table map[string]*notice.Notice
	}
)

func Open() (*DB, error) {
	db := &DB{
		notice: &noticeTable{table: make(map[string]*notice.Notice)},
	}
	return db, nil
}
