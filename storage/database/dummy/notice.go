package dummydb

import (
	"sort"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// noticeRepository is the in-process ledger store: a single owner serializes
// every read-modify-write cycle behind one lock, which removes the lost-update
// race of the shared-document design.
type noticeRepository struct {
	db *noticeTable
}

func NewNoticeRepository(db *DB) notice.Repository {
	return &noticeRepository{db: db.notice}
}

// copyNotice detaches slices so callers can never alias table state.
func copyNotice(n *notice.Notice) notice.Notice {
	out := *n
	out.Targets = append([]string(nil), n.Targets...)
	out.AckedBy = append([]string(nil), n.AckedBy...)
	return out
}

func (repo *noticeRepository) query(filter notice.QueryFilter) []notice.Notice {
	notices := make([]notice.Notice, 0, len(repo.db.table))
	for _, n := range repo.db.table {
		if filter.Match(*n) {
			notices = append(notices, copyNotice(n))
		}
	}
	sort.Slice(notices, func(i, j int) bool {
		if notices[i].CreatedAt.Equal(notices[j].CreatedAt) {
			return notices[i].ID < notices[j].ID
		}
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})
	return notices
}

func (repo *noticeRepository) CreateNotice(n notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[n.ID] = &n
	return copyNotice(&n), nil
}

func (repo *noticeRepository) QueryAllNotices() ([]notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(notice.QueryFilter{}), nil
}

func (repo *noticeRepository) FilterNotices(filter notice.QueryFilter) ([]notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(filter), nil
}

func (repo *noticeRepository) AcknowledgeNotice(id, identity string) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notice.Notice{}, notice.ErrNotFound
	}
	if n.HasTarget(identity) && !n.IsAckedBy(identity) {
		n.AckedBy = append(n.AckedBy, identity)
	}
	return copyNotice(n), nil
}

func (repo *noticeRepository) DeleteNoticesMatching(filter notice.QueryFilter) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for id, n := range repo.db.table {
		if filter.Match(*n) {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}

func (repo *noticeRepository) UpsertNotice(filter notice.QueryFilter, factory func() notice.Notice) (notice.Notice, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// check-then-insert under the same lock
	for _, n := range repo.db.table {
		if filter.Match(*n) {
			return copyNotice(n), false, nil
		}
	}
	n := factory()
	repo.db.table[n.ID] = &n
	return copyNotice(&n), true, nil
}
