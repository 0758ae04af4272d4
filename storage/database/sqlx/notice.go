package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// noticeRepository persists the ledger in SQL. Every mutation runs inside a
// transaction so the read-modify-write cycle is the unit of serialization;
// the singleton constraint is additionally enforced by a partial unique index,
// which makes the check-then-insert safe across processes.
type noticeRepository struct {
	db     *sqlx.DB
	engine string
	log    logger
}

type logger interface {
	Error(msg string, args ...interface{})
}

func NewNoticeRepository(db *sqlx.DB, engine string, log logger) notice.Repository {
	return &noticeRepository{db: db, engine: engine, log: log}
}

type noticeRow struct {
	ID           string    `db:"id"`
	Kind         string    `db:"kind"`
	WorkItemID   string    `db:"work_item_id"`
	WorkItemKind string    `db:"work_item_kind"`
	Role         string    `db:"role"`
	Targets      string    `db:"targets"`
	Originator   string    `db:"originator"`
	CourseID     string    `db:"course_id"`
	Subject      string    `db:"subject"`
	CreatedAt    time.Time `db:"created_at"`
	AckedBy      string    `db:"acked_by"`
	Payload      string    `db:"payload"`
}

const insertNotice = `
INSERT INTO notices (id, kind, work_item_id, work_item_kind, role, targets, originator, course_id, subject, created_at, acked_by, payload)
VALUES (:id, :kind, :work_item_id, :work_item_kind, :role, :targets, :originator, :course_id, :subject, :created_at, :acked_by, :payload)`

func toRow(n notice.Notice) (noticeRow, error) {
	targets, err := json.Marshal(n.Targets)
	if err != nil {
		return noticeRow{}, errors.Wrap(err, "encoding targets")
	}
	acked, err := json.Marshal(n.AckedBy)
	if err != nil {
		return noticeRow{}, errors.Wrap(err, "encoding acked_by")
	}
	var payload []byte
	if n.Payload != nil {
		if payload, err = json.Marshal(n.Payload); err != nil {
			return noticeRow{}, errors.Wrap(err, "encoding payload")
		}
	}
	return noticeRow{
		ID:           n.ID,
		Kind:         string(n.Kind),
		WorkItemID:   n.WorkItemID,
		WorkItemKind: string(n.WorkItemKind),
		Role:         string(n.Role),
		Targets:      string(targets),
		Originator:   n.Originator,
		CourseID:     n.CourseID,
		Subject:      n.Subject,
		CreatedAt:    n.CreatedAt.UTC(),
		AckedBy:      string(acked),
		Payload:      string(payload),
	}, nil
}

// fromRow decodes a stored row. A row that fails to parse is reported as such;
// callers skip it — the ledger is a derived view, not the system of record.
func fromRow(row noticeRow) (notice.Notice, error) {
	n := notice.Notice{
		ID:           row.ID,
		Kind:         notice.Kind(row.Kind),
		WorkItemID:   row.WorkItemID,
		WorkItemKind: notice.WorkItemKind(row.WorkItemKind),
		Role:         notice.Role(row.Role),
		Originator:   row.Originator,
		CourseID:     row.CourseID,
		Subject:      row.Subject,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Targets), &n.Targets); err != nil {
		return notice.Notice{}, errors.Wrap(err, "decoding targets")
	}
	if err := json.Unmarshal([]byte(row.AckedBy), &n.AckedBy); err != nil {
		return notice.Notice{}, errors.Wrap(err, "decoding acked_by")
	}
	p, err := notice.DecodePayload(n.Kind, []byte(row.Payload))
	if err != nil {
		return notice.Notice{}, err
	}
	n.Payload = p
	return n, nil
}

func (repo *noticeRepository) selectRows(q sqlx.Queryer, filter notice.QueryFilter) ([]notice.Notice, error) {
	query := "SELECT * FROM notices"
	var (
		where []string
		args  []interface{}
	)
	if filter.ID != "" {
		where, args = append(where, "id = ?"), append(args, filter.ID)
	}
	if filter.WorkItemID != "" {
		where, args = append(where, "work_item_id = ?"), append(args, filter.WorkItemID)
	}
	if filter.Kind != "" {
		where, args = append(where, "kind = ?"), append(args, string(filter.Kind))
	}
	if filter.Role != "" {
		where, args = append(where, "role = ?"), append(args, string(filter.Role))
	}
	if filter.CourseID != "" {
		where, args = append(where, "course_id = ?"), append(args, filter.CourseID)
	}
	if filter.SweepableOnly {
		where, args = append(where, "kind <> ?"), append(args, string(notice.KindGradePosted))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	var rows []noticeRow
	if err := sqlx.Select(q, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}

	notices := make([]notice.Notice, 0, len(rows))
	for _, row := range rows {
		n, err := fromRow(row)
		if err != nil {
			repo.log.Error("skipping corrupt notice row "+row.ID, err)
			continue
		}
		// target membership is checked on the decoded JSON, not in SQL
		if filter.Target != "" && !n.HasTarget(filter.Target) {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}

func (repo *noticeRepository) CreateNotice(n notice.Notice) (notice.Notice, error) {
	row, err := toRow(n)
	if err != nil {
		return notice.Notice{}, err
	}
	if _, err := repo.db.NamedExec(insertNotice, row); err != nil {
		return notice.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return n, nil
}

func (repo *noticeRepository) QueryAllNotices() ([]notice.Notice, error) {
	return repo.selectRows(repo.db, notice.QueryFilter{})
}

func (repo *noticeRepository) FilterNotices(filter notice.QueryFilter) ([]notice.Notice, error) {
	return repo.selectRows(repo.db, filter)
}

func (repo *noticeRepository) AcknowledgeNotice(id, identity string) (notice.Notice, error) {
	var out notice.Notice
	err := repo.inTx(func(tx *sqlx.Tx) error {
		query := "SELECT * FROM notices WHERE id = ?"
		if repo.engine == "postgres" {
			query += " FOR UPDATE"
		}

		var row noticeRow
		if err := tx.Get(&row, tx.Rebind(query), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notice.ErrNotFound
			}
			return errors.Wrap(err, "loading notice")
		}

		n, err := fromRow(row)
		if err != nil {
			return err
		}
		if n.HasTarget(identity) && !n.IsAckedBy(identity) {
			n.AckedBy = append(n.AckedBy, identity)
			acked, err := json.Marshal(n.AckedBy)
			if err != nil {
				return errors.Wrap(err, "encoding acked_by")
			}
			if _, err := tx.Exec(tx.Rebind("UPDATE notices SET acked_by = ? WHERE id = ?"), string(acked), id); err != nil {
				return errors.Wrap(err, "updating acknowledgment")
			}
		}
		out = n
		return nil
	})
	return out, err
}

func (repo *noticeRepository) DeleteNoticesMatching(filter notice.QueryFilter) (int, error) {
	var count int
	err := repo.inTx(func(tx *sqlx.Tx) error {
		// resolve the predicate in Go (it may involve decoded targets), then
		// delete by id
		matches, err := repo.selectRows(tx, filter)
		if err != nil {
			return err
		}
		for _, n := range matches {
			res, err := tx.Exec(tx.Rebind("DELETE FROM notices WHERE id = ?"), n.ID)
			if err != nil {
				return errors.Wrap(err, "deleting notice")
			}
			if affected, err := res.RowsAffected(); err == nil {
				count += int(affected)
			}
		}
		return nil
	})
	return count, err
}

func (repo *noticeRepository) UpsertNotice(filter notice.QueryFilter, factory func() notice.Notice) (notice.Notice, bool, error) {
	existing, err := repo.FilterNotices(filter)
	if err != nil {
		return notice.Notice{}, false, err
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}

	n := factory()
	row, err := toRow(n)
	if err != nil {
		return notice.Notice{}, false, err
	}
	if _, err := repo.db.NamedExec(insertNotice, row); err != nil {
		if isUniqueViolation(err) {
			// another writer won the race; surface their record
			existing, ferr := repo.FilterNotices(filter)
			if ferr == nil && len(existing) > 0 {
				return existing[0], false, nil
			}
		}
		return notice.Notice{}, false, errors.Wrap(err, "inserting notice")
	}
	return n, true, nil
}

func (repo *noticeRepository) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
