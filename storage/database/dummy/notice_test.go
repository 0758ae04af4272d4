package dummydb_test

import (
	"sync"
	"testing"
	"time"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
	dummydb "github.com/smartstudentv6/smart-student-notices/storage/database/dummy"
	testutil "github.com/smartstudentv6/smart-student-notices/tests"
)

func newTestRepo(t *testing.T) notice.Repository {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return dummydb.NewNoticeRepository(db)
}

func TestNoticeRepository_CreateAndFilter(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	a := testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana", "luis"}, "profA", base)
	b := testutil.CreateNotice(t, repo, notice.KindSubmissionReceived, "A1", "7B", notice.RoleInstructor, []string{"profA"}, "ana", base.Add(time.Minute))
	c := testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A2", "8C", notice.RoleLearner, []string{"ana"}, "profB", base.Add(2*time.Minute))

	tests := []struct {
		name    string
		filter  notice.QueryFilter
		wantIDs []string
	}{
		{"by id", notice.QueryFilter{ID: b.ID}, []string{b.ID}},
		{"by work item", notice.QueryFilter{WorkItemID: "A1"}, []string{a.ID, b.ID}},
		{"by kind", notice.QueryFilter{Kind: notice.KindWorkItemCreated}, []string{a.ID, c.ID}},
		{"by role", notice.QueryFilter{Role: notice.RoleInstructor}, []string{b.ID}},
		{"by target", notice.QueryFilter{Target: "luis"}, []string{a.ID}},
		{"by course", notice.QueryFilter{CourseID: "8C"}, []string{c.ID}},
		{"combined", notice.QueryFilter{WorkItemID: "A1", Role: notice.RoleLearner}, []string{a.ID}},
		{"no match", notice.QueryFilter{WorkItemID: "A1", CourseID: "8C"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FilterNotices(tt.filter)
			if err != nil {
				t.Fatalf("FilterNotices() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("FilterNotices() returned %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	all, err := repo.QueryAllNotices()
	if err != nil {
		t.Fatalf("QueryAllNotices() error = %v", err)
	}
	// creation order, oldest first
	if len(all) != 3 || all[0].ID != a.ID || all[2].ID != c.ID {
		t.Errorf("QueryAllNotices() order = %v", all)
	}
}

func TestNoticeRepository_Acknowledge(t *testing.T) {
	repo := newTestRepo(t)
	n := testutil.CreateNotice(t, repo, notice.KindGradePosted, "A1", "7B", notice.RoleLearner, []string{"ana"}, "profA")

	got, err := repo.AcknowledgeNotice(n.ID, "ana")
	if err != nil {
		t.Fatalf("AcknowledgeNotice() error = %v", err)
	}
	if !got.IsAckedBy("ana") {
		t.Error("target acknowledgment not recorded")
	}

	// repeat and non-target acks leave AckedBy untouched
	if got, _ = repo.AcknowledgeNotice(n.ID, "ana"); len(got.AckedBy) != 1 {
		t.Errorf("AckedBy = %v after repeat ack, want [ana]", got.AckedBy)
	}
	if got, _ = repo.AcknowledgeNotice(n.ID, "luis"); got.IsAckedBy("luis") {
		t.Error("non-target must not enter AckedBy")
	}

	if _, err = repo.AcknowledgeNotice("no-such-id", "ana"); err != notice.ErrNotFound {
		t.Errorf("AcknowledgeNotice(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestNoticeRepository_DeleteMatching(t *testing.T) {
	repo := newTestRepo(t)
	testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana"}, "profA")
	testutil.CreateNotice(t, repo, notice.KindPendingReview, "A1", "7B", notice.RoleInstructor, []string{"profA"}, notice.SystemOriginator)
	grade := testutil.CreateNotice(t, repo, notice.KindGradePosted, "A1", "7B", notice.RoleLearner, []string{"ana"}, "profA")
	other := testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A2", "7B", notice.RoleLearner, []string{"ana"}, "profA")

	count, err := repo.DeleteNoticesMatching(notice.QueryFilter{WorkItemID: "A1", SweepableOnly: true})
	if err != nil {
		t.Fatalf("DeleteNoticesMatching() error = %v", err)
	}
	if count != 2 {
		t.Errorf("DeleteNoticesMatching() = %d, want 2", count)
	}

	rest, _ := repo.QueryAllNotices()
	if len(rest) != 2 {
		t.Fatalf("ledger has %d records, want 2", len(rest))
	}
	for _, n := range rest {
		if n.ID != grade.ID && n.ID != other.ID {
			t.Errorf("unexpected survivor %s (%s)", n.ID, n.Kind)
		}
	}
}

func TestNoticeRepository_UpsertConcurrent(t *testing.T) {
	repo := newTestRepo(t)
	filter := notice.QueryFilter{WorkItemID: "A1", Kind: notice.KindWorkItemCompleted}

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, ok, err := repo.UpsertNotice(filter, func() notice.Notice {
				return notice.Notice{
					ID:         "completion-" + string(rune('a'+i)),
					Kind:       notice.KindWorkItemCompleted,
					WorkItemID: "A1",
					Role:       notice.RoleInstructor,
					Targets:    []string{"profA"},
					Originator: notice.SystemOriginator,
					CreatedAt:  time.Now().UTC(),
					AckedBy:    []string{},
				}
			})
			if err != nil {
				t.Errorf("UpsertNotice() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("%d goroutines reported created=true, want exactly 1", created)
	}
	got, _ := repo.FilterNotices(filter)
	if len(got) != 1 {
		t.Errorf("ledger has %d completion records, want 1", len(got))
	}
}

func TestNoticeRepository_CopiesDoNotAlias(t *testing.T) {
	repo := newTestRepo(t)
	n := testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana", "luis"}, "profA")

	got, _ := repo.FilterNotices(notice.QueryFilter{ID: n.ID})
	got[0].Targets[0] = "mallory"

	again, _ := repo.FilterNotices(notice.QueryFilter{ID: n.ID})
	if again[0].Targets[0] != "ana" {
		t.Error("mutating a returned record must not leak into the store")
	}
}
