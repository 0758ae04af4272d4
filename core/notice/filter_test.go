package notice_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
	testutil "github.com/smartstudentv6/smart-student-notices/tests"
)

func TestVisibleFor(t *testing.T) {
	svc, repo, f := newTestService(t)

	banner := testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana", "luis"}, "profA")
	graded := testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A2", "7B", notice.RoleLearner, []string{"ana"}, "profA")
	acked := testutil.CreateNotice(t, repo, notice.KindGradePosted, "A3", "7B", notice.RoleLearner, []string{"ana"}, "profA")
	review := testutil.CreateNotice(t, repo, notice.KindPendingReview, "A1", "7B", notice.RoleInstructor, []string{"profA"}, notice.SystemOriginator)

	// ana already graded on A2; A1 still open
	f.workItems.States["A2"] = map[string]notice.State{"ana": notice.StateGraded}
	if err := svc.Acknowledge(acked.ID, "ana"); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	tests := []struct {
		name    string
		viewer  string
		role    notice.Role
		wantIDs map[string]bool
	}{
		{
			name:   "target sees unacked open banner only",
			viewer: "ana", role: notice.RoleLearner,
			wantIDs: map[string]bool{banner.ID: true},
		},
		{
			name:   "non-target sees nothing",
			viewer: "marco", role: notice.RoleLearner,
			wantIDs: map[string]bool{},
		},
		{
			name:   "role scope excludes learner records from instructors",
			viewer: "ana", role: notice.RoleInstructor,
			wantIDs: map[string]bool{},
		},
		{
			name:   "instructor sees the standing review reminder",
			viewer: "profA", role: notice.RoleInstructor,
			wantIDs: map[string]bool{review.ID: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.VisibleFor(tt.viewer, tt.role)
			if err != nil {
				t.Fatalf("VisibleFor() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("VisibleFor() returned %d records, want %d: %+v", len(got), len(tt.wantIDs), got)
			}
			for _, n := range got {
				if !tt.wantIDs[n.ID] {
					t.Errorf("unexpected record %s (%s)", n.ID, n.Kind)
				}
			}
		})
	}

	// graded banner stays hidden for ana but remains in the ledger for luis
	if all, _ := repo.QueryAllNotices(); len(all) != 4 {
		t.Errorf("visibility must not mutate the ledger; have %d records, want 4", len(all))
	}
	_ = graded
}

func TestVisibleFor_lookupErrorHides(t *testing.T) {
	svc, repo, f := newTestService(t)
	testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana"}, "profA")
	f.workItems.Err = errors.New("dashboard unreachable")

	got, err := svc.VisibleFor("ana", notice.RoleLearner)
	if err != nil {
		t.Fatalf("VisibleFor() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unresolvable lifecycle must hide the banner, got %d records", len(got))
	}
}
