package main

import (
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
	dummydb "github.com/smartstudentv6/smart-student-notices/storage/database/dummy"
	testutil "github.com/smartstudentv6/smart-student-notices/tests"
)

type fakeEmailService struct {
	sent []*core.EmailMessage
}

func (s *fakeEmailService) SendMessages(messages ...*core.EmailMessage) {
	s.sent = append(s.sent, messages...)
}

func newTestCLI(t *testing.T) (*commandLine, notice.Repository, *testutil.FakeWorkItems) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	repo := dummydb.NewNoticeRepository(db)
	workItems := &testutil.FakeWorkItems{Terminal: make(map[string]bool)}
	svc := notice.NewService(
		repo,
		&testutil.FakeRoster{},
		workItems,
		&testutil.FakeSubmissions{},
		nil,
		testutil.TestLogger{T: t},
	)
	return &commandLine{svc: svc, repo: repo, email: &fakeEmailService{}}, repo, workItems
}

func TestCommandLine_usage(t *testing.T) {
	cli, _, _ := newTestCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"admin"}},
		{"unknown command", []string{"admin", "frobnicate"}},
		{"seed without course", []string{"admin", "seed"}},
		{"digest without viewer", []string{"admin", "digest", "-email", "ana@example.com"}},
		{"digest with bad role", []string{"admin", "digest", "-viewer", "ana", "-email", "ana@example.com", "-role", "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(tt.args); err != errHelp {
				t.Errorf("run(%v) error = %v, want errHelp", tt.args, err)
			}
		})
	}
}

func TestCommandLine_migrate(t *testing.T) {
	cli, _, _ := newTestCLI(t)
	cli.db = &sqlx.DB{DB: new(sql.DB)}
	cli.engine = "sqlite"

	origMigrate := migrateFunc
	defer func() { migrateFunc = origMigrate }()

	var gotEngine string
	migrateFunc = func(db *sql.DB, engine string) error {
		gotEngine = engine
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("run(migrate) error = %v", err)
	}
	if gotEngine != "sqlite" {
		t.Errorf("migrate engine = %q, want sqlite", gotEngine)
	}
}

func TestCommandLine_reconcile(t *testing.T) {
	cli, repo, workItems := newTestCLI(t)
	testutil.CreateNotice(t, repo, notice.KindPendingReview, "A1", "7B", notice.RoleInstructor, []string{"profA"}, notice.SystemOriginator)
	workItems.Terminal["A1"] = true

	if err := cli.run([]string{"admin", "reconcile"}); err != nil {
		t.Fatalf("run(reconcile) error = %v", err)
	}
	if rest, _ := repo.QueryAllNotices(); len(rest) != 0 {
		t.Errorf("ledger has %d records after reconcile, want 0", len(rest))
	}
}

func TestCommandLine_digest(t *testing.T) {
	core.LoadConfig()
	cli, repo, _ := newTestCLI(t)
	email := cli.email.(*fakeEmailService)

	origWait := digestSendWait
	digestSendWait = 0
	defer func() { digestSendWait = origWait }()

	args := []string{"admin", "digest", "-viewer", "ana", "-email", "ana@example.com"}
	if err := cli.run(args); err != nil {
		t.Fatalf("run(digest) error = %v", err)
	}
	if len(email.sent) != 0 {
		t.Fatalf("sent %d messages with nothing unread, want 0", len(email.sent))
	}

	testutil.CreateNotice(t, repo, notice.KindGradePosted, "A1", "7B", notice.RoleLearner, []string{"ana"}, "profA")

	if err := cli.run(args); err != nil {
		t.Fatalf("run(digest) error = %v", err)
	}
	if len(email.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(email.sent))
	}
	if got := email.sent[0].Subject; got != "You have 1 unread notifications" {
		t.Errorf("Subject = %q", got)
	}
}

func TestCommandLine_seed(t *testing.T) {
	cli, repo, _ := newTestCLI(t)

	if err := cli.run([]string{"admin", "seed", "-course", "7B"}); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	seeded, _ := repo.QueryAllNotices()
	if len(seeded) != 3 {
		t.Fatalf("seeded %d notices, want 3", len(seeded))
	}
	for _, n := range seeded {
		if n.CourseID != "7B" {
			t.Errorf("seeded notice %s has course %q, want 7B", n.ID, n.CourseID)
		}
	}
}
