package notice_test

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
	testutil "github.com/smartstudentv6/smart-student-notices/tests"
)

func TestDigestFor(t *testing.T) {
	core.LoadConfig()
	svc, repo, _ := newTestService(t)
	to := mail.Address{Name: "Ana", Address: "ana@example.com"}

	msg, err := svc.DigestFor("ana", notice.RoleLearner, to)
	if err != nil {
		t.Fatalf("DigestFor() error = %v", err)
	}
	if msg != nil {
		t.Fatalf("DigestFor() = %+v, want nil when nothing is unread", msg)
	}

	testutil.CreateNotice(t, repo, notice.KindWorkItemCreated, "A1", "7B", notice.RoleLearner, []string{"ana"}, "profA")
	testutil.CreateNotice(t, repo, notice.KindGradePosted, "A2", "7B", notice.RoleLearner, []string{"ana"}, "profA")

	msg, err = svc.DigestFor("ana", notice.RoleLearner, to)
	if err != nil {
		t.Fatalf("DigestFor() error = %v", err)
	}
	if msg == nil {
		t.Fatal("DigestFor() = nil, want a message")
	}
	if msg.Subject != "You have 2 unread notifications" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !msg.HasRecipients() {
		t.Error("message has no recipients")
	}

	if err := msg.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !msg.HasContent() {
		t.Fatal("rendered message has no content")
	}
	for _, want := range []string{"ana", "2 unread", "grade_posted"} {
		if !strings.Contains(msg.TextContent, want) {
			t.Errorf("TextContent missing %q:\n%s", want, msg.TextContent)
		}
	}
}
