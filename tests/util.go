package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// FakeRoster answers course membership from a fixed map.
type FakeRoster struct {
	Members map[string][]string
	Err     error
}

func (r *FakeRoster) MembersOf(courseID string) ([]string, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Members[courseID], nil
}

// FakeWorkItems answers lifecycle questions from fixed maps.
type FakeWorkItems struct {
	States   map[string]map[string]notice.State // workItemID -> identity -> state
	Terminal map[string]bool                    // workItemID -> all targets terminal
	Err      error
}

func (w *FakeWorkItems) LifecycleState(workItemID, identity string) (notice.State, error) {
	if w.Err != nil {
		return "", w.Err
	}
	if states, ok := w.States[workItemID]; ok {
		if s, ok := states[identity]; ok {
			return s, nil
		}
	}
	return notice.StateOpen, nil
}

func (w *FakeWorkItems) AllTargetsTerminal(workItemID string) (bool, error) {
	if w.Err != nil {
		return false, w.Err
	}
	return w.Terminal[workItemID], nil
}

// FakeSubmissions serves a fixed submission log.
type FakeSubmissions struct {
	Subs map[string][]notice.Submission
	Err  error
}

func (s *FakeSubmissions) ListSubmissions(workItemID string) ([]notice.Submission, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Subs[workItemID], nil
}

// FakeBroadcaster records every event it is handed.
type FakeBroadcaster struct {
	mu     sync.Mutex
	Events []notice.Event
}

func (b *FakeBroadcaster) Broadcast(ev notice.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, ev)
}

func (b *FakeBroadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Events)
}

// TestLogger funnels service logs into the test output.
type TestLogger struct {
	T *testing.T
}

func (l TestLogger) Enable(bool) {}
func (l TestLogger) Debug(msg string, args ...interface{}) {
	l.T.Logf("DEBUG: %s %v", msg, args)
}
func (l TestLogger) Info(msg string, args ...interface{}) { l.T.Logf("INFO: %s %v", msg, args) }
func (l TestLogger) Warn(msg string, args ...interface{}) { l.T.Logf("WARN: %s %v", msg, args) }
func (l TestLogger) Error(msg string, args ...interface{}) {
	l.T.Logf("ERROR: %s %v", msg, args)
}

// CreateNotice stores a record with sensible defaults directly in the repo.
func CreateNotice(
	t *testing.T,
	repo notice.Repository,
	kind notice.Kind,
	workItemID, courseID string,
	role notice.Role,
	targets []string,
	originator string,
	createdAt ...time.Time,
) notice.Notice {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	n := notice.Notice{
		ID:           uuid.New().String(),
		Kind:         kind,
		WorkItemID:   workItemID,
		WorkItemKind: notice.WorkItemAssignment,
		Role:         role,
		Targets:      targets,
		Originator:   originator,
		CourseID:     courseID,
		Subject:      "Test item",
		CreatedAt:    tstamp,
		AckedBy:      []string{},
	}
	n, err := repo.CreateNotice(n)
	if err != nil {
		t.Fatalf("CreateNotice() failed: %v", err)
	}
	return n
}
