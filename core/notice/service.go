package notice

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// errors
	ErrNotFound = errors.New("notice not found")
	// ErrNoRecipients marks an emission whose target set resolved empty.
	// It is a suppression, not a fault: callers log and move on.
	ErrNoRecipients = errors.New("no recipients resolved")
	// ErrDuplicateSuppressed marks a singleton emission that found an active
	// record already in place. A no-op, not a fault.
	ErrDuplicateSuppressed = errors.New("an active notice already exists")

	// mockable
	nowFunc = time.Now
	newID   = func() string { return uuid.New().String() }
)

type (
	// Repository is the ledger store: the only component that performs the
	// physical read-modify-write cycle against shared storage. Every
	// implementation serializes its mutations internally.
	Repository interface {
		CreateNotice(n Notice) (Notice, error)
		QueryAllNotices() ([]Notice, error)
		// FilterNotices applies AND operation on available QueryFilter fields.
		FilterNotices(filter QueryFilter) ([]Notice, error)
		// AcknowledgeNotice appends identity to the record's AckedBy iff the
		// identity is a target and has not acknowledged yet; it returns the
		// resulting record. Unknown ids yield ErrNotFound.
		AcknowledgeNotice(id, identity string) (Notice, error)
		DeleteNoticesMatching(filter QueryFilter) (int, error)
		// UpsertNotice atomically checks the filter and inserts the record
		// built by factory only when no match exists. The bool reports whether
		// a record was created.
		UpsertNotice(filter QueryFilter, factory func() Notice) (Notice, bool, error)
	}

	// Roster answers which identities belong to a course.
	Roster interface {
		MembersOf(courseID string) ([]string, error)
	}

	// WorkItems answers lifecycle questions about external work items.
	WorkItems interface {
		LifecycleState(workItemID, identity string) (State, error)
		AllTargetsTerminal(workItemID string) (bool, error)
	}

	// Submissions is the external submission log feeding the completion checks.
	Submissions interface {
		ListSubmissions(workItemID string) ([]Submission, error)
	}

	// Event is the fire-and-forget invalidation signal broadcast after every
	// mutation so viewer-side caches re-read.
	Event struct {
		Op         string    `json:"op"` // emit, ack, sweep
		NoticeID   string    `json:"notice_id,omitempty"`
		Kind       Kind      `json:"kind,omitempty"`
		WorkItemID string    `json:"work_item_id,omitempty"`
		CourseID   string    `json:"course_id,omitempty"`
		At         time.Time `json:"at"`
	}

	// Broadcaster delivers invalidation events. Delivery is best effort with
	// no ordering guarantee across processes; viewers eventually re-read.
	Broadcaster interface {
		Broadcast(ev Event)
	}
)

type logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Service implements the notification ledger: emission rules, per-viewer
// visibility and counting, acknowledgment, and the lifecycle reconciler.
type Service struct {
	repo        Repository
	roster      Roster
	workItems   WorkItems
	submissions Submissions
	broadcaster Broadcaster
	log         logger
}

func NewService(repo Repository, roster Roster, workItems WorkItems, submissions Submissions, bc Broadcaster, log logger) *Service {
	return &Service{
		repo:        repo,
		roster:      roster,
		workItems:   workItems,
		submissions: submissions,
		broadcaster: bc,
		log:         log,
	}
}

func (svc *Service) newNotice(kind Kind, wi WorkItem, role Role, targets []string, originator string, payload Payload) Notice {
	return Notice{
		ID:           newID(),
		Kind:         kind,
		WorkItemID:   wi.ID,
		WorkItemKind: wi.Kind,
		Role:         role,
		Targets:      targets,
		Originator:   originator,
		CourseID:     wi.CourseID,
		Subject:      wi.Subject,
		CreatedAt:    nowFunc().UTC(),
		AckedBy:      []string{},
		Payload:      payload,
	}
}

func (svc *Service) broadcast(op string, n Notice) {
	if svc.broadcaster == nil {
		return
	}
	svc.broadcaster.Broadcast(Event{
		Op:         op,
		NoticeID:   n.ID,
		Kind:       n.Kind,
		WorkItemID: n.WorkItemID,
		CourseID:   n.CourseID,
		At:         nowFunc().UTC(),
	})
}

// Acknowledge marks the record consumed by viewer. Acknowledging an unknown
// record is a no-op. Comment records are retired once every target has
// acknowledged; all other kinds wait for the reconciler.
func (svc *Service) Acknowledge(id, viewer string) error {
	n, err := svc.repo.AcknowledgeNotice(id, viewer)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			svc.log.Debug("acknowledge: unknown notice "+id, viewer)
			return nil
		}
		return err
	}

	if n.Kind == KindCommentPosted && n.FullyAcked() {
		if _, err := svc.repo.DeleteNoticesMatching(QueryFilter{ID: n.ID}); err != nil {
			return err
		}
	}

	svc.broadcast("ack", n)
	return nil
}

// QueryAll returns every record in the ledger, unfiltered.
func (svc *Service) QueryAll() ([]Notice, error) {
	return svc.repo.QueryAllNotices()
}
