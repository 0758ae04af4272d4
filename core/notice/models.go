package notice

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// SystemOriginator marks records emitted on behalf of no human actor.
const SystemOriginator = "system"

// Kind discriminates the six notice record types.
type Kind string

const (
	KindWorkItemCreated    Kind = "work_item_created"
	KindSubmissionReceived Kind = "submission_received"
	KindWorkItemCompleted  Kind = "work_item_completed"
	KindCommentPosted      Kind = "comment_posted"
	KindGradePosted        Kind = "grade_posted"
	KindPendingReview      Kind = "pending_review"
)

// Pending reports whether records of this kind represent outstanding work
// (listed oldest first) as opposed to informational records (newest first).
func (k Kind) Pending() bool {
	switch k {
	case KindWorkItemCreated, KindPendingReview, KindSubmissionReceived:
		return true
	}
	return false
}

// Sweepable reports whether the lifecycle reconciler may remove records of
// this kind once the referenced work item is terminal. Grade notices stay
// until each learner acknowledges individually.
func (k Kind) Sweepable() bool { return k != KindGradePosted }

// Singleton reports whether at most one active record of this kind may exist
// per work item.
func (k Kind) Singleton() bool {
	return k == KindWorkItemCompleted || k == KindPendingReview
}

// Role scopes a notice record to one side of the classroom.
type Role string

const (
	RoleLearner    Role = "learner"
	RoleInstructor Role = "instructor"
)

func (r Role) Valid() bool { return r == RoleLearner || r == RoleInstructor }

func (r Role) Opposite() Role {
	if r == RoleInstructor {
		return RoleLearner
	}
	return RoleInstructor
}

// WorkItemKind informs grouping and wording, never behavior.
type WorkItemKind string

const (
	WorkItemAssignment WorkItemKind = "assignment"
	WorkItemEvaluation WorkItemKind = "evaluation"
)

// State is the external lifecycle state of a work item for one identity.
type State string

const (
	StateOpen      State = "open"
	StateSubmitted State = "submitted"
	StateGraded    State = "graded"
	StateFinalized State = "finalized"
)

// Terminal reports whether the unit of work is done for the identity.
func (s State) Terminal() bool { return s == StateGraded || s == StateFinalized }

// WorkItem is the referenced-but-not-owned task or evaluation.
type WorkItem struct {
	ID           string       `json:"id"`
	Kind         WorkItemKind `json:"kind"`
	CourseID     string       `json:"course_id"`
	Subject      string       `json:"subject"`
	InstructorID string       `json:"instructor_id"`
}

// Submission is one entry of the external submission log.
type Submission struct {
	WorkItemID  string    `json:"work_item_id"`
	AuthorID    string    `json:"author_id"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
	Graded      bool      `json:"graded"`
}

// Payload carries kind-specific data. It never changes targeting or lifecycle.
type Payload interface {
	PayloadKind() Kind
}

type GradePayload struct {
	Score float64 `json:"score"`
}

func (GradePayload) PayloadKind() Kind { return KindGradePosted }

type CommentPayload struct {
	Excerpt string `json:"excerpt"`
}

func (CommentPayload) PayloadKind() Kind { return KindCommentPosted }

// DecodePayload decodes the JSON payload matching the given record kind.
// Kinds that carry no payload yield nil for any input.
func DecodePayload(k Kind, data []byte) (Payload, error) {
	if len(data) == 0 {
		return nil, nil
	}
	switch k {
	case KindGradePosted:
		var p GradePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrap(err, "decoding grade payload")
		}
		return p, nil
	case KindCommentPosted:
		var p CommentPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrap(err, "decoding comment payload")
		}
		return p, nil
	}
	return nil, nil
}

// Notice is one record of the notification ledger.
//
// Targets is frozen at creation and never recomputed; AckedBy only grows and
// is always a subset of Targets. No other field changes after creation.
type Notice struct {
	ID           string       `json:"id"`
	Kind         Kind         `json:"kind"`
	WorkItemID   string       `json:"work_item_id"`
	WorkItemKind WorkItemKind `json:"work_item_kind"`
	Role         Role         `json:"role"`
	Targets      []string     `json:"targets"`
	Originator   string       `json:"originator"`
	CourseID     string       `json:"course_id"`
	Subject      string       `json:"subject"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	AckedBy      []string     `json:"acked_by"`
	Payload      Payload      `json:"payload,omitempty"`
}

func (n Notice) HasTarget(identity string) bool {
	for _, t := range n.Targets {
		if t == identity {
			return true
		}
	}
	return false
}

func (n Notice) IsAckedBy(identity string) bool {
	for _, a := range n.AckedBy {
		if a == identity {
			return true
		}
	}
	return false
}

// FullyAcked reports whether every target has consumed the record.
func (n Notice) FullyAcked() bool {
	for _, t := range n.Targets {
		if !n.IsAckedBy(t) {
			return false
		}
	}
	return true
}

func (n *Notice) UnmarshalJSON(data []byte) error {
	type alias Notice
	aux := struct {
		*alias
		Payload json.RawMessage `json:"payload,omitempty"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p, err := DecodePayload(n.Kind, aux.Payload)
	if err != nil {
		return err
	}
	n.Payload = p
	return nil
}

// QueryFilter applies AND operation on its set fields against the ledger.
type QueryFilter struct {
	ID            string `query:"id"`
	WorkItemID    string `query:"work_item_id"`
	Kind          Kind   `query:"kind"`
	Role          Role   `query:"role"`
	Target        string `query:"target"`
	CourseID      string `query:"course_id"`
	SweepableOnly bool   `query:"-"`
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.ID == "" && qf.WorkItemID == "" && qf.Kind == "" && qf.Role == "" &&
		qf.Target == "" && qf.CourseID == "" && !qf.SweepableOnly
}

// Match reports whether the notice satisfies every set field.
func (qf QueryFilter) Match(n Notice) bool {
	if qf.ID != "" && n.ID != qf.ID {
		return false
	}
	if qf.WorkItemID != "" && n.WorkItemID != qf.WorkItemID {
		return false
	}
	if qf.Kind != "" && n.Kind != qf.Kind {
		return false
	}
	if qf.Role != "" && n.Role != qf.Role {
		return false
	}
	if qf.Target != "" && !n.HasTarget(qf.Target) {
		return false
	}
	if qf.CourseID != "" && n.CourseID != qf.CourseID {
		return false
	}
	if qf.SweepableOnly && !n.Kind.Sweepable() {
		return false
	}
	return true
}
