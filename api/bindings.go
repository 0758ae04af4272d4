package api

import (
	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

type workItemJSON struct {
	ID           string `json:"id" validate:"required"`
	Kind         string `json:"kind" validate:"required,oneof=assignment evaluation"`
	CourseID     string `json:"course_id" validate:"required"`
	Subject      string `json:"subject"`
	InstructorID string `json:"instructor_id" validate:"required"`
}

func (w *workItemJSON) clean() {
	w.ID = core.CleanString(w.ID)
	w.Kind = core.CleanString(w.Kind, true /* lower */)
	w.CourseID = core.CleanString(w.CourseID)
	w.Subject = core.CleanString(w.Subject)
	w.InstructorID = core.CleanString(w.InstructorID)
}

func (w workItemJSON) toWorkItem() notice.WorkItem {
	return notice.WorkItem{
		ID:           w.ID,
		Kind:         notice.WorkItemKind(w.Kind),
		CourseID:     w.CourseID,
		Subject:      w.Subject,
		InstructorID: w.InstructorID,
	}
}

type createdRequest struct {
	WorkItem workItemJSON `json:"work_item" validate:"required"`
}

func (r *createdRequest) Validate() error {
	r.WorkItem.clean()
	return core.Validate.Struct(r)
}

type submissionRequest struct {
	WorkItem workItemJSON `json:"work_item" validate:"required"`
	Author   string       `json:"author" validate:"required"`
}

func (r *submissionRequest) Validate() error {
	r.WorkItem.clean()
	r.Author = core.CleanString(r.Author)
	return core.Validate.Struct(r)
}

type completionRequest struct {
	WorkItem workItemJSON `json:"work_item" validate:"required"`
}

func (r *completionRequest) Validate() error {
	r.WorkItem.clean()
	return core.Validate.Struct(r)
}

type commentRequest struct {
	WorkItem       workItemJSON `json:"work_item" validate:"required"`
	Originator     string       `json:"originator" validate:"required"`
	OriginatorRole string       `json:"originator_role" validate:"required,noticerole"`
	Excerpt        string       `json:"excerpt"`
}

func (r *commentRequest) Validate() error {
	r.WorkItem.clean()
	r.Originator = core.CleanString(r.Originator)
	r.OriginatorRole = core.CleanString(r.OriginatorRole, true /* lower */)
	r.Excerpt = core.CleanString(r.Excerpt)
	return core.Validate.Struct(r)
}

type gradeRequest struct {
	WorkItem workItemJSON `json:"work_item" validate:"required"`
	Learner  string       `json:"learner" validate:"required"`
	Score    float64      `json:"score"`
}

func (r *gradeRequest) Validate() error {
	r.WorkItem.clean()
	r.Learner = core.CleanString(r.Learner)
	return core.Validate.Struct(r)
}

type countResponse struct {
	Count int `json:"count"`
}

type reconcileResponse struct {
	Removed int `json:"removed"`
}
