package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// seed inserts a small fixture set so a dev dashboard has something to show.
func (cli *commandLine) seed(courseID string) error {
	now := time.Now().UTC()
	fixtures := []notice.Notice{
		{
			ID:           uuid.New().String(),
			Kind:         notice.KindWorkItemCreated,
			WorkItemID:   "seed-task-1",
			WorkItemKind: notice.WorkItemAssignment,
			Role:         notice.RoleLearner,
			Targets:      []string{"seed-learner-1", "seed-learner-2"},
			Originator:   "seed-instructor",
			CourseID:     courseID,
			Subject:      "Seeded assignment",
			CreatedAt:    now.Add(-time.Hour),
			AckedBy:      []string{},
		},
		{
			ID:           uuid.New().String(),
			Kind:         notice.KindPendingReview,
			WorkItemID:   "seed-task-1",
			WorkItemKind: notice.WorkItemAssignment,
			Role:         notice.RoleInstructor,
			Targets:      []string{"seed-instructor"},
			Originator:   notice.SystemOriginator,
			CourseID:     courseID,
			Subject:      "Seeded assignment",
			CreatedAt:    now.Add(-time.Hour),
			AckedBy:      []string{},
		},
		{
			ID:           uuid.New().String(),
			Kind:         notice.KindGradePosted,
			WorkItemID:   "seed-task-0",
			WorkItemKind: notice.WorkItemEvaluation,
			Role:         notice.RoleLearner,
			Targets:      []string{"seed-learner-1"},
			Originator:   "seed-instructor",
			CourseID:     courseID,
			Subject:      "Seeded evaluation",
			CreatedAt:    now.Add(-30 * time.Minute),
			AckedBy:      []string{},
			Payload:      notice.GradePayload{Score: 6.5},
		},
	}

	for _, n := range fixtures {
		if _, err := cli.repo.CreateNotice(n); err != nil {
			return err
		}
	}
	fmt.Printf("seeded %d notices for course %s\n", len(fixtures), courseID)
	return nil
}
