package notice

import "sort"

// ListFor returns the viewer's active records, pending work first (oldest
// first, matching due-date urgency), then informational records (newest
// first).
func (svc *Service) ListFor(viewer string, role Role) ([]Notice, error) {
	visible, err := svc.VisibleFor(viewer, role)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if a.Kind.Pending() != b.Kind.Pending() {
			return a.Kind.Pending()
		}
		if a.Kind.Pending() {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return visible, nil
}

// CountFor computes the viewer's unread count without double counting
// semantically overlapping records.
//
// Instructor: pending-review, completion, submission and comment records
// count, except that submission records for a work item are superseded by an
// active completion record for the same item. Learner: created and grade
// records only; comment notices are counted by the caller against its own
// submission history to avoid the same collision class.
func (svc *Service) CountFor(viewer string, role Role) (int, error) {
	visible, err := svc.VisibleFor(viewer, role)
	if err != nil {
		return 0, err
	}

	var count int
	switch role {
	case RoleInstructor:
		completed := make(map[string]bool)
		for _, n := range visible {
			if n.Kind == KindWorkItemCompleted {
				completed[n.WorkItemID] = true
			}
		}
		for _, n := range visible {
			switch n.Kind {
			case KindPendingReview, KindWorkItemCompleted, KindCommentPosted:
				count++
			case KindSubmissionReceived:
				if !completed[n.WorkItemID] {
					count++
				}
			}
		}
	case RoleLearner:
		for _, n := range visible {
			switch n.Kind {
			case KindWorkItemCreated, KindGradePosted:
				count++
			}
		}
	}
	return count, nil
}
