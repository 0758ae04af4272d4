package notice

import "github.com/pkg/errors"

// Emission rules: one constructor per record kind. Each resolves its target
// set, applies the kind's dedup policy against the ledger, and broadcasts on
// success. Suppressions (ErrNoRecipients, ErrDuplicateSuppressed) are logged
// and returned as sentinels; they never reach users as failures.

// EmitWorkItemCreated announces a new work item to every course member.
// Always allowed: there is one creation per work item by construction. It also
// opens the instructor's PendingReview singleton.
func (svc *Service) EmitWorkItemCreated(wi WorkItem) (Notice, error) {
	targets, err := svc.resolveCourse(wi.CourseID, wi.InstructorID)
	if err != nil {
		return Notice{}, svc.suppressed(KindWorkItemCreated, wi, err)
	}

	n, err := svc.repo.CreateNotice(svc.newNotice(KindWorkItemCreated, wi, RoleLearner, targets, wi.InstructorID, nil))
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating work-item notice")
	}

	if _, err := svc.EmitPendingReview(wi); err != nil && !errors.Is(err, ErrDuplicateSuppressed) && !errors.Is(err, ErrNoRecipients) {
		svc.log.Error("emitting pending-review for "+wi.ID, err)
	}

	svc.broadcast("emit", n)
	return n, nil
}

// EmitSubmissionReceived notifies the instructor of record of one submission.
// One record per submission event; overlap with a later completion record is
// collapsed at counting time, not here. When the submission log shows every
// expected learner has submitted, the completion singleton is upserted.
func (svc *Service) EmitSubmissionReceived(wi WorkItem, learner string) (Notice, error) {
	targets, err := resolveSingle(wi.InstructorID, learner)
	if err != nil {
		return Notice{}, svc.suppressed(KindSubmissionReceived, wi, err)
	}

	n, err := svc.repo.CreateNotice(svc.newNotice(KindSubmissionReceived, wi, RoleInstructor, targets, learner, nil))
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating submission notice")
	}
	svc.broadcast("emit", n)

	done, err := svc.allSubmitted(wi)
	if err != nil {
		svc.log.Warn("all-submitted check for "+wi.ID, err)
		return n, nil
	}
	if done {
		if _, err := svc.EmitWorkItemCompleted(wi); err != nil && !errors.Is(err, ErrDuplicateSuppressed) && !errors.Is(err, ErrNoRecipients) {
			svc.log.Error("emitting completion for "+wi.ID, err)
		}
	}
	return n, nil
}

// EmitWorkItemCompleted records that every learner has submitted. Idempotent:
// the ledger is checked for an existing active completion record for this work
// item in the same atomic step as the insert, so N concurrent completion
// checks yield exactly one record.
func (svc *Service) EmitWorkItemCompleted(wi WorkItem) (Notice, error) {
	targets, err := resolveSingle(wi.InstructorID, "")
	if err != nil {
		return Notice{}, svc.suppressed(KindWorkItemCompleted, wi, err)
	}

	n, created, err := svc.repo.UpsertNotice(
		QueryFilter{WorkItemID: wi.ID, Kind: KindWorkItemCompleted},
		func() Notice {
			return svc.newNotice(KindWorkItemCompleted, wi, RoleInstructor, targets, SystemOriginator, nil)
		},
	)
	if err != nil {
		return Notice{}, errors.Wrap(err, "upserting completion notice")
	}
	if !created {
		svc.log.Debug("completion notice already active for " + wi.ID)
		return n, ErrDuplicateSuppressed
	}
	svc.broadcast("emit", n)
	return n, nil
}

// EmitCommentPosted fans a comment out to the whole roster minus its author,
// scoped to the opposite role. A course of one suppresses the emission.
func (svc *Service) EmitCommentPosted(wi WorkItem, originator string, originatorRole Role, excerpt string) (Notice, error) {
	targets, err := svc.resolveCourse(wi.CourseID, originator)
	if err != nil {
		return Notice{}, svc.suppressed(KindCommentPosted, wi, err)
	}

	n, err := svc.repo.CreateNotice(svc.newNotice(
		KindCommentPosted, wi, originatorRole.Opposite(), targets, originator, CommentPayload{Excerpt: excerpt},
	))
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating comment notice")
	}
	svc.broadcast("emit", n)
	return n, nil
}

// EmitGradePosted notifies one learner of their grade. Exempt from the
// reconciler sweep: it lives until the learner acknowledges it.
func (svc *Service) EmitGradePosted(wi WorkItem, learner string, score float64) (Notice, error) {
	targets, err := resolveSingle(learner, wi.InstructorID)
	if err != nil {
		return Notice{}, svc.suppressed(KindGradePosted, wi, err)
	}

	n, err := svc.repo.CreateNotice(svc.newNotice(
		KindGradePosted, wi, RoleLearner, targets, wi.InstructorID, GradePayload{Score: score},
	))
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating grade notice")
	}
	svc.broadcast("emit", n)
	return n, nil
}

// EmitPendingReview opens the instructor's standing review reminder for a work
// item. One per work item; retired only by the reconciler, never by
// acknowledgment.
func (svc *Service) EmitPendingReview(wi WorkItem) (Notice, error) {
	targets, err := resolveSingle(wi.InstructorID, "")
	if err != nil {
		return Notice{}, svc.suppressed(KindPendingReview, wi, err)
	}

	n, created, err := svc.repo.UpsertNotice(
		QueryFilter{WorkItemID: wi.ID, Kind: KindPendingReview},
		func() Notice {
			return svc.newNotice(KindPendingReview, wi, RoleInstructor, targets, SystemOriginator, nil)
		},
	)
	if err != nil {
		return Notice{}, errors.Wrap(err, "upserting pending-review notice")
	}
	if !created {
		svc.log.Debug("pending-review notice already active for " + wi.ID)
		return n, ErrDuplicateSuppressed
	}
	svc.broadcast("emit", n)
	return n, nil
}

// allSubmitted recomputes the completion check from the raw submission log:
// every roster member other than the instructor has at least one submission.
func (svc *Service) allSubmitted(wi WorkItem) (bool, error) {
	members, err := svc.roster.MembersOf(wi.CourseID)
	if err != nil {
		return false, err
	}
	subs, err := svc.submissions.ListSubmissions(wi.ID)
	if err != nil {
		return false, err
	}

	submitted := make(map[string]bool, len(subs))
	for _, s := range subs {
		submitted[s.AuthorID] = true
	}

	var expected int
	for _, m := range members {
		if m == "" || m == wi.InstructorID {
			continue
		}
		expected++
		if !submitted[m] {
			return false, nil
		}
	}
	return expected > 0, nil
}

func (svc *Service) suppressed(kind Kind, wi WorkItem, err error) error {
	if errors.Is(err, ErrNoRecipients) {
		// Possibly a stale roster hiding legitimate notifications; keep it
		// visible in the logs rather than silent.
		svc.log.Warn("emission suppressed: no recipients", string(kind), wi.CourseID, wi.ID)
		return ErrNoRecipients
	}
	return errors.Wrapf(err, "resolving targets for %s", kind)
}
