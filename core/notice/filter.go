package notice

// isVisible decides whether a record is currently active for a viewer. It is
// idempotent and never mutates state: any removal implied by a terminal work
// item belongs to the reconciler.
//
// Rules, in order: target membership and role scope; not yet acknowledged;
// a work-item-created banner is hidden once the viewer's own lifecycle state
// for the item is terminal (a learner must never see a "new assignment"
// banner for graded work).
func (svc *Service) isVisible(n Notice, viewer string, role Role) bool {
	if !n.HasTarget(viewer) || n.Role != role {
		return false
	}
	if n.IsAckedBy(viewer) {
		return false
	}
	if n.Kind == KindWorkItemCreated {
		state, err := svc.workItems.LifecycleState(n.WorkItemID, viewer)
		if err != nil {
			// Unresolvable work items are treated as terminal everywhere in
			// this subsystem; a transient undercount beats an overcount.
			return false
		}
		if state.Terminal() {
			return false
		}
	}
	return true
}

// VisibleFor returns every record currently active for the viewer, unordered.
func (svc *Service) VisibleFor(viewer string, role Role) ([]Notice, error) {
	all, err := svc.repo.QueryAllNotices()
	if err != nil {
		return nil, err
	}
	visible := make([]Notice, 0, len(all))
	for _, n := range all {
		if svc.isVisible(n, viewer, role) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}
