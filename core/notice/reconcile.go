package notice

// Reconcile sweeps the ledger: every sweepable record whose referenced work
// item has reached a terminal state (finalized, or graded for all targets) is
// removed, for every viewer. Grade records are exempt.
//
// The sweep is a pure filter over ledger state, so it is idempotent and safe
// to invoke at any time: after a grading action, on a timer, or twice in a
// row. Work items the collaborator cannot resolve are treated as terminal and
// swept.
func (svc *Service) Reconcile() (int, error) {
	all, err := svc.repo.QueryAllNotices()
	if err != nil {
		return 0, err
	}

	checked := make(map[string]bool)
	var removed int
	for _, n := range all {
		if !n.Kind.Sweepable() || n.WorkItemID == "" || checked[n.WorkItemID] {
			continue
		}
		checked[n.WorkItemID] = true

		terminal, err := svc.workItems.AllTargetsTerminal(n.WorkItemID)
		if err != nil {
			svc.log.Warn("reconcile: treating unresolvable work item as terminal", n.WorkItemID, err)
			terminal = true
		}
		if !terminal {
			continue
		}

		count, err := svc.repo.DeleteNoticesMatching(QueryFilter{WorkItemID: n.WorkItemID, SweepableOnly: true})
		if err != nil {
			return removed, err
		}
		removed += count
	}

	if removed > 0 {
		svc.log.Info("reconcile swept notices", removed)
		svc.broadcast("sweep", Notice{})
	}
	return removed, nil
}
