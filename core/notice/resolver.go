package notice

import "sort"

// resolveCourse computes a target set from a course roster snapshot, always
// excluding the originator. An empty result yields ErrNoRecipients: callers
// must suppress the emission rather than store an empty target set.
func (svc *Service) resolveCourse(courseID, excluding string) ([]string, error) {
	members, err := svc.roster.MembersOf(courseID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(members))
	targets := make([]string, 0, len(members))
	for _, m := range members {
		if m == "" || m == excluding || seen[m] {
			continue
		}
		seen[m] = true
		targets = append(targets, m)
	}
	if len(targets) == 0 {
		return nil, ErrNoRecipients
	}
	sort.Strings(targets)
	return targets, nil
}

// resolveSingle returns the singleton target set for a directly addressed
// recipient, applying the same self-suppression rule.
func resolveSingle(identity, excluding string) ([]string, error) {
	if identity == "" || identity == excluding {
		return nil, ErrNoRecipients
	}
	return []string{identity}, nil
}
