package assistant

import (
	"strings"

	"flowdeck/internal/domain"
)

// Resolve maps a free-text task reference to a task from the snapshot.
// Resolution order: exact case-insensitive ID match first, then the first
// task (in collection order) whose name contains the reference as a
// case-insensitive substring. A miss is a normal outcome, not an error;
// callers surface it as user feedback.
func Resolve(ref string, tasks []domain.Task) (domain.Task, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Task{}, false
	}
	for _, t := range tasks {
		if strings.EqualFold(t.ID, ref) {
			return t, true
		}
	}
	lower := strings.ToLower(ref)
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name), lower) {
			return t, true
		}
	}
	return domain.Task{}, false
}
