package assistant

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"flowdeck/internal/domain"
)

// Compose builds the assistant message for a dispatch outcome. Pure: the
// caller appends the result to its session.
func Compose(out Outcome, now time.Time) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	switch out.Kind {
	case OutcomeMetrics:
		m := out.Metrics
		msg.Kind = domain.KindMetrics
		msg.Payload = m
		msg.Content = fmt.Sprintf("Project status: %d of %d tasks done (%d%% complete), %d blocked, %d critical-risk.",
			m.Done, m.Total, m.Progress, m.Blocked, m.CriticalRisk)
	case OutcomeRiskList:
		msg.Kind = domain.KindTaskList
		msg.Payload = domain.TaskListPayload{Tasks: out.Tasks}
		if len(out.Tasks) == 0 {
			msg.Content = "No high or critical risk tasks right now."
		} else {
			msg.Content = fmt.Sprintf("%d task(s) need attention:", len(out.Tasks))
			for _, t := range out.Tasks {
				msg.Content += fmt.Sprintf("\n- %s (%s, %s risk)", t.Name, t.Status.Label(), t.Risk)
			}
		}
	case OutcomeWorkload:
		msg.Kind = domain.KindChart
		msg.Payload = out.Workload
		if len(out.Workload.Series) == 0 {
			msg.Content = "No open tasks; no one is busy right now."
		} else {
			msg.Content = fmt.Sprintf("%s carries the most open tasks (%d).",
				out.Workload.Top, out.Workload.Series[0].Count)
		}
	case OutcomeCreated:
		msg.Kind = domain.KindSuccess
		msg.Content = fmt.Sprintf("Created task %q (%s), status %s.",
			out.Task.Name, out.Task.ID, out.Task.Status.Label())
	case OutcomeUpdated:
		msg.Kind = domain.KindSuccess
		msg.Content = fmt.Sprintf("Marked %q as %s.", out.Task.Name, out.Task.Status.Label())
	case OutcomeDiagram:
		msg.Kind = domain.KindDiagram
		msg.Payload = out.Diagram
		msg.Content = "Here's the delivery pipeline: Start → Planning → Development → Review → Testing → Deployment."
	case OutcomeNotFound:
		msg.Kind = domain.KindText
		msg.Content = fmt.Sprintf("I couldn't find a task matching %q.", out.Ref)
	default:
		msg.Kind = domain.KindText
		msg.Content = `I didn't catch that. Try "summarize the project", "show high risk tasks", "who is busiest", "create task <name>", or "mark <task> as done".`
	}
	return msg
}
