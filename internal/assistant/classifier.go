package assistant

import (
	"regexp"
	"strings"
	"unicode"
)

// IntentKind is the classified purpose of a user command.
type IntentKind string

const (
	IntentSummarize     IntentKind = "summarize"
	IntentRiskQuery     IntentKind = "risk-query"
	IntentWorkloadQuery IntentKind = "workload-query"
	IntentCreateTask    IntentKind = "create-task"
	IntentUpdateStatus  IntentKind = "update-status"
	IntentGenerateFlow  IntentKind = "generate-flow"
	IntentUnrecognized  IntentKind = "unrecognized"
)

// Intent is a classified command with its extracted parameters.
type Intent struct {
	Kind        IntentKind
	TaskRef     string // update-status: free-text task reference
	StatusToken string // update-status: spoken status token, e.g. "in progress"
	TaskName    string // create-task: extracted name, already case-adjusted
}

var (
	summarizeWords = []string{"summary", "status", "overview"}
	riskWords      = []string{"risk", "critical", "attention"}
	workloadWords  = []string{"workload", "who", "resource", "busy"}
	flowWords      = []string{"flow", "diagram", "process"}

	createTaskRe   = regexp.MustCompile(`(?i)^\s*(?:create|add|new)\s+task\b[:\s]*(.*)$`)
	updateStatusRe = regexp.MustCompile(`(?i)\b(?:mark|set|update)\s+(.+?)\s+(?:as|to)\s+(done|in progress|todo|blocked|review)\b`)
)

// Classify maps a raw input string to exactly one Intent. Rules are tried in
// a fixed priority order and the first match wins; when an input carries
// trigger words for several rules, the earlier rule takes it. That priority
// resolution (rather than semantic disambiguation) is part of the contract
// and must not be reordered.
func Classify(input string) Intent {
	lower := strings.ToLower(input)

	if containsAny(lower, summarizeWords) {
		return Intent{Kind: IntentSummarize}
	}
	if containsAny(lower, riskWords) {
		return Intent{Kind: IntentRiskQuery}
	}
	if containsAny(lower, workloadWords) {
		return Intent{Kind: IntentWorkloadQuery}
	}
	if m := createTaskRe.FindStringSubmatch(input); m != nil {
		return Intent{Kind: IntentCreateTask, TaskName: extractTaskName(m[1])}
	}
	if m := updateStatusRe.FindStringSubmatch(input); m != nil {
		return Intent{
			Kind:        IntentUpdateStatus,
			TaskRef:     strings.TrimSpace(m[1]),
			StatusToken: strings.ToLower(m[2]),
		}
	}
	if containsAny(lower, flowWords) {
		return Intent{Kind: IntentGenerateFlow}
	}
	return Intent{Kind: IntentUnrecognized}
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// extractTaskName turns the text after a create-task trigger into a task
// name: cut at the literal " priority", drop a leading "task " fragment and
// one filler connector, then sentence-case the remainder. Returns "" when
// nothing usable is left; the dispatcher substitutes the configured default.
func extractTaskName(rest string) string {
	rest = strings.TrimSpace(rest)
	if i := strings.Index(strings.ToLower(rest), " priority"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(strings.ToLower(rest), "task ") {
		rest = strings.TrimSpace(rest[len("task "):])
	}
	for _, conn := range []string{"for ", "called ", "named "} {
		if strings.HasPrefix(strings.ToLower(rest), conn) {
			rest = strings.TrimSpace(rest[len(conn):])
			break
		}
	}
	return sentenceCase(rest)
}

func sentenceCase(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
