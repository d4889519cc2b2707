package assistant

import "testing"

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		in   string
		want IntentKind
	}{
		{"Summarize project status", IntentSummarize},
		{"give me an overview", IntentSummarize},
		{"Show high risk tasks", IntentRiskQuery},
		{"what needs attention?", IntentRiskQuery},
		{"Who is busiest?", IntentWorkloadQuery},
		{"show resource workload", IntentWorkloadQuery},
		{"create task for Landing Page redesign", IntentCreateTask},
		{"add task: write release notes", IntentCreateTask},
		{"mark TSK-003 as done", IntentUpdateStatus},
		{"set login page to in progress", IntentUpdateStatus},
		{"Show the flow diagram", IntentGenerateFlow},
		{"draw the process", IntentGenerateFlow},
		{"hello there", IntentUnrecognized},
		{"", IntentUnrecognized},

		// Earlier rules steal inputs that also match later rules.
		{"create task for the status page", IntentSummarize},
		{"mark the risky one as done", IntentRiskQuery},
		{"who should I mark as done", IntentWorkloadQuery},
		{"update the flow chart to done", IntentUpdateStatus},
	}
	for _, tc := range cases {
		if got := Classify(tc.in).Kind; got != tc.want {
			t.Errorf("Classify(%q).Kind = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClassifyUpdateStatusParams(t *testing.T) {
	cases := []struct {
		in         string
		wantRef    string
		wantStatus string
	}{
		{"mark TSK-003 as done", "TSK-003", "done"},
		{"set the landing page to in progress", "the landing page", "in progress"},
		{"update TSK-001 to blocked", "TSK-001", "blocked"},
		{"Mark Login Page as review", "Login Page", "review"},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if got.Kind != IntentUpdateStatus {
			t.Fatalf("Classify(%q).Kind = %v, want update-status", tc.in, got.Kind)
		}
		if got.TaskRef != tc.wantRef {
			t.Errorf("Classify(%q).TaskRef = %q, want %q", tc.in, got.TaskRef, tc.wantRef)
		}
		if got.StatusToken != tc.wantStatus {
			t.Errorf("Classify(%q).StatusToken = %q, want %q", tc.in, got.StatusToken, tc.wantStatus)
		}
	}
}

func TestClassifyCreateTaskName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"create task for Landing Page redesign", "Landing page redesign"},
		{"create task called API cleanup", "Api cleanup"},
		{"add task named fix the footer", "Fix the footer"},
		{"new task: deploy to staging", "Deploy to staging"},
		{"create task fix login HIGH priority", "Fix login high"},
		{"create task", ""},
		{"add task   ", ""},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if got.Kind != IntentCreateTask {
			t.Fatalf("Classify(%q).Kind = %v, want create-task", tc.in, got.Kind)
		}
		if got.TaskName != tc.want {
			t.Errorf("Classify(%q).TaskName = %q, want %q", tc.in, got.TaskName, tc.want)
		}
	}
}

func TestUpdateStatusRequiresKnownToken(t *testing.T) {
	got := Classify("mark TSK-001 as finished")
	if got.Kind == IntentUpdateStatus {
		t.Fatalf("Classify accepted unknown status token: %+v", got)
	}
}
