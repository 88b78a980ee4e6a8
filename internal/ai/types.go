// Package ai provides AI-assisted planning, refinement, and reporting for
// projects and tasks, backed by a hosted generative-language API.
package ai

// PlannedTask is a single task proposed by a generated project plan.
type PlannedTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Type        string   `json:"type"`
	Subtasks    []string `json:"subtasks,omitempty"`
}

// PlanResult is the structured output of a project plan generation.
type PlanResult struct {
	ProjectName        string        `json:"projectName"`
	ProjectDescription string        `json:"projectDescription"`
	Tasks              []PlannedTask `json:"tasks"`
}

// RefineResult expands a rough task title into a fleshed-out work item.
type RefineResult struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	SuggestedPriority  string   `json:"suggestedPriority"`
	SuggestedType      string   `json:"suggestedType"`
}

// AnalysisResult summarises the health of a project.
type AnalysisResult struct {
	HealthScore int      `json:"healthScore"`
	Summary     string   `json:"summary"`
	Risks       []string `json:"risks"`
	Suggestions []string `json:"suggestions"`
}

// ReportResult is a generated status report for a project.
type ReportResult struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Markdown   string   `json:"markdown"`
}

// ChatResult is a free-form assistant reply grounded in workspace context.
type ChatResult struct {
	Reply string `json:"reply"`
}
