package ai

import (
	"fmt"
	"strings"
)

// rawJSONInstruction is appended to every prompt. Models still fence output
// occasionally, which parsePayload tolerates.
const rawJSONInstruction = "IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences. Just the JSON."

// SnapshotTask is a compact task view interpolated into analysis prompts.
type SnapshotTask struct {
	Title    string
	Status   string
	Priority string
	DueDate  string
}

// ProjectSnapshot carries the project state an analysis or report is based on.
type ProjectSnapshot struct {
	Name        string
	Description string
	Tasks       []SnapshotTask
}

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildPlanPrompt(goal, context string) string {
	extra := ""
	if strings.TrimSpace(context) != "" {
		extra = fmt.Sprintf("\nAdditional context:\n%s\n", context)
	}

	return fmt.Sprintf(`You are a project planning assistant. Break the following goal into an actionable project plan.

Goal:
%s
%s
Respond with a JSON object of this shape:
{
  "projectName": "Short project name",
  "projectDescription": "One-paragraph description",
  "tasks": [
    {
      "title": "Task title",
      "description": "What to do and why",
      "priority": "LOW|MEDIUM|HIGH|CRITICAL",
      "type": "TASK|BUG|FEATURE|IMPROVEMENT|SPIKE",
      "subtasks": ["Optional checklist item", "..."]
    }
  ]
}

Keep the plan to at most 15 tasks, ordered so earlier tasks unblock later ones.

%s`, goal, extra, rawJSONInstruction)
}

func buildRefinePrompt(title, description string) string {
	extra := ""
	if strings.TrimSpace(description) != "" {
		extra = fmt.Sprintf("\nExisting description:\n%s\n", description)
	}

	return fmt.Sprintf(`You are helping refine a rough task into a well-specified work item.

Task title:
%s
%s
Respond with a JSON object of this shape:
{
  "title": "Improved concise title",
  "description": "Clear description of the work",
  "acceptanceCriteria": ["Verifiable criterion", "..."],
  "suggestedPriority": "LOW|MEDIUM|HIGH|CRITICAL",
  "suggestedType": "TASK|BUG|FEATURE|IMPROVEMENT|SPIKE"
}

%s`, title, extra, rawJSONInstruction)
}

func buildAnalysisPrompt(snapshot ProjectSnapshot) string {
	return fmt.Sprintf(`You are assessing the health of a software project from its task board.

Project: %s
Description: %s

Tasks:
%s
Respond with a JSON object of this shape:
{
  "healthScore": 0-100,
  "summary": "One-paragraph overall assessment",
  "risks": ["Concrete risk", "..."],
  "suggestions": ["Actionable suggestion", "..."]
}

Base the score on progress, blocked work, overdue items, and priority balance.

%s`, snapshot.Name, snapshot.Description, formatSnapshotTasks(snapshot.Tasks), rawJSONInstruction)
}

func buildReportPrompt(snapshot ProjectSnapshot, audience string) string {
	if strings.TrimSpace(audience) == "" {
		audience = "the project team"
	}

	return fmt.Sprintf(`Write a status report for %s about the following project.

Project: %s
Description: %s

Tasks:
%s
Respond with a JSON object of this shape:
{
  "title": "Report title",
  "summary": "Two or three sentence executive summary",
  "highlights": ["Notable accomplishment or change", "..."],
  "markdown": "Full report body in markdown"
}

%s`, audience, snapshot.Name, snapshot.Description, formatSnapshotTasks(snapshot.Tasks), rawJSONInstruction)
}

func buildChatPrompt(messages []ChatMessage, workspaceContext string) string {
	var transcript strings.Builder
	for _, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "assistant" {
			role = "user"
		}
		fmt.Fprintf(&transcript, "%s: %s\n", role, m.Content)
	}

	contextBlock := ""
	if strings.TrimSpace(workspaceContext) != "" {
		contextBlock = fmt.Sprintf("\nWorkspace context:\n%s\n", workspaceContext)
	}

	return fmt.Sprintf(`You are a project-management assistant embedded in a task tracker. Answer the user's latest message using the conversation and workspace context below. Be concise and practical.
%s
Conversation:
%s
Respond with a JSON object of this shape:
{
  "reply": "Your answer"
}

%s`, contextBlock, transcript.String(), rawJSONInstruction)
}

func formatSnapshotTasks(tasks []SnapshotTask) string {
	if len(tasks) == 0 {
		return "(no tasks yet)\n"
	}

	var b strings.Builder
	for _, t := range tasks {
		line := fmt.Sprintf("- [%s/%s] %s", t.Status, t.Priority, t.Title)
		if t.DueDate != "" {
			line += " (due " + t.DueDate + ")"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
