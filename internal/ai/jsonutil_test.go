package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePayloadDirect(t *testing.T) {
	result, err := parsePayload[RefineResult](`{"title":"Fix login","description":"d","suggestedPriority":"HIGH"}`)
	require.NoError(t, err)
	require.Equal(t, "Fix login", result.Title)
	require.Equal(t, "HIGH", result.SuggestedPriority)
}

func TestParsePayloadCodeFence(t *testing.T) {
	fenced := "```json\n{\"reply\":\"hello\"}\n```"
	bare := `{"reply":"hello"}`

	fromFenced, err := parsePayload[ChatResult](fenced)
	require.NoError(t, err)
	fromBare, err := parsePayload[ChatResult](bare)
	require.NoError(t, err)
	require.Equal(t, fromBare, fromFenced)
}

func TestParsePayloadTrailingCommas(t *testing.T) {
	text := `{"risks":["scope creep","no tests",],"healthScore":40,"summary":"s","suggestions":[],}`
	result, err := parsePayload[AnalysisResult](text)
	require.NoError(t, err)
	require.Equal(t, 40, result.HealthScore)
	require.Len(t, result.Risks, 2)
}

func TestParsePayloadMixedContent(t *testing.T) {
	text := "Sure! Here is the plan you asked for:\n" +
		`{"projectName":"Launch","projectDescription":"","tasks":[{"title":"Ship","priority":"HIGH","type":"TASK"}]}` +
		"\nLet me know if you need anything else."
	result, err := parsePayload[PlanResult](text)
	require.NoError(t, err)
	require.Equal(t, "Launch", result.ProjectName)
	require.Len(t, result.Tasks, 1)
	require.Equal(t, "Ship", result.Tasks[0].Title)
}

func TestParsePayloadArray(t *testing.T) {
	result, err := parsePayload[[]string](" [\"a\", \"b\"] ")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, result)
}

func TestParsePayloadFailures(t *testing.T) {
	_, err := parsePayload[ChatResult]("")
	require.Error(t, err)

	_, err = parsePayload[ChatResult]("I could not produce a plan, sorry.")
	require.Error(t, err)
}
