package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Title string `json:"taskTitle" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
	Bare  string `validate:"omitempty,min=3"`
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	err := ValidateStruct(&samplePayload{Email: "not-an-email", Bare: "xy"})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 3)

	byName := map[string]FieldError{}
	for _, fe := range ve {
		byName[fe.Name] = fe
	}

	require.Equal(t, "required", byName["taskTitle"].Rule)
	require.Equal(t, "email", byName["email"].Rule)
	// Untagged fields fall back to the Go name.
	require.Equal(t, "3", byName["Bare"].Param)
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(&samplePayload{Title: "ship it", Email: "a@b.example"}))
}

func TestValidationErrorsMessage(t *testing.T) {
	ve := ValidationErrors{
		{Name: "taskTitle", Rule: "max", Param: "100"},
		{Name: "goal", Rule: "required"},
	}
	require.Equal(t, "taskTitle: max=100; goal: required", ve.Error())
	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}
