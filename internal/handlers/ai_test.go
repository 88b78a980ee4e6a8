package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/taskrythm/taskrythm/internal/ai"
	"github.com/taskrythm/taskrythm/internal/database/testutil"
	"github.com/taskrythm/taskrythm/pkg/response"
)

func newAITestRouter(t *testing.T, svc *ai.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	handler, err := NewAIHandler(db, svc)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/api/ai/refine-task", handler.RefineTask)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRefineTaskRejectsOverlongTitle(t *testing.T) {
	svc, err := ai.NewService(ai.Config{APIKey: "test-key"})
	require.NoError(t, err)
	router := newAITestRouter(t, svc)

	// Validation fails before any outbound call is attempted.
	body, err := json.Marshal(map[string]string{
		"workspaceId": "ws-1",
		"taskTitle":   strings.Repeat("x", 101),
	})
	require.NoError(t, err)

	rec := postJSON(t, router, "/api/ai/refine-task", string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	require.Contains(t, envelope.Error.Message, "at most 100")
}

func TestAIRoutesReturn503WhenDisabled(t *testing.T) {
	router := newAITestRouter(t, nil)

	rec := postJSON(t, router, "/api/ai/refine-task", `{"workspaceId":"ws-1","taskTitle":"t"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.Equal(t, "AI_DISABLED", envelope.Error.Code)
}
