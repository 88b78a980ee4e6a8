package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/errors"
	"github.com/taskrythm/taskrythm/pkg/response"
)

type TaskHandler struct {
	svc *services.TaskService
}

type createTaskRequest struct {
	ProjectID    string     `json:"projectId" validate:"required"`
	ParentTaskID *string    `json:"parentTaskId"`
	Title        string     `json:"title" validate:"required,min=1,max=200"`
	Description  string     `json:"description" validate:"omitempty,max=5000"`
	Status       string     `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS BLOCKED DONE"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Type         string     `json:"type" validate:"omitempty,oneof=TASK BUG FEATURE IMPROVEMENT SPIKE"`
	AssigneeID   *string    `json:"assigneeId"`
	DueDate      *time.Time `json:"dueDate"`
	OrderIndex   *int       `json:"orderIndex"`
}

type updateTaskRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=5000"`
	Status        *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS BLOCKED DONE"`
	Priority      *string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Type          *string    `json:"type" validate:"omitempty,oneof=TASK BUG FEATURE IMPROVEMENT SPIKE"`
	AssigneeID    *string    `json:"assigneeId"`
	ClearAssignee bool       `json:"clearAssignee"`
	DueDate       *time.Time `json:"dueDate"`
	ClearDueDate  bool       `json:"clearDueDate"`
	ParentTaskID  *string    `json:"parentTaskId"`
	ClearParent   bool       `json:"clearParent"`
	OrderIndex    *int       `json:"orderIndex"`
}

type createSubtaskRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type updateSubtaskRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
	Completed *bool   `json:"completed"`
}

func NewTaskHandler(db *gorm.DB) (*TaskHandler, error) {
	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	activity, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewTaskService(db, resolver, activity)
	if err != nil {
		return nil, err
	}
	return &TaskHandler{svc: svc}, nil
}

// GET /api/tasks?projectId=
func (h *TaskHandler) List(c *gin.Context) {
	projectID := strings.TrimSpace(c.Query("projectId"))
	if projectID == "" {
		response.Error(c, errors.NewBadRequest("projectId query parameter is required"))
		return
	}

	tasks, err := h.svc.List(requestContext(c), currentUserID(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var body createTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	task, err := h.svc.Create(requestContext(c), currentUserID(c), services.CreateTaskInput{
		ProjectID:    strings.TrimSpace(body.ProjectID),
		ParentTaskID: body.ParentTaskID,
		Title:        body.Title,
		Description:  body.Description,
		Status:       models.TaskStatus(body.Status),
		Priority:     models.TaskPriority(body.Priority),
		Type:         models.TaskType(body.Type),
		AssigneeID:   body.AssigneeID,
		DueDate:      body.DueDate,
		OrderIndex:   body.OrderIndex,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.svc.Get(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var body updateTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	input := services.UpdateTaskInput{
		Title:         body.Title,
		Description:   body.Description,
		AssigneeID:    body.AssigneeID,
		ClearAssignee: body.ClearAssignee,
		DueDate:       body.DueDate,
		ClearDueDate:  body.ClearDueDate,
		ParentTaskID:  body.ParentTaskID,
		ClearParent:   body.ClearParent,
		OrderIndex:    body.OrderIndex,
	}
	if body.Status != nil {
		status := models.TaskStatus(*body.Status)
		input.Status = &status
	}
	if body.Priority != nil {
		priority := models.TaskPriority(*body.Priority)
		input.Priority = &priority
	}
	if body.Type != nil {
		taskType := models.TaskType(*body.Type)
		input.Type = &taskType
	}

	task, err := h.svc.Update(requestContext(c), currentUserID(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/tasks/:id/subtasks
func (h *TaskHandler) AddSubtask(c *gin.Context) {
	var body createSubtaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	subtask, err := h.svc.AddSubtask(requestContext(c), currentUserID(c), c.Param("id"), body.Title)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subtask)
}

// PATCH /api/tasks/subtasks/:id
func (h *TaskHandler) UpdateSubtask(c *gin.Context) {
	var body updateSubtaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Title == nil && body.Completed == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	subtask, err := h.svc.UpdateSubtask(requestContext(c), currentUserID(c), c.Param("id"), services.UpdateSubtaskInput{
		Title:     body.Title,
		Completed: body.Completed,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, subtask)
}

// DELETE /api/tasks/subtasks/:id
func (h *TaskHandler) DeleteSubtask(c *gin.Context) {
	if err := h.svc.DeleteSubtask(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
