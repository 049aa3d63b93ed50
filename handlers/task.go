package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
)

type TaskHandler struct {
	DB *sql.DB
	WS *WSHandler
}

// CreateTask creates a task inside the caller's family
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	approvalStatus := models.ApprovalNotRequired
	if req.RequireApproval {
		approvalStatus = models.ApprovalPending
	}

	var task models.Task
	var assignedTo sql.NullString
	err = h.DB.QueryRow(`
		INSERT INTO tasks (family_id, title, description, due_date, assigned_to, created_by,
		                   reward_type, reward_amount, category, recurrence, approval_status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)
		RETURNING id, family_id, title, description, due_date, assigned_to, created_by,
		          reward_type, reward_amount, category, recurrence, status, approval_status,
		          created_at, updated_at
	`, req.FamilyID, req.Title, req.Description, req.DueDate, req.AssignedTo, userID,
		req.RewardType, req.RewardAmount, req.Category, req.Recurrence, approvalStatus).Scan(
		&task.ID, &task.FamilyID, &task.Title, &task.Description, &task.DueDate, &assignedTo,
		&task.CreatedBy, &task.RewardType, &task.RewardAmount, &task.Category, &task.Recurrence,
		&task.Status, &task.ApprovalStatus, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	task.AssignedTo = assignedTo.String

	h.WS.Broadcast(task.FamilyID, "task:created", task)
	c.JSON(http.StatusCreated, task)
}

// GetTasks lists tasks for a family, optionally filtered by status or assignee
func (h *TaskHandler) GetTasks(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	query := `
		SELECT id, family_id, title, description, due_date, assigned_to, created_by,
		       reward_type, reward_amount, category, recurrence, status, approval_status,
		       created_at, updated_at
		FROM tasks
		WHERE family_id = $1`
	args := []interface{}{familyID}
	argIdx := 2

	if status := c.Query("status"); status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		query += fmt.Sprintf(" AND assigned_to = $%d", argIdx)
		args = append(args, assignee)
		argIdx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			continue
		}
		tasks = append(tasks, task)
	}

	c.JSON(http.StatusOK, tasks)
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID := middleware.GetUserID(c)
	taskID := c.Param("id")

	task, err := h.loadTask(taskID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Membership derived through the task's family
	isMember, err := middleware.VerifyFamilyMembership(h.DB, task.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies field updates; status and approval are independent axes
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID := middleware.GetUserID(c)
	taskID := c.Param("id")

	task, err := h.loadTask(taskID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, task.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&task.Title, req.Title)
	applyString(&task.Description, req.Description)
	applyString(&task.RewardType, req.RewardType)
	applyString(&task.Category, req.Category)
	applyString(&task.Recurrence, req.Recurrence)
	applyString(&task.Status, req.Status)
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AssignedTo != nil {
		task.AssignedTo = *req.AssignedTo
	}
	if req.RewardAmount != nil {
		task.RewardAmount = *req.RewardAmount
	}

	_, err = h.DB.Exec(`
		UPDATE tasks
		SET title = $1, description = $2, due_date = $3, assigned_to = NULLIF($4, ''),
		    reward_type = $5, reward_amount = $6, category = $7, recurrence = $8,
		    status = $9, updated_at = $10
		WHERE id = $11
	`, task.Title, task.Description, task.DueDate, task.AssignedTo,
		task.RewardType, task.RewardAmount, task.Category, task.Recurrence,
		task.Status, time.Now(), taskID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	h.WS.Broadcast(task.FamilyID, "task:updated", task)
	c.JSON(http.StatusOK, task)
}

// UpdateApproval changes the approval status; children cannot approve
func (h *TaskHandler) UpdateApproval(c *gin.Context) {
	userID := middleware.GetUserID(c)
	taskID := c.Param("id")

	task, err := h.loadTask(taskID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	role, err := middleware.GetMemberRole(h.DB, task.FamilyID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	if role == models.RoleChild {
		c.JSON(http.StatusForbidden, gin.H{"error": "Children cannot change approval status"})
		return
	}

	var req models.UpdateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = h.DB.Exec(`
		UPDATE tasks SET approval_status = $1, updated_at = $2 WHERE id = $3
	`, req.ApprovalStatus, time.Now(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update approval status"})
		return
	}

	task.ApprovalStatus = req.ApprovalStatus
	h.WS.Broadcast(task.FamilyID, "task:approval", task)
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID := middleware.GetUserID(c)
	taskID := c.Param("id")

	task, err := h.loadTask(taskID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, task.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM tasks WHERE id = $1`, taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.WS.Broadcast(task.FamilyID, "task:deleted", gin.H{"id": taskID})
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *TaskHandler) loadTask(taskID string) (models.Task, error) {
	row := h.DB.QueryRow(`
		SELECT id, family_id, title, description, due_date, assigned_to, created_by,
		       reward_type, reward_amount, category, recurrence, status, approval_status,
		       created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, taskID)
	return scanTask(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var assignedTo, createdBy sql.NullString
	err := row.Scan(&task.ID, &task.FamilyID, &task.Title, &task.Description, &task.DueDate,
		&assignedTo, &createdBy, &task.RewardType, &task.RewardAmount, &task.Category,
		&task.Recurrence, &task.Status, &task.ApprovalStatus, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return task, err
	}
	task.AssignedTo = assignedTo.String
	task.CreatedBy = createdBy.String
	return task, nil
}
