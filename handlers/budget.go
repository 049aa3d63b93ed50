package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
)

type BudgetHandler struct {
	DB *sql.DB
}

// verifyBudgetAccess derives membership through the budget's family
func (h *BudgetHandler) verifyBudgetAccess(budgetID, userID string) (string, bool, error) {
	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM budgets WHERE id = $1`, budgetID).Scan(&familyID)
	if err != nil {
		return "", false, err
	}
	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, userID)
	return familyID, isMember, err
}

// CreateBudget creates a budget for a family
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var budget models.Budget
	err = h.DB.QueryRow(`
		INSERT INTO budgets (family_id, name, category, monthly_limit, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, family_id, name, category, monthly_limit, created_by, created_at, updated_at
	`, req.FamilyID, req.Name, req.Category, req.MonthlyLimit, userID).Scan(
		&budget.ID, &budget.FamilyID, &budget.Name, &budget.Category,
		&budget.MonthlyLimit, &budget.CreatedBy, &budget.CreatedAt, &budget.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create budget"})
		return
	}

	c.JSON(http.StatusCreated, budget)
}

// GetBudgets lists a family's budgets with amount spent per budget
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	rows, err := h.DB.Query(`
		SELECT b.id, b.family_id, b.name, b.category, b.monthly_limit, b.created_by,
		       b.created_at, b.updated_at,
		       COALESCE((SELECT SUM(t.amount) FROM transactions t WHERE t.budget_id = b.id), 0)
		FROM budgets b
		WHERE b.family_id = $1
		ORDER BY b.created_at DESC
	`, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch budgets"})
		return
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		var b models.Budget
		var createdBy sql.NullString
		if err := rows.Scan(&b.ID, &b.FamilyID, &b.Name, &b.Category, &b.MonthlyLimit,
			&createdBy, &b.CreatedAt, &b.UpdatedAt, &b.Spent); err != nil {
			continue
		}
		b.CreatedBy = createdBy.String
		budgets = append(budgets, b)
	}

	c.JSON(http.StatusOK, budgets)
}

// UpdateBudget updates a budget's fields
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID := middleware.GetUserID(c)
	budgetID := c.Param("id")

	_, isMember, err := h.verifyBudgetAccess(budgetID, userID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
		return
	}
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req models.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = h.DB.Exec(`
		UPDATE budgets
		SET name = COALESCE($1, name),
		    category = COALESCE($2, category),
		    monthly_limit = COALESCE($3, monthly_limit),
		    updated_at = $4
		WHERE id = $5
	`, req.Name, req.Category, req.MonthlyLimit, time.Now(), budgetID)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update budget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget updated"})
}

// DeleteBudget removes a budget and its transactions
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID := middleware.GetUserID(c)
	budgetID := c.Param("id")

	_, isMember, err := h.verifyBudgetAccess(budgetID, userID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
		return
	}
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM budgets WHERE id = $1`, budgetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete budget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}

// CreateTransaction records spending against a budget
func (h *BudgetHandler) CreateTransaction(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, isMember, err := h.verifyBudgetAccess(req.BudgetID, userID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
		return
	}
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	var tx models.Transaction
	err = h.DB.QueryRow(`
		INSERT INTO transactions (budget_id, amount, category, note, occurred_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, budget_id, amount, category, note, occurred_at, created_by, created_at
	`, req.BudgetID, req.Amount, req.Category, req.Note, occurredAt, userID).Scan(
		&tx.ID, &tx.BudgetID, &tx.Amount, &tx.Category, &tx.Note,
		&tx.OccurredAt, &tx.CreatedBy, &tx.CreatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// GetTransactions lists a budget's transactions
func (h *BudgetHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	budgetID := c.Param("id")

	_, isMember, err := h.verifyBudgetAccess(budgetID, userID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
		return
	}
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, budget_id, amount, category, note, occurred_at, created_by, created_at
		FROM transactions
		WHERE budget_id = $1
		ORDER BY occurred_at DESC
	`, budgetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		var createdBy sql.NullString
		if err := rows.Scan(&tx.ID, &tx.BudgetID, &tx.Amount, &tx.Category, &tx.Note,
			&tx.OccurredAt, &createdBy, &tx.CreatedAt); err != nil {
			continue
		}
		tx.CreatedBy = createdBy.String
		transactions = append(transactions, tx)
	}

	c.JSON(http.StatusOK, transactions)
}

// DeleteTransaction removes a transaction
func (h *BudgetHandler) DeleteTransaction(c *gin.Context) {
	userID := middleware.GetUserID(c)
	txID := c.Param("id")

	var budgetID string
	err := h.DB.QueryRow(`SELECT budget_id FROM transactions WHERE id = $1`, txID).Scan(&budgetID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	_, isMember, err := h.verifyBudgetAccess(budgetID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM transactions WHERE id = $1`, txID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// CreateSavingsGoal creates a family savings goal
func (h *BudgetHandler) CreateSavingsGoal(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateSavingsGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var goal models.SavingsGoal
	err = h.DB.QueryRow(`
		INSERT INTO savings_goals (family_id, name, target_amount, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, family_id, name, target_amount, current_amount, created_by, created_at, updated_at
	`, req.FamilyID, req.Name, req.TargetAmount, userID).Scan(
		&goal.ID, &goal.FamilyID, &goal.Name, &goal.TargetAmount,
		&goal.CurrentAmount, &goal.CreatedBy, &goal.CreatedAt, &goal.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create savings goal"})
		return
	}

	c.JSON(http.StatusCreated, goal)
}

// GetSavingsGoals lists a family's savings goals
func (h *BudgetHandler) GetSavingsGoals(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	rows, err := h.DB.Query(`
		SELECT id, family_id, name, target_amount, current_amount, created_by, created_at, updated_at
		FROM savings_goals
		WHERE family_id = $1
		ORDER BY created_at DESC
	`, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch savings goals"})
		return
	}
	defer rows.Close()

	goals := []models.SavingsGoal{}
	for rows.Next() {
		var g models.SavingsGoal
		var createdBy sql.NullString
		if err := rows.Scan(&g.ID, &g.FamilyID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&createdBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			continue
		}
		g.CreatedBy = createdBy.String
		goals = append(goals, g)
	}

	c.JSON(http.StatusOK, goals)
}

// Contribute adds an amount to a savings goal
func (h *BudgetHandler) Contribute(c *gin.Context) {
	userID := middleware.GetUserID(c)
	goalID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM savings_goals WHERE id = $1`, goalID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Savings goal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, familyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req models.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var newAmount float64
	err = h.DB.QueryRow(`
		UPDATE savings_goals
		SET current_amount = current_amount + $1, updated_at = $2
		WHERE id = $3
		RETURNING current_amount
	`, req.Amount, time.Now(), goalID).Scan(&newAmount)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to contribute"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"current_amount": newAmount})
}
