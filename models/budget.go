package models

import "time"

type Budget struct {
	ID           string    `json:"id"`
	FamilyID     string    `json:"family_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	MonthlyLimit float64   `json:"monthly_limit"`
	Spent        float64   `json:"spent"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateBudgetRequest struct {
	FamilyID     string  `json:"family_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category"`
	MonthlyLimit float64 `json:"monthly_limit"`
}

type UpdateBudgetRequest struct {
	Name         *string  `json:"name"`
	Category     *string  `json:"category"`
	MonthlyLimit *float64 `json:"monthly_limit"`
}

type Transaction struct {
	ID         string    `json:"id"`
	BudgetID   string    `json:"budget_id"`
	Amount     float64   `json:"amount"`
	Category   string    `json:"category"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateTransactionRequest struct {
	BudgetID   string     `json:"budget_id" binding:"required"`
	Amount     float64    `json:"amount" binding:"required"`
	Category   string     `json:"category"`
	Note       string     `json:"note"`
	OccurredAt *time.Time `json:"occurred_at"`
}

type SavingsGoal struct {
	ID            string    `json:"id"`
	FamilyID      string    `json:"family_id"`
	Name          string    `json:"name"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateSavingsGoalRequest struct {
	FamilyID     string  `json:"family_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	TargetAmount float64 `json:"target_amount" binding:"required"`
}

type ContributeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}
