package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/famconomy/famconomy-api/middleware"
	"github.com/famconomy/famconomy-api/models"
	"github.com/famconomy/famconomy-api/utils"
)

type RecipeHandler struct {
	DB *sql.DB
}

// CreateRecipe inserts a recipe and its ingredients in one transaction
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	servings := req.Servings
	if servings == 0 {
		servings = 1
	}

	var recipe models.Recipe
	err = utils.WithTransaction(h.DB, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
			INSERT INTO recipes (family_id, name, description, instructions, servings, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, family_id, name, description, instructions, servings, created_by, created_at, updated_at
		`, req.FamilyID, req.Name, req.Description, req.Instructions, servings, userID).Scan(
			&recipe.ID, &recipe.FamilyID, &recipe.Name, &recipe.Description,
			&recipe.Instructions, &recipe.Servings, &recipe.CreatedBy,
			&recipe.CreatedAt, &recipe.UpdatedAt)
		if err != nil {
			return err
		}

		for _, ing := range req.Ingredients {
			var row models.RecipeIngredient
			err := tx.QueryRow(`
				INSERT INTO recipe_ingredients (recipe_id, name, quantity, unit)
				VALUES ($1, $2, $3, $4)
				RETURNING id, recipe_id, name, quantity, unit
			`, recipe.ID, ing.Name, ing.Quantity, ing.Unit).Scan(
				&row.ID, &row.RecipeID, &row.Name, &row.Quantity, &row.Unit)
			if err != nil {
				return err
			}
			recipe.Ingredients = append(recipe.Ingredients, row)
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// GetRecipes lists a family's recipes without ingredients
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	rows, err := h.DB.Query(`
		SELECT id, family_id, name, description, instructions, servings, created_by, created_at, updated_at
		FROM recipes
		WHERE family_id = $1
		ORDER BY name
	`, familyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		var r models.Recipe
		var createdBy sql.NullString
		if err := rows.Scan(&r.ID, &r.FamilyID, &r.Name, &r.Description, &r.Instructions,
			&r.Servings, &createdBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
			continue
		}
		r.CreatedBy = createdBy.String
		recipes = append(recipes, r)
	}

	c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns one recipe with its ingredients
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	recipeID := c.Param("id")

	var r models.Recipe
	var createdBy sql.NullString
	err := h.DB.QueryRow(`
		SELECT id, family_id, name, description, instructions, servings, created_by, created_at, updated_at
		FROM recipes
		WHERE id = $1
	`, recipeID).Scan(&r.ID, &r.FamilyID, &r.Name, &r.Description, &r.Instructions,
		&r.Servings, &createdBy, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	r.CreatedBy = createdBy.String

	isMember, err := middleware.VerifyFamilyMembership(h.DB, r.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, recipe_id, name, quantity, unit
		FROM recipe_ingredients
		WHERE recipe_id = $1
		ORDER BY name
	`, recipeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ingredients"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var ing models.RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			continue
		}
		r.Ingredients = append(r.Ingredients, ing)
	}

	c.JSON(http.StatusOK, r)
}

// UpdateRecipe replaces the recipe fields and, when provided, its ingredient set
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	recipeID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM recipes WHERE id = $1`, recipeID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
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

	var req struct {
		Name         *string                          `json:"name"`
		Description  *string                          `json:"description"`
		Instructions *string                          `json:"instructions"`
		Servings     *int                             `json:"servings"`
		Ingredients  []models.CreateIngredientRequest `json:"ingredients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = utils.WithTransaction(h.DB, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE recipes
			SET name = COALESCE($1, name),
			    description = COALESCE($2, description),
			    instructions = COALESCE($3, instructions),
			    servings = COALESCE($4, servings),
			    updated_at = $5
			WHERE id = $6
		`, req.Name, req.Description, req.Instructions, req.Servings, time.Now(), recipeID)
		if err != nil {
			return err
		}

		if req.Ingredients == nil {
			return nil
		}

		if _, err := tx.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
			return err
		}
		for _, ing := range req.Ingredients {
			_, err := tx.Exec(`
				INSERT INTO recipe_ingredients (recipe_id, name, quantity, unit)
				VALUES ($1, $2, $3, $4)
			`, recipeID, ing.Name, ing.Quantity, ing.Unit)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe updated"})
}

// DeleteRecipe removes a recipe; meal plan entries referencing it cascade
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	recipeID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM recipes WHERE id = $1`, recipeID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
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

	if _, err := h.DB.Exec(`DELETE FROM recipes WHERE id = $1`, recipeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted"})
}

// CreateMealPlanEntry schedules a recipe for a date
func (h *RecipeHandler) CreateMealPlanEntry(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateMealPlanEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := time.Parse("2006-01-02", req.PlanDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_date must be YYYY-MM-DD"})
		return
	}

	isMember, err := middleware.VerifyFamilyMembership(h.DB, req.FamilyID, userID)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var recipeFamily string
	err = h.DB.QueryRow(`SELECT family_id FROM recipes WHERE id = $1`, req.RecipeID).Scan(&recipeFamily)
	if err == sql.ErrNoRows || (err == nil && recipeFamily != req.FamilyID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	mealType := req.MealType
	if mealType == "" {
		mealType = "dinner"
	}

	var entry models.MealPlanEntry
	var planDate time.Time
	err = h.DB.QueryRow(`
		INSERT INTO meal_plan_entries (family_id, recipe_id, plan_date, meal_type, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, family_id, recipe_id, plan_date, meal_type, created_by, created_at
	`, req.FamilyID, req.RecipeID, req.PlanDate, mealType, userID).Scan(
		&entry.ID, &entry.FamilyID, &entry.RecipeID, &planDate,
		&entry.MealType, &entry.CreatedBy, &entry.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create meal plan entry"})
		return
	}
	entry.PlanDate = planDate.Format("2006-01-02")

	c.JSON(http.StatusCreated, entry)
}

// GetMealPlan lists the entries for a week starting at ?week_start
func (h *RecipeHandler) GetMealPlan(c *gin.Context) {
	familyID := c.GetString(middleware.ContextFamilyID)

	weekStartStr := c.Query("week_start")
	if weekStartStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week_start is required"})
		return
	}
	weekStart, err := time.Parse("2006-01-02", weekStartStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week_start must be YYYY-MM-DD"})
		return
	}
	weekEnd := weekStart.AddDate(0, 0, 7)

	rows, err := h.DB.Query(`
		SELECT m.id, m.family_id, m.recipe_id, r.name, m.plan_date, m.meal_type, m.created_by, m.created_at
		FROM meal_plan_entries m
		JOIN recipes r ON r.id = m.recipe_id
		WHERE m.family_id = $1 AND m.plan_date >= $2 AND m.plan_date < $3
		ORDER BY m.plan_date, m.meal_type
	`, familyID, weekStart, weekEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch meal plan"})
		return
	}
	defer rows.Close()

	entries := []models.MealPlanEntry{}
	for rows.Next() {
		var e models.MealPlanEntry
		var planDate time.Time
		var createdBy sql.NullString
		if err := rows.Scan(&e.ID, &e.FamilyID, &e.RecipeID, &e.RecipeName, &planDate,
			&e.MealType, &createdBy, &e.CreatedAt); err != nil {
			continue
		}
		e.PlanDate = planDate.Format("2006-01-02")
		e.CreatedBy = createdBy.String
		entries = append(entries, e)
	}

	c.JSON(http.StatusOK, entries)
}

// DeleteMealPlanEntry removes one planned meal
func (h *RecipeHandler) DeleteMealPlanEntry(c *gin.Context) {
	userID := middleware.GetUserID(c)
	entryID := c.Param("id")

	var familyID string
	err := h.DB.QueryRow(`SELECT family_id FROM meal_plan_entries WHERE id = $1`, entryID).Scan(&familyID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meal plan entry not found"})
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

	if _, err := h.DB.Exec(`DELETE FROM meal_plan_entries WHERE id = $1`, entryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete meal plan entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Meal plan entry deleted"})
}
