package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/famconomy/famconomy-api/utils"
)

var (
	// ErrNoPlanEntries is returned when the week has no meal-plan entries
	ErrNoPlanEntries = errors.New("no meal plan entries for week")
	// ErrNoIngredients is returned when the plan's recipes carry no ingredients
	ErrNoIngredients = errors.New("meal plan has no ingredients")
)

type ShoppingService struct {
	db *sql.DB
}

func NewShoppingService(db *sql.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

type ingredientKey struct {
	name string
	unit string
}

type AggregatedIngredient struct {
	Name     string
	Unit     string
	Quantity float64
}

// AggregateMealPlan merges one week's meal-plan ingredients into a shopping
// list. Ingredients are summed by case-insensitive (name, unit); a matching
// existing item has its quantity incremented, otherwise a new item is
// inserted. The whole merge runs in one transaction.
//
// Running this twice against an unchanged plan/list pair doubles quantities;
// that is the documented behavior, not a bug to paper over here.
func (s *ShoppingService) AggregateMealPlan(ctx context.Context, familyID, listID string, weekStart time.Time) ([]AggregatedIngredient, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)

	rows, err := s.db.QueryContext(ctx, `
		SELECT ri.name, ri.unit, ri.quantity
		FROM meal_plan_entries mpe
		JOIN recipes r ON mpe.recipe_id = r.id
		JOIN recipe_ingredients ri ON ri.recipe_id = r.id
		WHERE mpe.family_id = $1 AND mpe.plan_date >= $2 AND mpe.plan_date < $3
	`, familyID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hasEntries bool
	accumulator := make(map[ingredientKey]*AggregatedIngredient)
	var order []ingredientKey
	for rows.Next() {
		hasEntries = true
		var name, unit string
		var quantity float64
		if err := rows.Scan(&name, &unit, &quantity); err != nil {
			return nil, err
		}

		key := ingredientKey{name: strings.ToLower(name), unit: strings.ToLower(unit)}
		if acc, ok := accumulator[key]; ok {
			acc.Quantity += quantity
		} else {
			accumulator[key] = &AggregatedIngredient{Name: name, Unit: unit, Quantity: quantity}
			order = append(order, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !hasEntries {
		// Distinguish "no entries" from "entries without ingredients"
		var entryCount int
		if err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM meal_plan_entries
			WHERE family_id = $1 AND plan_date >= $2 AND plan_date < $3
		`, familyID, weekStart, weekEnd).Scan(&entryCount); err != nil {
			return nil, err
		}
		if entryCount == 0 {
			return nil, ErrNoPlanEntries
		}
		return nil, ErrNoIngredients
	}

	if len(accumulator) == 0 {
		return nil, ErrNoIngredients
	}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		for _, key := range order {
			acc := accumulator[key]

			var itemID string
			var existingQty float64
			err := tx.QueryRowContext(ctx, `
				SELECT id, quantity FROM shopping_items
				WHERE list_id = $1 AND LOWER(name) = $2 AND LOWER(unit) = $3
				LIMIT 1
			`, listID, key.name, key.unit).Scan(&itemID, &existingQty)

			switch {
			case err == sql.ErrNoRows:
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO shopping_items (list_id, name, quantity, unit)
					VALUES ($1, $2, $3, $4)
				`, listID, acc.Name, acc.Quantity, acc.Unit); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if _, err := tx.ExecContext(ctx, `
					UPDATE shopping_items
					SET quantity = quantity + $1, updated_at = NOW()
					WHERE id = $2
				`, acc.Quantity, itemID); err != nil {
					return err
				}
			}
		}

		_, err := tx.ExecContext(ctx, `UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1`, listID)
		return err
	})
	if err != nil {
		return nil, err
	}

	merged := make([]AggregatedIngredient, 0, len(order))
	for _, key := range order {
		merged = append(merged, *accumulator[key])
	}
	return merged, nil
}
