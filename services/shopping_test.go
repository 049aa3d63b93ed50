package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAggregateMealPlanMergesByNameAndUnit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	weekStart := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	// Flour appears in two recipes with different casing; tomatoes once.
	mock.ExpectQuery("SELECT ri.name, ri.unit, ri.quantity").
		WillReturnRows(sqlmock.NewRows([]string{"name", "unit", "quantity"}).
			AddRow("Flour", "g", 500.0).
			AddRow("flour", "g", 250.0).
			AddRow("Tomatoes", "pcs", 4.0))

	mock.ExpectBegin()
	// flour matches an existing item, quantity is incremented
	mock.ExpectQuery("SELECT id, quantity FROM shopping_items").
		WithArgs("list-1", "flour", "g").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow("item-1", 100.0))
	mock.ExpectExec("UPDATE shopping_items").
		WithArgs(750.0, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// tomatoes are new
	mock.ExpectQuery("SELECT id, quantity FROM shopping_items").
		WithArgs("list-1", "tomatoes", "pcs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}))
	mock.ExpectExec("INSERT INTO shopping_items").
		WithArgs("list-1", "Tomatoes", 4.0, "pcs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE shopping_lists").
		WithArgs("list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewShoppingService(db)
	merged, err := svc.AggregateMealPlan(context.Background(), "fam-1", "list-1", weekStart)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(merged) != 2 {
		t.Fatalf("expected 2 merged ingredients, got %d", len(merged))
	}
	if merged[0].Name != "Flour" || merged[0].Quantity != 750 {
		t.Fatalf("unexpected first ingredient: %+v", merged[0])
	}
	if merged[1].Name != "Tomatoes" || merged[1].Quantity != 4 {
		t.Fatalf("unexpected second ingredient: %+v", merged[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAggregateMealPlanTwiceDoublesQuantities(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	weekStart := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	planRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"name", "unit", "quantity"}).
			AddRow("Milk", "l", 2.0)
	}

	// first run: item does not exist yet, inserted at 2
	mock.ExpectQuery("SELECT ri.name, ri.unit, ri.quantity").
		WillReturnRows(planRows())
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, quantity FROM shopping_items").
		WithArgs("list-1", "milk", "l").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}))
	mock.ExpectExec("INSERT INTO shopping_items").
		WithArgs("list-1", "Milk", 2.0, "l").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE shopping_lists").
		WithArgs("list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// second run against the unchanged plan: the same item is incremented to 4
	mock.ExpectQuery("SELECT ri.name, ri.unit, ri.quantity").
		WillReturnRows(planRows())
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, quantity FROM shopping_items").
		WithArgs("list-1", "milk", "l").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow("item-1", 2.0))
	mock.ExpectExec("UPDATE shopping_items").
		WithArgs(2.0, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE shopping_lists").
		WithArgs("list-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewShoppingService(db)
	if _, err := svc.AggregateMealPlan(context.Background(), "fam-1", "list-1", weekStart); err != nil {
		t.Fatalf("first aggregate: %v", err)
	}
	merged, err := svc.AggregateMealPlan(context.Background(), "fam-1", "list-1", weekStart)
	if err != nil {
		t.Fatalf("second aggregate: %v", err)
	}

	// the second merge adds the full weekly quantity again on top of the
	// stored 2, leaving the list item at 4
	if len(merged) != 1 || merged[0].Quantity != 2 {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAggregateMealPlanEmptyWeek(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT ri.name, ri.unit, ri.quantity").
		WillReturnRows(sqlmock.NewRows([]string{"name", "unit", "quantity"}))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	svc := NewShoppingService(db)
	_, err = svc.AggregateMealPlan(context.Background(), "fam-1", "list-1", time.Now())
	if !errors.Is(err, ErrNoPlanEntries) {
		t.Fatalf("expected ErrNoPlanEntries, got %v", err)
	}
}

func TestAggregateMealPlanEntriesWithoutIngredients(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT ri.name, ri.unit, ri.quantity").
		WillReturnRows(sqlmock.NewRows([]string{"name", "unit", "quantity"}))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	svc := NewShoppingService(db)
	_, err = svc.AggregateMealPlan(context.Background(), "fam-1", "list-1", time.Now())
	if !errors.Is(err, ErrNoIngredients) {
		t.Fatalf("expected ErrNoIngredients, got %v", err)
	}
}
