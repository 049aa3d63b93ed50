package services

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var errDBDown = errors.New("connection refused")

func TestConsolidateAllMergesStaleMemories(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT user_id, family_id").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "family_id"}).
			AddRow("user-1", "fam-1"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, content FROM assistant_memories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content"}).
			AddRow("mem-1", "likes pizza fridays").
			AddRow("mem-2", "soccer practice tuesdays"))
	mock.ExpectExec("INSERT INTO assistant_memories").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM assistant_memories").
		WithArgs("mem-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM assistant_memories").
		WithArgs("mem-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewAssistantService(db, quietLogger())
	n, err := svc.ConsolidateAll()
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 consolidated user, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConsolidateAllSkipsFailingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT user_id, family_id").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "family_id"}).
			AddRow("user-1", "fam-1").
			AddRow("user-2", "fam-1"))

	// user-1 fails mid-transaction, user-2 succeeds
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, content FROM assistant_memories").
		WillReturnError(errDBDown)
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, content FROM assistant_memories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content"}).
			AddRow("mem-3", "piano on thursdays"))
	mock.ExpectExec("INSERT INTO assistant_memories").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM assistant_memories").
		WithArgs("mem-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewAssistantService(db, quietLogger())
	n, err := svc.ConsolidateAll()
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 consolidated user, got %d", n)
	}
}
