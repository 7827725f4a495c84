package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	if !IsUniqueViolation(dup) {
		t.Fatal("direct unique violation not detected")
	}
	if !IsUniqueViolation(fmt.Errorf("insert user: %w", dup)) {
		t.Fatal("wrapped unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation misclassified")
	}
	if IsUniqueViolation(errors.New("connection reset")) {
		t.Fatal("plain error misclassified")
	}
}
