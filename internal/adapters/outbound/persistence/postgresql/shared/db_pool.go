package shared

import (
	stderrors "errors"
	"log"
	"time"

	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const uniqueViolationCode = "23505"

func NewDatabasePool(databaseURL string, logger *log.Logger) *sqlx.DB {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		panic(err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	if logger != nil {
		logger.Printf("database pool initialized")
	}

	return db
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode
}

// UniqueConstraint returns the violated constraint name, or "" for other errors.
func UniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return ""
	}
	return pgErr.ConstraintName
}

func QueryFailed(code string, message string, err error) *apperrors.AppError {
	return apperrors.NewInternal(code, message, map[string]any{"error": err.Error()})
}
