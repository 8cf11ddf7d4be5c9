package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

// SQLSTATE codes treated as transient lock contention.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// sqlState extracts the SQLSTATE from either driver's error type.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isLockContention(err error) bool {
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// classify tags lock contention errors with repository.ErrLockContention.
func classify(err error) error {
	if err == nil || errors.Is(err, repository.ErrLockContention) {
		return err
	}
	if isLockContention(err) {
		return fmt.Errorf("%w: %w", repository.ErrLockContention, err)
	}
	return err
}
