package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Helpers for the repository_test package, which drives services over these
// repositories.

func IntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	requireDB(t)
	return testPool
}

func CleanupAll(t *testing.T) {
	t.Helper()
	cleanupAll(t)
}
