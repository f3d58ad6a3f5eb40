package storage

import (
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation проверяет, что ошибка — нарушение уникального ограничения postgres.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
