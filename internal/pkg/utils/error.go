package utils

import (
	"errors"

	"credit-scoring-service/internal/pkg/models"
)

// GetErrorCode extracts the catalog code from an error chain, falling back to
// the generic internal code for unclassified errors.
func GetErrorCode(err error) string {
	var customErr *models.CustomError
	if errors.As(err, &customErr) {
		return customErr.ErrorCode()
	}
	return "CREDITCHAIN_SCORING_INTERNAL_ERROR"
}
