package handlers

import (
	"errors"
	"net/http"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps the error catalog onto HTTP statuses. Transient chain
// failures are 503s so callers know a retry may succeed; structural failures
// are 4xx and retrying is pointless.
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), models.ErrorResponse{
		Code:    utils.GetErrorCode(err),
		Message: err.Error(),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, consts.ErrorNidFormatValidationFailed),
		errors.Is(err, consts.ErrorAmountValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, consts.ErrorNotFound),
		errors.Is(err, consts.ErrorTransactionNotTracked),
		errors.Is(err, consts.ErrorNoDocumentFound):
		return http.StatusNotFound
	case errors.Is(err, consts.ErrorTransactionInProgress):
		return http.StatusConflict
	case errors.Is(err, consts.ErrorContract),
		errors.Is(err, consts.ErrorIneligibleCreditScore):
		return http.StatusUnprocessableEntity
	case errors.Is(err, consts.ErrorTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, consts.ErrorNetwork),
		errors.Is(err, consts.ErrorRetryExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
