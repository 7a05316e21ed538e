package consts

import "credit-scoring-service/internal/pkg/models"

var (
	ErrorConfiguration = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_CONFIGURATION_INVALID",
		Message: "Configuration invalid",
	}
	ErrorNetwork = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_NETWORK_UNREACHABLE",
		Message: "Chain RPC endpoint unreachable",
	}
	ErrorContract = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_CONTRACT_CALL_REVERTED",
		Message: "Contract call reverted",
	}
	ErrorTimeout = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_OPERATION_TIMEOUT",
		Message: "Operation exceeded deadline",
	}
	ErrorNotFound = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_BORROWER_NOT_FOUND",
		Message: "Borrower not found on-chain",
	}
	ErrorCache = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_CACHE_OPERATION_FAILED",
		Message: "Cache operation failed",
	}
	ErrorRetryExhausted = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_TRANSACTION_RETRY_EXHAUSTED",
		Message: "Transaction retries exhausted",
	}
	ErrorDecode = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_CONTRACT_RESPONSE_DECODE_FAILED",
		Message: "Malformed contract response",
	}
	ErrorChainIDMismatch = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_CONFIGURATION_CHAIN_ID_MISMATCH",
		Message: "Connected network chain id does not match configuration",
	}
	ErrorNidFormatValidationFailed = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_VALIDATION_NID_FORMAT_INVALID",
		Message: "NID parameter validation failed",
	}
	ErrorAmountValidationFailed = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_VALIDATION_AMOUNT_INVALID",
		Message: "Amount parameter validation failed",
	}
	ErrorIneligibleCreditScore = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_VALIDATION_CREDIT_SCORE_NOT_ELIGIBLE",
		Message: "Credit score not eligible for requested loan",
	}
	ErrorTransactionInProgress = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_VALIDATION_DUPLICATE_REQUEST",
		Message: "Transaction in progress",
	}
	ErrorTransactionNotTracked = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_TRANSACTION_NOT_TRACKED",
		Message: "Transaction hash is not tracked",
	}
	ErrorNoDocumentFound = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_INTERNAL_ERROR_NO_DOCUMENTS_FOUND",
		Message: "No documents in result",
	}
	ErrorStartupIncomplete = &models.CustomError{
		Code:    "CREDITCHAIN_SCORING_STARTUP_INCOMPLETE",
		Message: "Startup sequence has not completed",
	}
)
