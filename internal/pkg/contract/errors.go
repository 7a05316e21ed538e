package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/models"
)

// classifyRPCError maps a raw RPC failure onto the error catalog. The
// original cause stays in the chain so callers can log it.
func classifyRPCError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", consts.ErrorTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", consts.ErrorTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "revert"),
		strings.Contains(msg, "vm exception"):
		return fmt.Errorf("%w: %v", consts.ErrorContract, err)
	case strings.Contains(msg, "abi:"),
		strings.Contains(msg, "cannot unmarshal"),
		strings.Contains(msg, "unpack"):
		return fmt.Errorf("%w: %v", consts.ErrorDecode, err)
	default:
		return fmt.Errorf("%w: %v", consts.ErrorNetwork, err)
	}
}

// IsNotFound reports whether the error means the entity is absent on-chain.
func IsNotFound(err error) bool {
	return errors.Is(err, consts.ErrorNotFound)
}

// IsRetryable reports whether a write may be re-attempted. Configuration and
// contract rejections are structural and never retried; network and timeout
// failures are transient.
func IsRetryable(err error) bool {
	var customErr *models.CustomError
	if !errors.As(err, &customErr) {
		return true
	}
	switch customErr {
	case consts.ErrorConfiguration, consts.ErrorChainIDMismatch,
		consts.ErrorContract, consts.ErrorNotFound, consts.ErrorDecode:
		return false
	default:
		return true
	}
}
