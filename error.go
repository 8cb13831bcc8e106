package execution

import (
	"errors"

	"github.com/quantfabric/execution-engine/ffi"
)

var (
	ErrNotInitialized        = errors.New("engine is not initialized")
	ErrNotFound              = errors.New("not found")
	ErrInvalidParam          = errors.New("the param is invalid")
	ErrShutdown              = errors.New("engine is shutting down")
	ErrInsufficientLiquidity = errors.New("there is not enough depth to fill the order")
	ErrRiskLimit             = errors.New("order exceeds risk limits")
	ErrPoolExhausted         = errors.New("object pool is exhausted")
	ErrTimeout               = errors.New("timeout")
	ErrInternal              = errors.New("internal error")
)

// resultFromError maps internal sentinel errors onto boundary result codes.
func resultFromError(err error) ffi.ExecutionResult {
	switch {
	case err == nil:
		return ffi.ResultSuccess
	case errors.Is(err, ErrInvalidParam):
		return ffi.ResultInvalidOrder
	case errors.Is(err, ErrNotFound):
		return ffi.ResultOrderNotFound
	case errors.Is(err, ErrInsufficientLiquidity):
		return ffi.ResultInsufficientLiquidity
	case errors.Is(err, ErrRiskLimit):
		return ffi.ResultRiskLimitExceeded
	case errors.Is(err, ErrTimeout):
		return ffi.ResultTimeout
	default:
		return ffi.ResultSystemError
	}
}
