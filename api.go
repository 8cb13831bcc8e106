package execution

import (
	"sync"

	"github.com/quantfabric/execution-engine/ffi"
)

// The boundary surface below mirrors the flat C-style API: one
// process-wide engine, outcome codes instead of errors, caller-owned
// flat records filled in place. Host bindings call these functions;
// Go callers use Engine directly.

var (
	apiMu     sync.Mutex
	apiEngine *Engine
)

// FlatFillCallback receives the flat view of each fill.
type FlatFillCallback func(fill *ffi.OrderFill)

// FlatStatusCallback receives asynchronous terminal transitions.
type FlatStatusCallback func(orderID string, status ffi.OrderStatus, message string)

// Initialize creates the process engine from a JSON config blob.
// Idempotent: repeat calls succeed against the existing instance.
func Initialize(configBlob string) ffi.ExecutionResult {
	apiMu.Lock()
	defer apiMu.Unlock()

	if apiEngine == nil {
		apiEngine = NewEngine()
	}
	if err := apiEngine.Initialize(configBlob); err != nil {
		logger.Error("engine initialization failed", "error", err)
		return resultFromError(err)
	}
	return ffi.ResultSuccess
}

// Start brings the process engine online.
func Start() ffi.ExecutionResult {
	apiMu.Lock()
	defer apiMu.Unlock()

	if apiEngine == nil {
		return ffi.ResultSystemError
	}
	if err := apiEngine.Start(); err != nil {
		return resultFromError(err)
	}
	return ffi.ResultSuccess
}

// Shutdown stops the process engine and destroys the instance. A
// subsequent Initialize builds a fresh engine.
func Shutdown() ffi.ExecutionResult {
	apiMu.Lock()
	defer apiMu.Unlock()

	if apiEngine == nil {
		return ffi.ResultSuccess
	}
	if err := apiEngine.Close(); err != nil {
		logger.Error("engine shutdown failed", "error", err)
		apiEngine = nil
		return resultFromError(err)
	}
	apiEngine = nil
	return ffi.ResultSuccess
}

// IsHealthy reports whether the process engine is running.
func IsHealthy() bool {
	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	return engine != nil && engine.IsHealthy()
}

// SubmitOrder executes one flat order request and fills the caller's
// response record.
func SubmitOrder(req *ffi.OrderRequest, resp *ffi.OrderResponse) ffi.ExecutionResult {
	if req == nil || resp == nil {
		return ffi.ResultInvalidOrder
	}

	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	if engine == nil {
		*resp = ffi.OrderResponse{Result: ffi.ResultSystemError, Status: ffi.StatusRejected}
		resp.OrderID = req.OrderID
		ffi.SetString(resp.Message[:], "engine not initialized")
		return ffi.ResultSystemError
	}

	native := OrderRequest{
		OrderID:     ffi.GetString(req.OrderID[:]),
		Symbol:      ffi.GetString(req.Symbol[:]),
		Type:        req.OrderType,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		TimeInForce: req.TimeInForce,
		TimestampNS: req.TimestampNS,
		ClientID:    ffi.GetString(req.ClientID[:]),
	}

	var out OrderResponse
	result := engine.SubmitOrder(&native, &out)

	*resp = ffi.OrderResponse{
		Result:           out.Result,
		Status:           out.Status,
		ExecutedQuantity: out.ExecutedQuantity,
		AveragePrice:     out.AveragePrice,
		ExecutionTimeNS:  out.ExecutionTimeNS,
		LatencyMicros:    out.LatencyMicros,
	}
	ffi.SetString(resp.OrderID[:], out.OrderID)
	ffi.SetString(resp.Message[:], out.Message)
	return result
}

// CancelOrder cancels an active order by id.
func CancelOrder(orderID string) ffi.ExecutionResult {
	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	if engine == nil {
		return ffi.ResultSystemError
	}
	return engine.CancelOrder(orderID)
}

// GetOrderBook fills the caller's snapshot record with the symbol's
// top of book.
func GetOrderBook(symbol string, snapshot *ffi.BookSnapshot) ffi.ExecutionResult {
	if snapshot == nil {
		return ffi.ResultInvalidOrder
	}

	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	if engine == nil {
		return ffi.ResultSystemError
	}

	native, err := engine.OrderBookSnapshot(symbol)
	if err != nil {
		// unknown symbol reads as a bad request on this surface
		return ffi.ResultInvalidOrder
	}

	*snapshot = ffi.BookSnapshot{
		TimestampNS: native.TimestampNS,
		BidPrice:    native.BidPrice,
		AskPrice:    native.AskPrice,
		BidSize:     native.BidSize,
		AskSize:     native.AskSize,
		LastPrice:   native.LastPrice,
		LastSize:    native.LastSize,
	}
	ffi.SetString(snapshot.Symbol[:], native.Symbol)
	return ffi.ResultSuccess
}

// GetMetrics fills the caller's metrics record.
func GetMetrics(metrics *ffi.EngineMetrics) ffi.ExecutionResult {
	if metrics == nil {
		return ffi.ResultInvalidOrder
	}

	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	if engine == nil {
		return ffi.ResultSystemError
	}
	*metrics = engine.Metrics()
	return ffi.ResultSuccess
}

// RegisterFillCallback wires the flat fill callback. The record handed
// to the callback is recycled on return; callers copy what they keep.
func RegisterFillCallback(cb FlatFillCallback) ffi.ExecutionResult {
	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	if engine == nil {
		return ffi.ResultSystemError
	}

	if cb == nil {
		engine.OnFill(nil)
		return ffi.ResultSuccess
	}
	engine.OnFill(func(fill *Fill) {
		var flat ffi.OrderFill
		flat.Price = fill.Price.Float64()
		flat.Quantity = fill.Quantity
		flat.Fee = fill.Fee
		flat.TimestampNS = fill.TimestampNS
		ffi.SetString(flat.FillID[:], fill.FillID)
		ffi.SetString(flat.OrderID[:], fill.OrderID)
		ffi.SetString(flat.Venue[:], fill.Venue)
		cb(&flat)
	})
	return ffi.ResultSuccess
}

// RegisterStatusCallback wires the flat status callback.
func RegisterStatusCallback(cb FlatStatusCallback) ffi.ExecutionResult {
	apiMu.Lock()
	engine := apiEngine
	apiMu.Unlock()

	if engine == nil {
		return ffi.ResultSystemError
	}

	if cb == nil {
		engine.OnStatus(nil)
		return ffi.ResultSuccess
	}
	engine.OnStatus(func(orderID string, status OrderStatus, message string) {
		cb(orderID, status, message)
	})
	return ffi.ResultSuccess
}
