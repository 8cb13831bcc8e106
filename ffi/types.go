// Package ffi defines the ABI-flat boundary consumed by host-language
// bindings. Record layouts and enum values are bit-exact with the C
// header clients compile against; strings travel as fixed-size,
// NUL-terminated byte arrays.
package ffi

// OrderType identifies how an order is priced and triggered.
type OrderType int32

const (
	OrderTypeMarket       OrderType = 1
	OrderTypeLimit        OrderType = 2
	OrderTypeStop         OrderType = 3
	OrderTypeStopLimit    OrderType = 4
	OrderTypeTrailingStop OrderType = 5
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	case OrderTypeStop:
		return "stop"
	case OrderTypeStopLimit:
		return "stop_limit"
	case OrderTypeTrailingStop:
		return "trailing_stop"
	}
	return "unknown"
}

// Side is the order direction.
type Side int32

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	}
	return "unknown"
}

// OrderStatus tracks an order through its lifecycle. Transitions only
// move forward: PENDING admits to SUBMITTED, fills advance through
// PARTIALLY_FILLED to FILLED, and CANCELLED/REJECTED/EXPIRED are the
// side exits. FILLED, CANCELLED, REJECTED and EXPIRED are terminal.
type OrderStatus int32

const (
	StatusPending         OrderStatus = 1
	StatusSubmitted       OrderStatus = 2
	StatusPartiallyFilled OrderStatus = 3
	StatusFilled          OrderStatus = 4
	StatusCancelled       OrderStatus = 5
	StatusRejected        OrderStatus = 6
	StatusExpired         OrderStatus = 7
)

// IsActive reports whether the order can still receive fills or be cancelled.
func (s OrderStatus) IsActive() bool {
	return s == StatusSubmitted || s == StatusPartiallyFilled
}

// IsTerminal reports whether the order reached a final state.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSubmitted:
		return "submitted"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// TimeInForce governs how long an order stays eligible.
type TimeInForce int32

const (
	TIFGoodTillCancel TimeInForce = 1
	TIFImmediate      TimeInForce = 2
	TIFFillOrKill     TimeInForce = 3
	TIFDay            TimeInForce = 4
	TIFGoodTillDate   TimeInForce = 5
)

func (t TimeInForce) String() string {
	switch t {
	case TIFGoodTillCancel:
		return "gtc"
	case TIFImmediate:
		return "ioc"
	case TIFFillOrKill:
		return "fok"
	case TIFDay:
		return "day"
	case TIFGoodTillDate:
		return "gtd"
	}
	return "unknown"
}

// ExecutionResult is the outcome code returned by every boundary
// operation. Errors are values; nothing unwinds across the boundary.
type ExecutionResult int32

const (
	ResultSuccess               ExecutionResult = 0
	ResultInvalidOrder          ExecutionResult = 1
	ResultInsufficientLiquidity ExecutionResult = 2
	ResultRiskLimitExceeded     ExecutionResult = 3
	ResultTimeout               ExecutionResult = 4
	ResultSystemError           ExecutionResult = 5
	ResultOrderNotFound         ExecutionResult = 6
	ResultMarketClosed          ExecutionResult = 7
)

func (r ExecutionResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultInvalidOrder:
		return "invalid_order"
	case ResultInsufficientLiquidity:
		return "insufficient_liquidity"
	case ResultRiskLimitExceeded:
		return "risk_limit_exceeded"
	case ResultTimeout:
		return "timeout"
	case ResultSystemError:
		return "system_error"
	case ResultOrderNotFound:
		return "order_not_found"
	case ResultMarketClosed:
		return "market_closed"
	}
	return "unknown"
}
