package ffi

// Field widths shared by the flat records.
const (
	OrderIDLen = 64
	SymbolLen  = 16
	MessageLen = 256
	VenueLen   = 32
	ClientLen  = 64
	FillIDLen  = 64
)

// OrderRequest is the flat submission record.
type OrderRequest struct {
	OrderID     [OrderIDLen]byte
	Symbol      [SymbolLen]byte
	OrderType   OrderType
	Side        Side
	Quantity    float64
	Price       float64
	StopPrice   float64
	TimeInForce TimeInForce
	TimestampNS int64
	ClientID    [ClientLen]byte
}

// OrderResponse is the flat execution outcome record.
type OrderResponse struct {
	OrderID          [OrderIDLen]byte
	Result           ExecutionResult
	Status           OrderStatus
	Message          [MessageLen]byte
	ExecutedQuantity float64
	AveragePrice     float64
	ExecutionTimeNS  int64
	LatencyMicros    int64
}

// OrderFill is the flat record delivered to fill callbacks.
type OrderFill struct {
	FillID      [FillIDLen]byte
	OrderID     [OrderIDLen]byte
	Price       float64
	Quantity    float64
	Fee         float64
	TimestampNS int64
	Venue       [VenueLen]byte
}

// BookSnapshot is the flat top-of-book view.
type BookSnapshot struct {
	Symbol      [SymbolLen]byte
	TimestampNS int64
	BidPrice    float64
	AskPrice    float64
	BidSize     float64
	AskSize     float64
	LastPrice   float64
	LastSize    float64
}

// EngineMetrics is the flat metrics snapshot record.
type EngineMetrics struct {
	TotalOrdersProcessed uint64
	SuccessfulExecutions uint64
	FailedExecutions     uint64
	ActiveOrders         uint64
	AverageLatencyMicros float64
	P99LatencyMicros     float64
	OrdersPerSecond      float64
	MemoryUsageBytes     uint64
	CPUUsagePercent      float64
	UptimeSeconds        int64
}

// SetString copies s into dst, truncating if needed and always leaving
// room for the NUL terminator clients expect.
func SetString(dst []byte, s string) {
	n := copy(dst, s)
	if n >= len(dst) {
		n = len(dst) - 1
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// GetString reads a NUL-terminated string out of src.
func GetString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}
