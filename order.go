package execution

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantfabric/execution-engine/ffi"
)

// The boundary package owns the wire values; the core aliases them.
type (
	Side            = ffi.Side
	OrderType       = ffi.OrderType
	OrderStatus     = ffi.OrderStatus
	TimeInForce     = ffi.TimeInForce
	ExecutionResult = ffi.ExecutionResult
)

const (
	Buy  Side = ffi.SideBuy
	Sell Side = ffi.SideSell
)

const (
	Market       OrderType = ffi.OrderTypeMarket
	Limit        OrderType = ffi.OrderTypeLimit
	Stop         OrderType = ffi.OrderTypeStop
	StopLimit    OrderType = ffi.OrderTypeStopLimit
	TrailingStop OrderType = ffi.OrderTypeTrailingStop
)

// OrderTimeout is the age past which an active order expires. DAY
// time-in-force currently behaves like GTC bounded by this timeout; a
// market-hours source would be needed for true session expiry.
const OrderTimeout = 30 * time.Second

// Fill records one execution against an order.
type Fill struct {
	FillID      string
	OrderID     string
	Price       Price
	Quantity    float64
	Fee         float64
	TimestampNS int64
	Venue       string
}

// Order is a single client intent with its mutable execution state.
// Status and filled quantity are readable without the fill lock; the
// fill history and the weighted average price are mutated only under it.
type Order struct {
	ID          string
	Symbol      string
	Type        OrderType
	Side        Side
	Quantity    float64
	Price       Price
	StopPrice   Price
	TimeInForce TimeInForce
	ClientID    string
	SubmittedAt int64 // unix nano

	status       atomic.Int32
	filledBits   atomic.Uint64 // float64 bits
	avgFillTicks atomic.Int64

	fillMu sync.Mutex
	fills  []Fill

	// pooled marks orders backed by the engine's order pool.
	pooled bool
}

// NewOrder builds an order in PENDING state. A zero submission
// timestamp is replaced with the current clock.
func NewOrder(id, symbol string, typ OrderType, side Side, quantity float64, price, stopPrice Price, tif TimeInForce, clientID string, submittedAt int64) *Order {
	o := &Order{
		ID:          id,
		Symbol:      symbol,
		Type:        typ,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
		StopPrice:   stopPrice,
		TimeInForce: tif,
		ClientID:    clientID,
		SubmittedAt: submittedAt,
	}
	if o.SubmittedAt == 0 {
		o.SubmittedAt = time.Now().UnixNano()
	}
	o.status.Store(int32(ffi.StatusPending))
	return o
}

// reset reinitializes a recycled order in place. Field-wise assignment
// keeps the embedded lock and atomics in their own storage.
func (o *Order) reset(id, symbol string, typ OrderType, side Side, quantity float64, price, stopPrice Price, tif TimeInForce, clientID string, submittedAt int64) {
	o.ID = id
	o.Symbol = symbol
	o.Type = typ
	o.Side = side
	o.Quantity = quantity
	o.Price = price
	o.StopPrice = stopPrice
	o.TimeInForce = tif
	o.ClientID = clientID
	o.SubmittedAt = submittedAt
	if o.SubmittedAt == 0 {
		o.SubmittedAt = time.Now().UnixNano()
	}
	o.status.Store(int32(ffi.StatusPending))
	o.filledBits.Store(0)
	o.avgFillTicks.Store(0)
	o.fillMu.Lock()
	o.fills = o.fills[:0]
	o.fillMu.Unlock()
}

// Validate rejects orders before admission.
func (o *Order) Validate() error {
	if o.ID == "" || o.Symbol == "" {
		return ErrInvalidParam
	}
	if o.Quantity <= 0 {
		return ErrInvalidParam
	}
	if o.Type == Limit && o.Price.Ticks() <= 0 {
		return ErrInvalidParam
	}
	if o.Type == Stop && o.StopPrice.Ticks() <= 0 {
		return ErrInvalidParam
	}
	return nil
}

// Status returns the current lifecycle state.
func (o *Order) Status() OrderStatus {
	return OrderStatus(o.status.Load())
}

// SetStatus overwrites the lifecycle state.
func (o *Order) SetStatus(s OrderStatus) {
	o.status.Store(int32(s))
}

// FilledQuantity returns the quantity filled so far.
func (o *Order) FilledQuantity() float64 {
	return math.Float64frombits(o.filledBits.Load())
}

// RemainingQuantity returns the unfilled quantity.
func (o *Order) RemainingQuantity() float64 {
	return o.Quantity - o.FilledQuantity()
}

// AverageFillPrice returns the size-weighted mean fill price.
func (o *Order) AverageFillPrice() Price {
	return PriceFromTicks(o.avgFillTicks.Load())
}

// IsActive reports whether the order can still fill or be cancelled.
func (o *Order) IsActive() bool {
	return o.Status().IsActive()
}

// IsFullyFilled reports whether the filled quantity covers the order.
func (o *Order) IsFullyFilled() bool {
	return o.FilledQuantity() >= o.Quantity
}

// IsExpired reports whether the order's age exceeds OrderTimeout at
// the given clock reading.
func (o *Order) IsExpired(nowNS int64) bool {
	return nowNS-o.SubmittedAt > int64(OrderTimeout)
}

// AddFill appends a fill, advances the filled quantity and rolls the
// weighted average price forward:
//
//	newAvgTicks = (oldAvgTicks*oldFilled + priceTicks*qty) / newFilled
//
// Status becomes FILLED once the full quantity is covered, otherwise
// PARTIALLY_FILLED.
func (o *Order) AddFill(f Fill) {
	o.fillMu.Lock()
	defer o.fillMu.Unlock()

	o.fills = append(o.fills, f)

	oldFilled := o.FilledQuantity()
	newFilled := oldFilled + f.Quantity
	o.filledBits.Store(math.Float64bits(newFilled))

	oldAvg := o.avgFillTicks.Load()
	newAvg := int64((float64(oldAvg)*oldFilled + float64(f.Price.Ticks())*f.Quantity) / newFilled)
	o.avgFillTicks.Store(newAvg)

	if newFilled >= o.Quantity {
		o.SetStatus(ffi.StatusFilled)
	} else {
		o.SetStatus(ffi.StatusPartiallyFilled)
	}
}

// Fills returns a copy of the fill history.
func (o *Order) Fills() []Fill {
	o.fillMu.Lock()
	defer o.fillMu.Unlock()

	out := make([]Fill, len(o.fills))
	copy(out, o.fills)
	return out
}
