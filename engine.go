package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"github.com/quantfabric/execution-engine/ffi"
)

// SimVenue is stamped on fills produced against the simulated books.
const SimVenue = "SIM"

// sweepInterval is how often the expiry sweeper runs.
const sweepInterval = time.Second

// FillCallback receives each fill as it happens. The fill record is
// recycled after the callback returns; implementations must copy what
// they keep and must not call back into the engine's mutating
// operations.
type FillCallback func(fill *Fill)

// StatusCallback receives asynchronous terminal transitions
// (cancellation, expiry). Same reentrancy rule as FillCallback.
type StatusCallback func(orderID string, status OrderStatus, message string)

// OrderRequest is the native submission view. The ffi package carries
// the equivalent flat record across the boundary.
type OrderRequest struct {
	OrderID     string
	Symbol      string
	Type        OrderType
	Side        Side
	Quantity    float64
	Price       float64
	StopPrice   float64
	TimeInForce TimeInForce
	TimestampNS int64
	ClientID    string
}

// OrderResponse is the native execution outcome view.
type OrderResponse struct {
	OrderID          string
	Result           ExecutionResult
	Status           OrderStatus
	Message          string
	ExecutedQuantity float64
	AveragePrice     float64
	ExecutionTimeNS  int64
	LatencyMicros    int64
}

// BookSnapshot is the native top-of-book view.
type BookSnapshot struct {
	Symbol      string
	TimestampNS int64
	BidPrice    float64
	AskPrice    float64
	BidSize     float64
	AskSize     float64
	LastPrice   float64
	LastSize    float64
}

// task carries one order through the worker pool. The submitter blocks
// on done so the response still reflects the completed match.
type task struct {
	order  *Order
	result ExecutionResult
	done   chan struct{}
}

// Engine owns the order lifecycle: it routes each submitted request to
// market/limit/stop matching against the per-symbol books, records
// fills, fires callbacks and drives the simulator or feed.
//
// Lock order, leaf to root: book level atomics, per-book guard, the
// active-orders/queue guard, the lifecycle guard. Callbacks fire
// outside every engine-level guard.
type Engine struct {
	cfg     Config
	feeRate decimal.Decimal

	initialized atomic.Bool
	running     atomic.Bool
	healthy     atomic.Bool

	mu     sync.Mutex // lifecycle guard
	books  map[string]*OrderBook
	stopCh chan struct{}
	wg     sync.WaitGroup

	orderMu sync.Mutex
	cond    *sync.Cond
	active  map[string]*Order
	queue   []*task

	stops  *stopRegistry
	expiry *expiryIndex

	orderPool *Pool[Order]
	fillPool  *Pool[Fill]

	metrics *PerformanceMetrics

	journal     FillJournal
	ownsJournal bool

	cbMu     sync.RWMutex
	fillCB   FillCallback
	statusCB StatusCallback
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithJournal wires a fill journal. Overrides the journal_path config.
func WithJournal(j FillJournal) EngineOption {
	return func(e *Engine) { e.journal = j }
}

// NewEngine creates an engine. It accepts no work until Initialize.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		books:   make(map[string]*OrderBook),
		active:  make(map[string]*Order),
		stops:   newStopRegistry(),
		expiry:  newExpiryIndex(),
		metrics: NewPerformanceMetrics(),
	}
	e.cond = sync.NewCond(&e.orderMu)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize parses the config blob, creates the seed books and
// allocates the pools. Idempotent: a repeat call is a successful no-op.
func (e *Engine) Initialize(configBlob string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized.Load() {
		return nil
	}

	cfg, err := ParseConfig(configBlob)
	if err != nil {
		logger.Error("failed to parse config blob", "error", err)
		return ErrInvalidParam
	}
	e.cfg = cfg
	e.feeRate = decimal.NewFromFloat(cfg.FeeRate)

	for _, symbol := range cfg.Symbols {
		e.books[symbol] = NewOrderBook(symbol)
	}

	e.orderPool = NewPool[Order](cfg.MaxConcurrentOrders)
	e.fillPool = NewPool[Fill](cfg.MaxConcurrentOrders * 10)

	if e.journal == nil && cfg.JournalPath != "" {
		j, err := NewSQLiteJournal(cfg.JournalPath)
		if err != nil {
			return err
		}
		e.journal = j
		e.ownsJournal = true
	}

	e.initialized.Store(true)
	return nil
}

// Start spawns the worker pool, the expiry sweeper and the market data
// source (simulator, or feed when configured). Starting a running
// engine is a successful no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	if e.running.Load() {
		return nil
	}

	e.stopCh = make(chan struct{})
	e.running.Store(true)
	e.healthy.Store(true)

	for i := 0; i < e.cfg.WorkerThreads; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	e.wg.Add(1)
	go e.expiryLoop()

	if e.cfg.EnableSimulation {
		sim := newMarketSimulator(e)
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			sim.run(e.stopCh)
		}()
	} else if e.cfg.FeedURL != "" {
		feed := newMarketFeed(e, e.cfg.FeedURL)
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			feed.run(e.stopCh)
		}()
	}

	return nil
}

// Stop clears the running flag, wakes every worker and joins all
// background tasks. Stopping a stopped engine is a successful no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.Load() {
		return nil
	}

	e.running.Store(false)
	e.healthy.Store(false)
	close(e.stopCh)

	e.orderMu.Lock()
	e.cond.Broadcast()
	e.orderMu.Unlock()

	e.wg.Wait()
	return nil
}

// Close releases resources the engine owns, the journal included.
func (e *Engine) Close() error {
	if err := e.Stop(); err != nil {
		return err
	}
	if e.ownsJournal && e.journal != nil {
		err := e.journal.Close()
		e.journal = nil
		e.ownsJournal = false
		return err
	}
	return nil
}

// IsHealthy reports whether the engine is running with no fatal flag set.
func (e *Engine) IsHealthy() bool {
	return e.running.Load() && e.healthy.Load()
}

// Book returns the order book for a symbol, nil when unknown. The
// books map is frozen once Initialize succeeds, so reads need no lock
// beyond the initialized flag.
func (e *Engine) Book(symbol string) *OrderBook {
	if !e.initialized.Load() {
		return nil
	}
	return e.books[symbol]
}

// OnFill registers the fill callback.
func (e *Engine) OnFill(cb FillCallback) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.fillCB = cb
}

// OnStatus registers the status callback.
func (e *Engine) OnStatus(cb StatusCallback) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.statusCB = cb
}

// SubmitOrder validates, admits and executes one order, then populates
// the response with the outcome and latency. The work queue is the
// authoritative execution path: the submitter blocks until a worker
// finishes the match, so the response always reflects the completed
// execution. When the engine is initialized but not started, the match
// runs on the caller's thread.
func (e *Engine) SubmitOrder(req *OrderRequest, resp *OrderResponse) ExecutionResult {
	t0 := time.Now()

	resp.OrderID = req.OrderID
	resp.Result = ffi.ResultSuccess
	resp.Status = ffi.StatusSubmitted

	if !e.initialized.Load() {
		resp.Result = ffi.ResultSystemError
		resp.Status = ffi.StatusRejected
		resp.Message = "engine not initialized"
		return ffi.ResultSystemError
	}

	order := e.newOrder(req)

	if err := order.Validate(); err != nil {
		order.SetStatus(ffi.StatusRejected)
		resp.Result = ffi.ResultInvalidOrder
		resp.Status = ffi.StatusRejected
		resp.Message = "Invalid order parameters"
		e.releaseOrder(order)
		return ffi.ResultInvalidOrder
	}

	if e.cfg.EnableRiskChecks && order.Quantity > e.cfg.MaxPositionSize {
		order.SetStatus(ffi.StatusRejected)
		resp.Result = ffi.ResultRiskLimitExceeded
		resp.Status = ffi.StatusRejected
		resp.Message = "Order size exceeds risk limits"
		e.releaseOrder(order)
		return ffi.ResultRiskLimitExceeded
	}

	order.SetStatus(ffi.StatusSubmitted)

	t := &task{order: order, done: make(chan struct{})}

	e.orderMu.Lock()
	e.active[order.ID] = order
	enqueued := e.running.Load()
	if enqueued {
		e.queue = append(e.queue, t)
		e.cond.Signal()
	}
	e.orderMu.Unlock()
	e.expiry.Add(order)

	if enqueued {
		<-t.done
	} else {
		t.result = e.execute(order)
	}

	end := time.Now()
	latency := end.Sub(t0).Microseconds()

	resp.Result = t.result
	resp.Status = order.Status()
	resp.ExecutedQuantity = order.FilledQuantity()
	resp.AveragePrice = order.AverageFillPrice().Float64()
	resp.ExecutionTimeNS = end.UnixNano()
	resp.LatencyMicros = latency
	if t.result != ffi.ResultSuccess {
		resp.Message = resultMessage(t.result)
	}

	e.metrics.RecordOrder(latency, t.result == ffi.ResultSuccess)
	if t.result == ffi.ResultSuccess && resp.ExecutedQuantity > 0 {
		e.metrics.RecordVolume(resp.ExecutedQuantity, order.AverageFillPrice())
	}

	return t.result
}

// CancelOrder cancels an active order and fires the status callback.
func (e *Engine) CancelOrder(orderID string) ExecutionResult {
	if !e.initialized.Load() {
		return ffi.ResultSystemError
	}

	e.orderMu.Lock()
	order, ok := e.active[orderID]
	if !ok {
		e.orderMu.Unlock()
		return ffi.ResultOrderNotFound
	}
	if !order.IsActive() {
		e.orderMu.Unlock()
		return ffi.ResultInvalidOrder
	}
	order.SetStatus(ffi.StatusCancelled)
	delete(e.active, orderID)
	e.orderMu.Unlock()

	// stays in the expiry index; the sweep recycles the pool slot
	if order.Type == Stop {
		e.stops.Remove(order)
	}

	e.notifyStatus(orderID, ffi.StatusCancelled, "Order cancelled")
	return ffi.ResultSuccess
}

// OrderBookSnapshot returns the top-of-book view for a symbol.
func (e *Engine) OrderBookSnapshot(symbol string) (BookSnapshot, error) {
	book := e.Book(symbol)
	if book == nil {
		return BookSnapshot{}, ErrNotFound
	}
	return BookSnapshot{
		Symbol:      symbol,
		TimestampNS: book.LastUpdateTime(),
		BidPrice:    book.BestBid().Float64(),
		AskPrice:    book.BestAsk().Float64(),
		BidSize:     book.BidSize(0),
		AskSize:     book.AskSize(0),
		LastPrice:   book.MidPrice().Float64(),
	}, nil
}

// Metrics snapshots the performance counters with the current
// active-order count stamped in.
func (e *Engine) Metrics() ffi.EngineMetrics {
	e.orderMu.Lock()
	active := uint64(len(e.active))
	e.orderMu.Unlock()
	return e.metrics.Snapshot(active)
}

// ResetMetrics zeroes the performance counters.
func (e *Engine) ResetMetrics() {
	e.metrics.Reset()
}

// ActiveOrder looks up an order in the active set.
func (e *Engine) ActiveOrder(orderID string) *Order {
	e.orderMu.Lock()
	defer e.orderMu.Unlock()
	return e.active[orderID]
}

// newOrder builds the order from the request, pool-backed when a slot
// is free.
func (e *Engine) newOrder(req *OrderRequest) *Order {
	price := PriceFromFloat(req.Price)
	stop := PriceFromFloat(req.StopPrice)

	if o, ok := e.orderPool.Acquire(); ok {
		o.reset(req.OrderID, req.Symbol, req.Type, req.Side, req.Quantity, price, stop, req.TimeInForce, req.ClientID, req.TimestampNS)
		o.pooled = true
		return o
	}
	return NewOrder(req.OrderID, req.Symbol, req.Type, req.Side, req.Quantity, price, stop, req.TimeInForce, req.ClientID, req.TimestampNS)
}

func (e *Engine) releaseOrder(o *Order) {
	if o.pooled {
		o.pooled = false
		e.orderPool.Release(o)
	}
}

// worker drains the order queue. Workers keep draining after the
// running flag clears so no submitter is left waiting on a task.
func (e *Engine) worker() {
	defer e.wg.Done()

	for {
		e.orderMu.Lock()
		for len(e.queue) == 0 && e.running.Load() {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.orderMu.Unlock()
			return
		}
		t := e.queue[0]
		e.queue = e.queue[1:]
		e.orderMu.Unlock()

		t.result = e.execute(t.order)
		close(t.done)
	}
}

// execute dispatches an admitted order to its matching routine.
func (e *Engine) execute(order *Order) ExecutionResult {
	switch order.Type {
	case Market:
		return e.executeMarketOrder(order)
	case Limit:
		return e.executeLimitOrder(order)
	case Stop:
		return e.executeStopOrder(order)
	default:
		order.SetStatus(ffi.StatusRejected)
		return ffi.ResultInvalidOrder
	}
}

// executeMarketOrder fills against the opposing depth in level order.
func (e *Engine) executeMarketOrder(order *Order) ExecutionResult {
	book := e.Book(order.Symbol)
	if book == nil {
		order.SetStatus(ffi.StatusRejected)
		return ffi.ResultInvalidOrder
	}

	plan := book.FillsForMarketOrder(order.Side, order.Quantity)
	if len(plan) == 0 {
		return ffi.ResultInsufficientLiquidity
	}

	for _, lf := range plan {
		e.fill(order, lf.Price, lf.Quantity)
	}
	return ffi.ResultSuccess
}

// executeLimitOrder fills immediately when marketable against the top
// of book with enough depth inside the limit; otherwise the order
// rests acknowledged. No counterparty queue exists, so resting orders
// are not matched against future flow.
func (e *Engine) executeLimitOrder(order *Order) ExecutionResult {
	book := e.Book(order.Symbol)
	if book == nil {
		order.SetStatus(ffi.StatusRejected)
		return ffi.ResultInvalidOrder
	}

	var ref Price
	if order.Side == Buy {
		ref = book.BestAsk()
	} else {
		ref = book.BestBid()
	}

	marketable := (order.Side == Buy && order.Price.GreaterThanOrEqual(ref)) ||
		(order.Side == Sell && order.Price.LessThanOrEqual(ref))

	if marketable && book.HasSufficientLiquidity(order.Side, order.Quantity, order.Price) {
		e.fill(order, order.Price, order.Quantity)
		return ffi.ResultSuccess
	}

	order.SetStatus(ffi.StatusSubmitted)
	return ffi.ResultSuccess
}

// executeStopOrder triggers against the mid price. Untriggered stops
// rest in the registry and are re-evaluated on every book update.
func (e *Engine) executeStopOrder(order *Order) ExecutionResult {
	book := e.Book(order.Symbol)
	if book == nil {
		order.SetStatus(ffi.StatusRejected)
		return ffi.ResultInvalidOrder
	}

	mid := book.MidPrice()
	triggered := (order.Side == Buy && mid.GreaterThanOrEqual(order.StopPrice)) ||
		(order.Side == Sell && mid.LessThanOrEqual(order.StopPrice))

	if triggered {
		e.fill(order, mid, order.Quantity)
		return ffi.ResultSuccess
	}

	order.SetStatus(ffi.StatusSubmitted)
	e.stops.Add(order)
	return ffi.ResultSuccess
}

// fill records one execution on the order, fires the fill callback and
// journals the fill.
func (e *Engine) fill(order *Order, price Price, quantity float64) {
	fee, _ := decimal.NewFromFloat(quantity).Mul(e.feeRate).Float64()

	f := Fill{
		FillID:      "fill-" + xid.New().String(),
		OrderID:     order.ID,
		Price:       price,
		Quantity:    quantity,
		Fee:         fee,
		TimestampNS: time.Now().UnixNano(),
		Venue:       SimVenue,
	}
	order.AddFill(f)
	e.emitFill(f)
}

// emitFill hands a pool-backed copy of the fill to the callback and
// the journal, then recycles it. Neither may retain the pointer.
func (e *Engine) emitFill(f Fill) {
	carrier, pooled := e.fillPool.Acquire()
	if !pooled {
		logger.Warn("fill pool exhausted", "order_id", f.OrderID)
		carrier = new(Fill)
	}
	*carrier = f

	e.cbMu.RLock()
	cb := e.fillCB
	e.cbMu.RUnlock()
	if cb != nil {
		cb(carrier)
	}

	if e.journal != nil {
		if err := e.journal.Record(context.Background(), carrier); err != nil {
			logger.Error("failed to journal fill", "fill_id", f.FillID, "error", err)
		}
	}

	if pooled {
		e.fillPool.Release(carrier)
	}
}

func (e *Engine) notifyStatus(orderID string, status OrderStatus, message string) {
	e.cbMu.RLock()
	cb := e.statusCB
	e.cbMu.RUnlock()
	if cb != nil {
		cb(orderID, status, message)
	}
}

// checkStops executes every resting stop order the current mid price
// triggers. Called after each book update by the simulator and feed.
func (e *Engine) checkStops(symbol string, book *OrderBook) {
	mid := book.MidPrice()
	if mid.Ticks() <= 0 {
		return
	}

	for _, order := range e.stops.Triggered(symbol, mid) {
		if !order.IsActive() {
			continue
		}
		qty := order.RemainingQuantity()
		e.fill(order, mid, qty)
		e.metrics.RecordVolume(qty, mid)
	}
}

// applyDepthUpdate writes one feed message into the books and
// re-checks resting stops for the symbol.
func (e *Engine) applyDepthUpdate(u DepthUpdate) {
	book := e.Book(u.Symbol)
	if book == nil {
		logger.Warn("depth update for unknown symbol", "symbol", u.Symbol)
		return
	}

	price := PriceFromFloat(u.Price)
	if u.Side == Buy {
		book.UpdateBid(price, u.Size, u.Level)
	} else {
		book.UpdateAsk(price, u.Size, u.Level)
	}
	e.checkStops(u.Symbol, book)
}

// expiryLoop sweeps aged-out orders once per second.
func (e *Engine) expiryLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.sweepExpired()
		}
	}
}

// sweepExpired walks the expiry index oldest-first, marks still-active
// orders EXPIRED and drops everything aged out of the active set.
// Orders already terminal leave the index silently.
func (e *Engine) sweepExpired() {
	cutoff := time.Now().Add(-e.cfg.OrderTimeoutDuration()).UnixNano()

	for _, order := range e.expiry.Collect(cutoff) {
		if order.Type == Stop {
			e.stops.Remove(order)
		}

		wasActive := order.IsActive()
		if wasActive {
			order.SetStatus(ffi.StatusExpired)
		}

		e.orderMu.Lock()
		delete(e.active, order.ID)
		e.orderMu.Unlock()

		if wasActive {
			e.notifyStatus(order.ID, ffi.StatusExpired, "Order expired")
		}
		e.releaseOrder(order)
	}
}

func resultMessage(r ExecutionResult) string {
	switch r {
	case ffi.ResultInvalidOrder:
		return "Invalid order parameters"
	case ffi.ResultInsufficientLiquidity:
		return "Insufficient liquidity"
	case ffi.ResultRiskLimitExceeded:
		return "Order size exceeds risk limits"
	case ffi.ResultOrderNotFound:
		return "Order not found"
	case ffi.ResultTimeout:
		return "Timed out"
	case ffi.ResultMarketClosed:
		return "Market closed"
	case ffi.ResultSystemError:
		return "System error"
	}
	return ""
}
