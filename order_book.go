package execution

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// BookDepth is the number of levels tracked per side.
const BookDepth = 20

// bookLevel holds one (price, size) pair. Fields are individually
// atomic so a reader never sees a torn scalar; pair consistency across
// fields and across levels comes from the book guard.
type bookLevel struct {
	priceTicks atomic.Int64
	sizeBits   atomic.Uint64
}

func (l *bookLevel) store(price Price, size float64) {
	l.priceTicks.Store(price.Ticks())
	l.sizeBits.Store(math.Float64bits(size))
}

func (l *bookLevel) price() Price {
	return PriceFromTicks(l.priceTicks.Load())
}

func (l *bookLevel) size() float64 {
	return math.Float64frombits(l.sizeBits.Load())
}

func (l *bookLevel) valid() bool {
	return l.priceTicks.Load() > 0 && l.size() > 0
}

// LevelFill is one (price, quantity) slice of a market-order fill plan.
type LevelFill struct {
	Price    Price
	Quantity float64
}

// OrderBook keeps the aggregated depth for one symbol: BookDepth bid
// levels and BookDepth ask levels, level 0 being top of book. Levels
// are addressed by index; the feed is responsible for ordering, the
// book never sorts. Readers share the guard, writers take it
// exclusively, so level walks observe mutually consistent levels.
type OrderBook struct {
	symbol string

	mu         sync.RWMutex
	bids       [BookDepth]bookLevel
	asks       [BookDepth]bookLevel
	lastUpdate atomic.Int64
}

// NewOrderBook creates an empty book for the symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{symbol: symbol}
}

// Symbol returns the book's symbol.
func (b *OrderBook) Symbol() string { return b.symbol }

// UpdateBid writes a bid level. Out-of-range levels are ignored.
func (b *OrderBook) UpdateBid(price Price, size float64, level int) {
	if level < 0 || level >= BookDepth {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids[level].store(price, size)
	b.lastUpdate.Store(time.Now().UnixNano())
}

// UpdateAsk writes an ask level. Out-of-range levels are ignored.
func (b *OrderBook) UpdateAsk(price Price, size float64, level int) {
	if level < 0 || level >= BookDepth {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asks[level].store(price, size)
	b.lastUpdate.Store(time.Now().UnixNano())
}

// BestBid returns the level-0 bid price, zero when uninitialized.
func (b *OrderBook) BestBid() Price {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids[0].price()
}

// BestAsk returns the level-0 ask price, zero when uninitialized.
func (b *OrderBook) BestAsk() Price {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks[0].price()
}

// BidSize returns the size resting at a bid level, zero when out of range.
func (b *OrderBook) BidSize(level int) float64 {
	if level < 0 || level >= BookDepth {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids[level].size()
}

// AskSize returns the size resting at an ask level, zero when out of range.
func (b *OrderBook) AskSize(level int) float64 {
	if level < 0 || level >= BookDepth {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks[level].size()
}

// MidPrice returns the integer mean of best bid and best ask in ticks.
func (b *OrderBook) MidPrice() Price {
	return MidPrice(b.BestBid(), b.BestAsk())
}

// Spread returns best ask minus best bid as a real value.
func (b *OrderBook) Spread() float64 {
	return b.BestAsk().Sub(b.BestBid()).Float64()
}

// LastUpdateTime returns the nanosecond timestamp of the last level write.
func (b *OrderBook) LastUpdateTime() int64 {
	return b.lastUpdate.Load()
}

// HasSufficientLiquidity walks the opposing side from the top,
// accumulating size from levels whose price is acceptable against the
// limit. The walk stops at the first invalid or out-of-limit level.
func (b *OrderBook) HasSufficientLiquidity(side Side, quantity float64, limit Price) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	available := 0.0
	if side == Buy {
		for i := range b.asks {
			level := &b.asks[i]
			if !level.valid() || level.price().GreaterThan(limit) {
				break
			}
			available += level.size()
			if available >= quantity {
				return true
			}
		}
		return false
	}

	for i := range b.bids {
		level := &b.bids[i]
		if !level.valid() || level.price().LessThan(limit) {
			break
		}
		available += level.size()
		if available >= quantity {
			return true
		}
	}
	return false
}

// FillsForMarketOrder walks the opposing side in level order and emits
// (price, take) pairs consuming at most each level's size, until the
// quantity is exhausted or a level is invalid. The plan may cover less
// than requested; the caller infers insufficient liquidity from an
// empty or short result.
func (b *OrderBook) FillsForMarketOrder(side Side, quantity float64) []LevelFill {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := &b.asks
	if side == Sell {
		levels = &b.bids
	}

	var fills []LevelFill
	remaining := quantity
	for i := range levels {
		level := &levels[i]
		if !level.valid() || remaining <= 0 {
			break
		}
		take := math.Min(remaining, level.size())
		fills = append(fills, LevelFill{Price: level.price(), Quantity: take})
		remaining -= take
	}
	return fills
}
