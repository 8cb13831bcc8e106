package execution

import (
	"sync"

	"github.com/huandu/skiplist"
)

// stopBucket holds the resting stop orders for one trigger price.
type stopBucket struct {
	orders []*Order
}

// stopBook indexes the resting stop orders of one symbol, one
// price-ordered list per side. Buys trigger when the mid rises to the
// stop price, so they sort ascending and a rising mid sweeps the
// front; sells trigger on a falling mid and sort descending.
type stopBook struct {
	buys  *skiplist.SkipList
	sells *skiplist.SkipList
}

func newStopBook() *stopBook {
	asc := skiplist.GreaterThanFunc(func(lhs, rhs any) int {
		a, _ := lhs.(int64)
		b, _ := rhs.(int64)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	desc := skiplist.GreaterThanFunc(func(lhs, rhs any) int {
		a, _ := lhs.(int64)
		b, _ := rhs.(int64)
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return &stopBook{
		buys:  skiplist.New(asc),
		sells: skiplist.New(desc),
	}
}

func (sb *stopBook) list(side Side) *skiplist.SkipList {
	if side == Buy {
		return sb.buys
	}
	return sb.sells
}

// stopRegistry holds the resting stop orders per symbol. Stops that do
// not trigger at submission rest here and are re-evaluated against the
// mid price after every book update. Trigger semantics are one-shot:
// a popped order never re-enters.
type stopRegistry struct {
	mu    sync.Mutex
	books map[string]*stopBook
}

func newStopRegistry() *stopRegistry {
	return &stopRegistry{books: make(map[string]*stopBook)}
}

// Add rests a stop order at its trigger price.
func (r *stopRegistry) Add(order *Order) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sb, ok := r.books[order.Symbol]
	if !ok {
		sb = newStopBook()
		r.books[order.Symbol] = sb
	}

	list := sb.list(order.Side)
	key := order.StopPrice.Ticks()
	if el := list.Get(key); el != nil {
		bucket := el.Value.(*stopBucket)
		bucket.orders = append(bucket.orders, order)
		return
	}
	list.Set(key, &stopBucket{orders: []*Order{order}})
}

// Remove drops a resting stop order, typically on cancel or expiry.
func (r *stopRegistry) Remove(order *Order) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sb, ok := r.books[order.Symbol]
	if !ok {
		return
	}

	list := sb.list(order.Side)
	key := order.StopPrice.Ticks()
	el := list.Get(key)
	if el == nil {
		return
	}
	bucket := el.Value.(*stopBucket)
	for i, o := range bucket.orders {
		if o.ID == order.ID {
			bucket.orders = append(bucket.orders[:i], bucket.orders[i+1:]...)
			break
		}
	}
	if len(bucket.orders) == 0 {
		list.Remove(key)
	}
}

// Triggered pops every stop order the mid price now triggers: buys
// with stop ≤ mid, sells with stop ≥ mid. Each side's list is ordered
// so the triggered set is a prefix; the scan stops at the first
// untriggered level.
func (r *stopRegistry) Triggered(symbol string, mid Price) []*Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	sb, ok := r.books[symbol]
	if !ok {
		return nil
	}

	var out []*Order
	midTicks := mid.Ticks()

	for el := sb.buys.Front(); el != nil; el = sb.buys.Front() {
		if el.Key().(int64) > midTicks {
			break
		}
		bucket := el.Value.(*stopBucket)
		out = append(out, bucket.orders...)
		sb.buys.RemoveElement(el)
	}

	for el := sb.sells.Front(); el != nil; el = sb.sells.Front() {
		if el.Key().(int64) < midTicks {
			break
		}
		bucket := el.Value.(*stopBucket)
		out = append(out, bucket.orders...)
		sb.sells.RemoveElement(el)
	}

	return out
}

// Len reports the number of resting stop orders for a symbol.
func (r *stopRegistry) Len(symbol string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	sb, ok := r.books[symbol]
	if !ok {
		return 0
	}
	n := 0
	for el := sb.buys.Front(); el != nil; el = el.Next() {
		n += len(el.Value.(*stopBucket).orders)
	}
	for el := sb.sells.Front(); el != nil; el = el.Next() {
		n += len(el.Value.(*stopBucket).orders)
	}
	return n
}
