package execution

import (
	"sync"

	"github.com/igrmk/treemap/v2"
)

// expiryKey orders active orders by submission time; the order id
// breaks ties so concurrent submissions never collide.
type expiryKey struct {
	submittedAt int64
	orderID     string
}

// expiryIndex keeps active orders sorted by age so the sweeper can
// collect the expired prefix and stop at the first fresh entry.
type expiryIndex struct {
	mu sync.Mutex
	tm *treemap.TreeMap[expiryKey, *Order]
}

func newExpiryIndex() *expiryIndex {
	return &expiryIndex{
		tm: treemap.NewWithKeyCompare[expiryKey, *Order](func(a, b expiryKey) bool {
			if a.submittedAt != b.submittedAt {
				return a.submittedAt < b.submittedAt
			}
			return a.orderID < b.orderID
		}),
	}
}

func (x *expiryIndex) Add(order *Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tm.Set(expiryKey{submittedAt: order.SubmittedAt, orderID: order.ID}, order)
}

func (x *expiryIndex) Remove(order *Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.tm.Del(expiryKey{submittedAt: order.SubmittedAt, orderID: order.ID})
}

// Collect pops every order submitted at or before the cutoff.
func (x *expiryIndex) Collect(cutoffNS int64) []*Order {
	x.mu.Lock()
	defer x.mu.Unlock()

	var out []*Order
	var keys []expiryKey
	for it := x.tm.Iterator(); it.Valid(); it.Next() {
		if it.Key().submittedAt > cutoffNS {
			break
		}
		keys = append(keys, it.Key())
		out = append(out, it.Value())
	}
	for _, k := range keys {
		x.tm.Del(k)
	}
	return out
}

func (x *expiryIndex) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.tm.Len()
}
