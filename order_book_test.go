package execution

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func createTestBook(t *testing.T) *OrderBook {
	t.Helper()

	book := NewOrderBook("AAPL")
	book.UpdateBid(PriceFromFloat(149.9), 500, 0)
	book.UpdateBid(PriceFromFloat(149.8), 800, 1)
	book.UpdateBid(PriceFromFloat(149.7), 1000, 2)
	book.UpdateAsk(PriceFromFloat(150.1), 500, 0)
	book.UpdateAsk(PriceFromFloat(150.2), 800, 1)
	book.UpdateAsk(PriceFromFloat(150.3), 1000, 2)
	return book
}

func TestOrderBookTopOfBook(t *testing.T) {
	book := createTestBook(t)

	assert.Equal(t, "AAPL", book.Symbol())
	assert.Equal(t, PriceFromFloat(149.9), book.BestBid())
	assert.Equal(t, PriceFromFloat(150.1), book.BestAsk())
	assert.Equal(t, 500.0, book.BidSize(0))
	assert.Equal(t, 800.0, book.AskSize(1))
	assert.Equal(t, PriceFromFloat(150), book.MidPrice())
	assert.InDelta(t, 0.2, book.Spread(), 1e-9)
	assert.NotZero(t, book.LastUpdateTime())
}

func TestOrderBookEmpty(t *testing.T) {
	book := NewOrderBook("MSFT")

	assert.True(t, book.BestBid().IsZero())
	assert.True(t, book.BestAsk().IsZero())
	assert.True(t, book.MidPrice().IsZero())
	assert.Zero(t, book.LastUpdateTime())
	assert.Empty(t, book.FillsForMarketOrder(Buy, 100))
	assert.False(t, book.HasSufficientLiquidity(Buy, 1, PriceFromFloat(1000)))
}

func TestOrderBookLevelBounds(t *testing.T) {
	book := NewOrderBook("AAPL")

	book.UpdateBid(PriceFromFloat(150), 100, -1)
	book.UpdateBid(PriceFromFloat(150), 100, BookDepth)
	assert.True(t, book.BestBid().IsZero())
	assert.Zero(t, book.BidSize(-1))
	assert.Zero(t, book.AskSize(BookDepth))

	book.UpdateBid(PriceFromFloat(150), 100, BookDepth-1)
	assert.Equal(t, 100.0, book.BidSize(BookDepth-1))
}

func TestHasSufficientLiquidity(t *testing.T) {
	book := createTestBook(t)

	// asks hold 500+800+1000 inside 150.3
	assert.True(t, book.HasSufficientLiquidity(Buy, 2300, PriceFromFloat(150.3)))
	assert.False(t, book.HasSufficientLiquidity(Buy, 2301, PriceFromFloat(150.3)))

	// limit cuts the walk at the first out-of-limit level
	assert.True(t, book.HasSufficientLiquidity(Buy, 500, PriceFromFloat(150.1)))
	assert.False(t, book.HasSufficientLiquidity(Buy, 501, PriceFromFloat(150.1)))

	assert.True(t, book.HasSufficientLiquidity(Sell, 1300, PriceFromFloat(149.8)))
	assert.False(t, book.HasSufficientLiquidity(Sell, 1301, PriceFromFloat(149.8)))
}

func TestHasSufficientLiquidityStopsAtGap(t *testing.T) {
	book := NewOrderBook("AAPL")
	book.UpdateAsk(PriceFromFloat(150.1), 500, 0)
	book.UpdateAsk(PriceFromFloat(150.3), 1000, 2) // level 1 left empty

	assert.False(t, book.HasSufficientLiquidity(Buy, 600, PriceFromFloat(151)))
}

func TestFillsForMarketOrderWalksLevels(t *testing.T) {
	book := createTestBook(t)

	plan := book.FillsForMarketOrder(Buy, 1000)
	assert.Len(t, plan, 2)
	assert.Equal(t, LevelFill{Price: PriceFromFloat(150.1), Quantity: 500}, plan[0])
	assert.Equal(t, LevelFill{Price: PriceFromFloat(150.2), Quantity: 500}, plan[1])

	plan = book.FillsForMarketOrder(Sell, 400)
	assert.Len(t, plan, 1)
	assert.Equal(t, LevelFill{Price: PriceFromFloat(149.9), Quantity: 400}, plan[0])
}

func TestFillsForMarketOrderShortPlan(t *testing.T) {
	book := createTestBook(t)

	plan := book.FillsForMarketOrder(Buy, 10_000)

	total := 0.0
	for _, lf := range plan {
		total += lf.Quantity
	}
	assert.Equal(t, 2300.0, total)
}

func TestOrderBookConcurrentReadersAndWriter(t *testing.T) {
	book := createTestBook(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = book.MidPrice()
				_ = book.HasSufficientLiquidity(Buy, 100, PriceFromFloat(151))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 1000; j++ {
			book.UpdateBid(PriceFromFloat(149.9), float64(j), 0)
			book.UpdateAsk(PriceFromFloat(150.1), float64(j), 0)
		}
	}()
	wg.Wait()

	assert.Equal(t, PriceFromFloat(150), book.MidPrice())
}
