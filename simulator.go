package execution

import (
	"math/rand"
	"time"
)

const (
	simTickInterval = 100 * time.Millisecond
	simLevelSize    = 1000.0
	simDefaultSeed  = 100.0
	simBidFactor    = 0.999
	simAskFactor    = 1.001
	simMaxStepPct   = 0.01
)

// simSeedPrices are the starting mids for the well-known symbols.
// Anything else starts at simDefaultSeed.
var simSeedPrices = map[string]float64{
	"AAPL":  150.0,
	"GOOGL": 2500.0,
	"MSFT":  300.0,
	"TSLA":  800.0,
	"AMZN":  3000.0,
}

// marketSimulator drives the books with a 10Hz random walk. Each tick
// moves every symbol's mid by a uniform step within ±simMaxStepPct and
// rewrites top of book around it, then re-checks resting stops.
type marketSimulator struct {
	engine *Engine
	rng    *rand.Rand
	mids   map[string]Price
}

func newMarketSimulator(engine *Engine) *marketSimulator {
	sim := &marketSimulator{
		engine: engine,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		mids:   make(map[string]Price),
	}
	for _, symbol := range engine.cfg.Symbols {
		seed, ok := simSeedPrices[symbol]
		if !ok {
			seed = simDefaultSeed
		}
		sim.mids[symbol] = PriceFromFloat(seed)
	}
	return sim
}

func (s *marketSimulator) run(stopCh chan struct{}) {
	ticker := time.NewTicker(simTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *marketSimulator) tick() {
	for symbol, mid := range s.mids {
		step := s.rng.Float64()*2*simMaxStepPct - simMaxStepPct
		mid = mid.Scale(1 + step)
		s.mids[symbol] = mid

		book := s.engine.Book(symbol)
		if book == nil {
			continue
		}
		book.UpdateBid(mid.Scale(simBidFactor), simLevelSize, 0)
		book.UpdateAsk(mid.Scale(simAskFactor), simLevelSize, 0)

		s.engine.checkStops(symbol, book)
	}
}
