package execution

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	feedInitialBackoff = time.Second
	feedMaxBackoff     = 30 * time.Second
	feedReadTimeout    = 60 * time.Second
	feedPingInterval   = 20 * time.Second
)

// DepthUpdate is one level write from an external market data feed.
type DepthUpdate struct {
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Level  int     `json:"level"`
	Price  float64 `json:"price"`
	Size   float64 `json:"size"`
}

// marketFeed streams depth updates from a websocket endpoint into the
// engine's books. It reconnects with doubling backoff and gives up
// only when the engine stops.
type marketFeed struct {
	engine *Engine
	url    string
}

func newMarketFeed(engine *Engine, url string) *marketFeed {
	return &marketFeed{engine: engine, url: url}
}

func (f *marketFeed) run(stopCh chan struct{}) {
	backoff := feedInitialBackoff

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
		if err != nil {
			logger.Warn("feed dial failed", "url", f.url, "error", err, "retry_in", backoff)
			select {
			case <-stopCh:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > feedMaxBackoff {
				backoff = feedMaxBackoff
			}
			continue
		}

		logger.Info("feed connected", "url", f.url)
		backoff = feedInitialBackoff
		f.consume(conn, stopCh)
		conn.Close()
	}
}

// consume reads messages until the connection drops or the engine
// stops. A side goroutine pings the peer and force-closes the
// connection on shutdown to unblock the read.
func (f *marketFeed) consume(conn *websocket.Conn, stopCh chan struct{}) {
	done := make(chan struct{})
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	})

	go func() {
		ticker := time.NewTicker(feedPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stopCh:
			default:
				logger.Warn("feed read failed", "error", err)
			}
			return
		}

		var update DepthUpdate
		if err := json.Unmarshal(msg, &update); err != nil {
			logger.Warn("feed message unmarshal failed", "error", err)
			continue
		}
		f.engine.applyDepthUpdate(update)
	}
}
