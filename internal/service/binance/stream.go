package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"DispersionSignal/internal/domain/models"
	drepo "DispersionSignal/internal/domain/repository"
	"DispersionSignal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Stream implements a MarketStream backed by the Binance combined
// miniTicker WebSocket. Each subscribed pair emits one observation per
// ticker frame, tagged with source "binance_ws".
type Stream struct {
	baseURL        string
	symbols        []string // base symbols, e.g. BTC
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *logger.Logger

	conn      *websocket.Conn
	connected bool
}

const streamSource = "binance_ws"

// New creates a new Binance MarketStream.
func New(baseURL string, symbols []string, reconnectDelay, pingInterval time.Duration, lgr *logger.Logger) drepo.MarketStream {
	if baseURL == "" {
		baseURL = "wss://stream.binance.com:9443"
	}
	return &Stream{
		baseURL:        strings.TrimRight(baseURL, "/"),
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         lgr,
	}
}

// Connect dials the combined stream endpoint for all configured pairs.
func (s *Stream) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		streams = append(streams, strings.ToLower(sym)+"usdt@miniTicker")
	}
	u := fmt.Sprintf("%s/stream?streams=%s", s.baseURL, strings.Join(streams, "/"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	s.logger.Info("binance stream connected", logger.Int("pairs", len(s.symbols)))
	return nil
}

// Subscribe is a no-op: the combined stream URL carries the subscriptions.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	return nil
}

type miniTicker struct {
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	QuoteVolume string `json:"q"`
	EventTime   int64  `json:"E"` // ms
}

type combinedFrame struct {
	Stream string     `json:"stream"`
	Data   miniTicker `json:"data"`
}

// Read streams observations and errors.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	obs := make(chan *models.Observation, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(obs)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var frame combinedFrame
				if err := json.Unmarshal(b, &frame); err != nil {
					// ignore non-ticker frames
					continue
				}
				o := tickerToObservation(frame.Data)
				if o == nil {
					continue
				}
				select {
				case obs <- o:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return obs, errs
}

func tickerToObservation(t miniTicker) *models.Observation {
	if t.Symbol == "" || t.Close == "" {
		return nil
	}
	price, err := decimal.NewFromString(t.Close)
	if err != nil {
		return nil
	}
	var volume decimal.NullDecimal
	if v, err := decimal.NewFromString(t.QuoteVolume); err == nil {
		volume = decimal.NewNullDecimal(v)
	}
	return &models.Observation{
		Symbol:    strings.TrimSuffix(t.Symbol, "USDT"),
		Source:    streamSource,
		Price:     price,
		Volume:    volume,
		Timestamp: time.UnixMilli(t.EventTime).UTC(),
	}
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
