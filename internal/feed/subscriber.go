// Package feed subscribes to the ledger indexer's websocket and turns
// pool_resolved messages into typed resolution events.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mselser95/claimpool/internal/ledger"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
)

// ErrNotConnected is reported by Check while the connection is down.
var ErrNotConnected = errors.New("ledger feed not connected")

// Config holds subscriber configuration.
type Config struct {
	URL                   string
	Channel               string
	DialTimeout           time.Duration
	PongTimeout           time.Duration // zero disables the read deadline
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// Subscriber maintains one websocket connection to the indexer and
// reconnects with backoff when it drops.
type Subscriber struct {
	config  Config
	logger  *zap.Logger
	backoff *Backoff
	events  chan *ledger.ResolutionEvent
	lost    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu              sync.RWMutex
	conn            *websocket.Conn
	connected       atomic.Bool
	connectionStart atomic.Int64
}

// New creates a subscriber. Call Start to connect.
func New(cfg Config) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())

	backoff := NewBackoff(BackoffConfig{
		InitialDelay: cfg.ReconnectInitialDelay,
		MaxDelay:     cfg.ReconnectMaxDelay,
		Multiplier:   cfg.ReconnectBackoffMult,
		Jitter:       0.2,
	}, cfg.Logger)

	return &Subscriber{
		config:  cfg,
		logger:  cfg.Logger,
		backoff: backoff,
		events:  make(chan *ledger.ResolutionEvent, cfg.MessageBufferSize),
		lost:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start makes the initial connection and starts the read, ping and
// reconnect loops.
func (s *Subscriber) Start() error {
	s.logger.Info("ledger-feed-starting",
		zap.String("url", s.config.URL),
		zap.String("channel", s.config.Channel))

	err := s.connect(s.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	s.wg.Add(3)
	go s.readLoop()
	go s.pingLoop()
	go s.reconnectLoop()

	return nil
}

// Events returns resolution events in arrival order. The channel is closed
// by Close.
func (s *Subscriber) Events() <-chan *ledger.ResolutionEvent {
	return s.events
}

// IsConnected reports whether the connection is currently up.
func (s *Subscriber) IsConnected() bool {
	return s.connected.Load()
}

// Check is a readiness check for the health probe.
func (s *Subscriber) Check(_ context.Context) error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	return nil
}

func (s *Subscriber) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.DialTimeout}

	conn, _, err := dialer.DialContext(ctx, s.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		s.extendDeadline(conn)
		return nil
	})
	s.extendDeadline(conn)

	err = conn.WriteJSON(map[string]string{"type": "subscribe", "channel": s.config.Channel})
	if err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe message: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.connected.Store(true)
	s.connectionStart.Store(time.Now().Unix())
	Connected.Set(1)

	s.logger.Info("ledger-feed-connected", zap.String("channel", s.config.Channel))
	return nil
}

func (s *Subscriber) extendDeadline(conn *websocket.Conn) {
	if s.config.PongTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	}
}

func (s *Subscriber) readLoop() {
	defer s.wg.Done()

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.Warn("ledger-feed-read-error", zap.Error(err))
			}
			s.markLost()
			return
		}

		s.extendDeadline(conn)
		s.handleMessage(message)
	}
}

func (s *Subscriber) markLost() {
	if start := s.connectionStart.Load(); start > 0 {
		ConnectionDuration.Observe(time.Since(time.Unix(start, 0)).Seconds())
	}
	s.connected.Store(false)
	Connected.Set(0)

	select {
	case s.lost <- struct{}{}:
	default:
	}
}

// handleMessage accepts a single message object or a batch array.
func (s *Subscriber) handleMessage(message []byte) {
	trimmed := bytes.TrimSpace(message)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[]")) {
		s.logger.Debug("ledger-feed-heartbeat")
		return
	}

	batch := []json.RawMessage{trimmed}
	if trimmed[0] == '[' {
		batch = nil
		err := json.Unmarshal(trimmed, &batch)
		if err != nil {
			DecodeErrorsTotal.WithLabelValues("malformed").Inc()
			s.logger.Warn("ledger-feed-unparseable-batch", zap.Error(err), zap.Int("bytes", len(trimmed)))
			return
		}
	}

	for _, raw := range batch {
		s.handleOne(raw)
	}
}

func (s *Subscriber) handleOne(raw []byte) {
	var head struct {
		Type string `json:"type"`
	}
	err := json.Unmarshal(raw, &head)
	if err != nil {
		MessagesReceivedTotal.WithLabelValues("unknown").Inc()
		DecodeErrorsTotal.WithLabelValues("malformed").Inc()
		s.logger.Debug("ledger-feed-unparseable-message", zap.Error(err), zap.Int("bytes", len(raw)))
		return
	}

	MessagesReceivedTotal.WithLabelValues(head.Type).Inc()
	if head.Type != ledger.EventPoolResolved {
		s.logger.Debug("ledger-feed-control-message", zap.String("type", head.Type))
		return
	}

	event, err := ledger.DecodeResolutionEvent(raw)
	if err != nil {
		DecodeErrorsTotal.WithLabelValues(types.ErrorKind(err)).Inc()
		s.logger.Warn("ledger-feed-event-rejected", zap.Error(err))
		return
	}

	// Resolution events are never dropped while running; a slow consumer
	// applies backpressure to the socket instead.
	select {
	case s.events <- event:
		s.logger.Debug("ledger-feed-event-received",
			zap.Uint64("pool-id", event.PoolID),
			zap.Int("stakes", len(event.Stakes)))
	case <-s.ctx.Done():
		EventsDroppedTotal.Inc()
	}
}

func (s *Subscriber) pingLoop() {
	defer s.wg.Done()

	interval := s.config.PingInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.connected.Load() {
				continue
			}

			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()

			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			if err != nil {
				s.logger.Warn("ledger-feed-ping-error", zap.Error(err))
			}
		}
	}
}

func (s *Subscriber) reconnectLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.lost:
		}

		s.logger.Warn("ledger-feed-connection-lost")

		err := s.backoff.Retry(s.ctx, s.connect)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error("ledger-feed-reconnect-aborted", zap.Error(err))
			continue
		}

		if s.ctx.Err() != nil {
			s.closeConn()
			return
		}

		s.wg.Add(1)
		go s.readLoop()
	}
}

func (s *Subscriber) closeConn() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn != nil {
		s.conn.Close()
	}
}

// Close stops all loops, closes the connection and then the event channel.
func (s *Subscriber) Close() error {
	s.logger.Info("closing-ledger-feed")

	s.cancel()
	s.closeConn()
	s.wg.Wait()
	close(s.events)

	s.connected.Store(false)
	Connected.Set(0)

	s.logger.Info("ledger-feed-closed")
	return nil
}
