// Package websocket forwards closed windows to a remote collector over a
// WebSocket connection.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/torosent/msgsampler/internal/metrics"
)

// Envelope is the document sent for each window.
type Envelope struct {
	Latency    metrics.Snapshot `json:"latency"`
	Throughput metrics.Snapshot `json:"throughput"`
}

// Metrics captures delivery counters for the sink.
type Metrics struct {
	ConnectionDuration time.Duration
	MessagesSent       int64
	BytesSent          int64
	Errors             int64
}

// Sink publishes snapshot envelopes as text messages.
type Sink struct {
	url          string
	headers      http.Header
	dialer       *websocket.Dialer
	writeTimeout time.Duration
	conn         *websocket.Conn
	mu           sync.Mutex
	connectTime  time.Time
	messagesSent int64
	bytesSent    int64
	errors       int64
}

// Config configures the sink.
type Config struct {
	URL              string
	Headers          http.Header
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// NewSink creates an unconnected sink.
func NewSink(cfg Config) *Sink {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	return &Sink{
		url:          cfg.URL,
		headers:      cfg.Headers,
		dialer:       dialer,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Connect establishes the WebSocket connection.
func (s *Sink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return fmt.Errorf("already connected")
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.headers)
	if err != nil {
		s.errors++
		if resp != nil {
			return fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	s.conn = conn
	s.connectTime = time.Now()
	return nil
}

// Publish sends one window. It is safe to call from the sampler callback.
func (s *Sink) Publish(latency, throughput metrics.Snapshot) error {
	data, err := json.Marshal(Envelope{Latency: latency, Throughput: throughput})
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		s.errors++
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.errors++
		return fmt.Errorf("write message: %w", err)
	}

	s.messagesSent++
	s.bytesSent += int64(len(data))
	return nil
}

// Close closes the connection gracefully.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(5*time.Second),
	)

	closeErr := s.conn.Close()
	s.conn = nil

	if err != nil {
		return err
	}
	return closeErr
}

// Metrics returns the delivery counters.
func (s *Sink) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := time.Duration(0)
	if !s.connectTime.IsZero() {
		duration = time.Since(s.connectTime)
	}

	return Metrics{
		ConnectionDuration: duration,
		MessagesSent:       s.messagesSent,
		BytesSent:          s.bytesSent,
		Errors:             s.errors,
	}
}
