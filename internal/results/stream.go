// Package results ingests settled race results from the provider's stream.
package results

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
)

// StreamClient handles the WebSocket connection to the results feed
type StreamClient struct {
	conn            *websocket.Conn
	streamURL       string
	apiKey          string
	mu              sync.RWMutex
	isConnected     bool
	handlers        []ResultHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	logger          *log.Logger
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// ResultHandler is called for each settled result received from the stream
type ResultHandler func(result *models.RaceResult) error

// streamMessage represents a message from the results feed
type streamMessage struct {
	Op         string   `json:"op"`
	Track      string   `json:"track,omitempty"`
	RaceNumber int      `json:"raceNumber,omitempty"`
	WinningBox int      `json:"winningBox,omitempty"`
	SecondBox  *int     `json:"secondBox,omitempty"`
	WinTimeSec *float64 `json:"winTimeSec,omitempty"`
	Distance   *int     `json:"distance,omitempty"`
	SettledAt  string   `json:"settledAt,omitempty"`
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// NewStreamClient creates a new results stream client
func NewStreamClient(streamURL, apiKey string, logger *log.Logger) *StreamClient {
	return &StreamClient{
		streamURL:       streamURL,
		apiKey:          apiKey,
		handlers:        make([]ResultHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (s *StreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	if s.logger != nil {
		s.logger.Printf("Connecting to results stream: %s", s.streamURL)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to results stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	go s.readMessages()

	return nil
}

// Subscribe authenticates and subscribes to settled results
func (s *StreamClient) Subscribe(ctx context.Context) error {
	return s.sendMessage(map[string]interface{}{
		"op":     "subscribe",
		"apiKey": s.apiKey,
		"feed":   "settled_results",
	})
}

// AddHandler registers a result handler
func (s *StreamClient) AddHandler(handler ResultHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// readMessages reads messages from the WebSocket connection
func (s *StreamClient) readMessages() {
	defer s.Close()

	for {
		var msg streamMessage
		err := s.conn.ReadJSON(&msg)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("Error reading result message: %v", err)
			}
			s.mu.Lock()
			s.isConnected = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		if msg.Op != "result" {
			continue
		}

		result, err := toRaceResult(msg)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("Skipping malformed result: %v", err)
			}
			continue
		}

		metrics.ResultsIngestedTotal.Inc()

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(result); err != nil && s.logger != nil {
				s.logger.Printf("Result handler error: %v", err)
			}
		}
	}
}

// toRaceResult validates and converts a stream message into a RaceResult
func toRaceResult(msg streamMessage) (*models.RaceResult, error) {
	if msg.Track == "" || msg.RaceNumber <= 0 {
		return nil, fmt.Errorf("missing race identity (track=%q race=%d)", msg.Track, msg.RaceNumber)
	}
	if msg.WinningBox < 1 || msg.WinningBox > 8 {
		return nil, fmt.Errorf("winning box %d out of range", msg.WinningBox)
	}

	settledAt := time.Now()
	if msg.SettledAt != "" {
		if parsed, err := time.Parse(time.RFC3339, msg.SettledAt); err == nil {
			settledAt = parsed
		}
	}

	return &models.RaceResult{
		Track:      msg.Track,
		RaceNumber: msg.RaceNumber,
		WinningBox: msg.WinningBox,
		SecondBox:  msg.SecondBox,
		WinTimeSec: msg.WinTimeSec,
		Distance:   msg.Distance,
		SettledAt:  settledAt,
	}, nil
}

// sendMessage sends a JSON message to the stream
func (s *StreamClient) sendMessage(msg interface{}) error {
	s.mu.RLock()
	if !s.isConnected || s.conn == nil {
		s.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := s.conn
	s.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the stream is connected
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *StreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	s.isConnected = false
	return s.conn.Close()
}

// RunWithReconnect keeps the stream connected until the context is cancelled,
// reconnecting with exponential backoff on failure.
func (s *StreamClient) RunWithReconnect(ctx context.Context) error {
	backoff := s.reconnectConfig.InitialBackoff
	retries := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.IsConnected() {
			if err := s.Connect(ctx); err != nil {
				retries++
				if s.reconnectConfig.MaxRetries > 0 && retries > s.reconnectConfig.MaxRetries {
					return fmt.Errorf("results stream reconnect limit reached: %w", err)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
				if backoff > s.reconnectConfig.MaxBackoff {
					backoff = s.reconnectConfig.MaxBackoff
				}
				continue
			}
			if err := s.Subscribe(ctx); err != nil && s.logger != nil {
				s.logger.Printf("Subscribe failed: %v", err)
			}
			retries = 0
			backoff = s.reconnectConfig.InitialBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
