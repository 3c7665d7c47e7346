// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

// DefaultStreamURL is the public realtime push endpoint.
const DefaultStreamURL = "wss://push.planetside2.com/streaming?environment=ps2&service-id=s:%s"

// trackedEvents are the event types the stream subscribes to.
var trackedEvents = []string{
	string(EventPlayerLogin),
	string(EventPlayerLogout),
	string(EventGainExperience),
	string(EventDeath),
	string(EventContinentLock),
	string(EventContinentUnlock),
	string(EventMetagameEvent),
}

// FrameHandler consumes raw frames from the realtime feed. Handlers are
// responsible for their own error handling; a bad frame must never stop
// the stream.
type FrameHandler interface {
	HandleFrame(ctx context.Context, raw []byte)
}

// Stream maintains a realtime feed subscription over a websocket and
// forwards every frame to a handler. Delivery is at-least-once: frames
// may be redelivered around reconnects, and the dispatcher's dedup
// window is expected to absorb short-window repeats.
type Stream struct {
	url       string
	worlds    []int16
	handler   FrameHandler
	log       *slog.Logger
	connected atomic.Bool
}

// Connected reports whether the feed currently has a live connection.
// Used by the readiness probe.
func (s *Stream) Connected() bool {
	return s.connected.Load()
}

// NewStream creates a stream for the given service ID and worlds. An
// empty urlTemplate uses the public endpoint; an empty worlds slice
// subscribes to all worlds.
func NewStream(urlTemplate, serviceID string, worlds []int16, handler FrameHandler, log *slog.Logger) *Stream {
	if urlTemplate == "" {
		urlTemplate = DefaultStreamURL
	}
	return &Stream{
		url:     fmt.Sprintf(urlTemplate, serviceID),
		worlds:  worlds,
		handler: handler,
		log:     log,
	}
}

// subscription is the subscribe message sent after each connect.
type subscription struct {
	Service    string   `json:"service"`
	Action     string   `json:"action"`
	Worlds     []string `json:"worlds"`
	EventNames []string `json:"eventNames"`
}

// Run connects, subscribes, and pumps frames to the handler until ctx
// is cancelled. Connection failures are retried with capped exponential
// backoff; a dropped connection is re-established and re-subscribed.
func (s *Stream) Run(ctx context.Context) error {
	for {
		conn, err := s.connect(ctx)
		if err != nil {
			// Only ctx cancellation escapes the retry loop.
			return err
		}

		s.log.InfoContext(ctx, "realtime feed connected", slog.Int("worlds", len(s.worlds)))
		s.connected.Store(true)
		s.pump(ctx, conn)
		s.connected.Store(false)
		_ = conn.Close()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			s.log.WarnContext(ctx, "realtime feed disconnected, reconnecting")
		}
	}
}

// connect dials and subscribes, retrying with backoff until it succeeds
// or ctx is cancelled.
func (s *Stream) connect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn

	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.log.WarnContext(ctx, "realtime feed dial failed", slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}

		if err := c.WriteJSON(s.subscribeMessage()); err != nil {
			_ = c.Close()
			s.log.WarnContext(ctx, "realtime feed subscribe failed", slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}

		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Stream) subscribeMessage() subscription {
	worlds := make([]string, 0, len(s.worlds))
	for _, w := range s.worlds {
		worlds = append(worlds, strconv.Itoa(int(w)))
	}
	if len(worlds) == 0 {
		worlds = []string{"all"}
	}

	return subscription{
		Service:    "event",
		Action:     "subscribe",
		Worlds:     worlds,
		EventNames: trackedEvents,
	}
}

// pump reads frames until the connection drops or ctx is cancelled.
func (s *Stream) pump(ctx context.Context, conn *websocket.Conn) {
	// ReadMessage has no context support; closing the connection on
	// cancellation unblocks the read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handler.HandleFrame(ctx, raw)
	}
}
