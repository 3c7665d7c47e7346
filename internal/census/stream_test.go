// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Spyglass Contributors

package census

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingHandler struct {
	frames chan []byte
}

func (h *recordingHandler) HandleFrame(_ context.Context, raw []byte) {
	h.frames <- raw
}

func TestStream_SubscribesAndPumpsFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan subscription, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscription
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`))

		// Hold the connection open until the client drops it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	urlTemplate := "ws" + strings.TrimPrefix(server.URL, "http") + "?service-id=s:%s"
	handler := &recordingHandler{frames: make(chan []byte, 1)}
	stream := NewStream(urlTemplate, "example", []int16{17}, handler, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- stream.Run(ctx)
	}()

	select {
	case sub := <-subscribed:
		assert.Equal(t, "event", sub.Service)
		assert.Equal(t, "subscribe", sub.Action)
		assert.Equal(t, []string{"17"}, sub.Worlds)
		assert.Contains(t, sub.EventNames, "Death")
		assert.Contains(t, sub.EventNames, "GainExperience")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for subscription")
	}

	select {
	case raw := <-handler.frames:
		assert.Contains(t, string(raw), "heartbeat")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for frame")
	}

	assert.True(t, stream.Connected())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stream to stop")
	}
	assert.False(t, stream.Connected())
}

func TestStream_SubscribeMessageDefaultsToAllWorlds(t *testing.T) {
	stream := NewStream("", "example", nil, nil, testLogger())

	sub := stream.subscribeMessage()
	assert.Equal(t, []string{"all"}, sub.Worlds)
}

func TestStream_ConnectStopsOnCancel(t *testing.T) {
	// Nothing listens on this address; connect must retry until the
	// context ends, then give up.
	stream := NewStream("ws://127.0.0.1:1/?sid=%s", "example", nil, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := stream.Run(ctx)
	require.Error(t, err)
}
