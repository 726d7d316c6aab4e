package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestManager(t *testing.T) (*Manager, *httptest.Server) {
	t.Helper()

	m := NewManager()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		m.HandleConnection(r.Context(), conn)
	}))
	t.Cleanup(server.Close)
	return m, server
}

func connectWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + server.URL[len("http"):]
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestManagerConnectionEstablished(t *testing.T) {
	m, server := setupTestManager(t)
	conn := connectWS(t, server)

	msg := readJSON(t, conn)
	assert.Equal(t, "connection.established", msg["type"])
	require.Eventually(t, func() bool { return m.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)
}

func TestManagerSubscribeAndPublish(t *testing.T) {
	m, server := setupTestManager(t)
	conn := connectWS(t, server)
	readJSON(t, conn) // connection.established

	sub, _ := json.Marshal(ClientMessage{Action: "subscribe", Channel: ChannelGateViolation})
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, sub))

	confirm := readJSON(t, conn)
	assert.Equal(t, "subscription.confirmed", confirm["type"])
	assert.Equal(t, ChannelGateViolation, confirm["channel"])

	m.Publish(ChannelGateViolation, map[string]string{"reason": "protected-file violation"})

	event := readJSON(t, conn)
	assert.Equal(t, "protected-file violation", event["reason"])
}

func TestManagerLateSubscriberGetsReplay(t *testing.T) {
	m, server := setupTestManager(t)
	m.Publish(ChannelARIAlert, map[string]string{"reason": "agency loss"})

	conn := connectWS(t, server)
	readJSON(t, conn) // connection.established

	sub, _ := json.Marshal(ClientMessage{Action: "subscribe", Channel: ChannelARIAlert})
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, sub))
	readJSON(t, conn) // subscription.confirmed

	replayed := readJSON(t, conn)
	assert.Equal(t, "agency loss", replayed["reason"])
}

func TestManagerUnsubscribeStopsDelivery(t *testing.T) {
	m, server := setupTestManager(t)
	conn := connectWS(t, server)
	readJSON(t, conn)

	sub, _ := json.Marshal(ClientMessage{Action: "subscribe", Channel: ChannelFeedback})
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, sub))
	readJSON(t, conn)

	unsub, _ := json.Marshal(ClientMessage{Action: "unsubscribe", Channel: ChannelFeedback})
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, unsub))

	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return len(m.channels[ChannelFeedback]) == 0
	}, time.Second, 10*time.Millisecond)

	m.Publish(ChannelFeedback, map[string]string{"should": "not-arrive"})

	pingMsg, _ := json.Marshal(ClientMessage{Action: "ping"})
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, pingMsg))
	pong := readJSON(t, conn)
	assert.Equal(t, "pong", pong["type"])
}
