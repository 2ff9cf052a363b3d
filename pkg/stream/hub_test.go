package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/bundle"
)

type decodedMessage struct {
	Type    string           `json:"type"`
	Payload []bundle.Bundled `json:"payload"`
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(Config{})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) decodedMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg decodedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func testBundles() []bundle.Bundled {
	return bundle.ByEvent([]*arbitrage.Opportunity{
		arbitrage.CreateTestOpportunity("evt-1"),
		arbitrage.CreateTestMiddle("evt-2"),
	}, 5)
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(testBundles())

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeBundles, msg.Type)
		require.Len(t, msg.Payload, 2)
		assert.Equal(t, "evt-1", msg.Payload[0].EventID)
		assert.Equal(t, 3.6, msg.Payload[0].BestEdge)
	}
}

func TestHub_NewClientGetsLastMessage(t *testing.T) {
	hub, url := startHub(t)

	hub.Publish(testBundles())
	conn := dial(t, url)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeBundles, msg.Type)
	assert.Len(t, msg.Payload, 2)
}

func TestHub_EmptyPublishSendsEmptyList(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(nil)

	msg := readMessage(t, conn)
	assert.NotNil(t, msg.Payload)
	assert.Empty(t, msg.Payload)
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub, url := startHub(t)
	dial(t, url)
	dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)
	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
}
