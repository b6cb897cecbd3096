package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/easybook-chat/internal/session"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testWSConfig(url string) WSConfig {
	cfg := DefaultWSConfig()
	cfg.URL = url
	cfg.HandshakeTimeout = 2 * time.Second
	return cfg
}

// eventLog records transport callbacks in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (l *eventLog) attach(t Transport) {
	t.OnOpen(func() { l.add("open") })
	t.OnMessage(func(data string) { l.add("message:" + data) })
	t.OnError(func(err error) {
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
		l.add("error")
	})
	t.OnClose(func() { l.add("close") })
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) has(e string) func() bool {
	return func() bool {
		for _, got := range l.snapshot() {
			if got == e {
				return true
			}
		}
		return false
	}
}

func TestWSTransport_OpenSendReceive(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.WriteMessage(websocket.TextMessage, append([]byte("echo:"), data...))
		}
	})
	defer server.Close()

	tr := NewWSTransport(testWSConfig(wsURL(server)), nil)
	log := &eventLog{}
	log.attach(tr)

	assert.ErrorIs(t, tr.Send("early"), ErrNotConnected)

	tr.Open(context.Background())
	require.Eventually(t, log.has("open"), 2*time.Second, 10*time.Millisecond)
	assert.True(t, tr.IsConnected())

	require.NoError(t, tr.Send("hello"))
	require.Eventually(t, log.has("message:echo:hello"), 2*time.Second, 10*time.Millisecond)

	require.NoError(t, tr.Close())
	require.Eventually(t, log.has("close"), 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"open", "message:echo:hello", "close"}, log.snapshot())
	assert.False(t, tr.IsConnected())
	assert.ErrorIs(t, tr.Send("late"), ErrAlreadyClosed)
}

func TestWSTransport_ServerClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("bye"))
	})
	defer server.Close()

	tr := NewWSTransport(testWSConfig(wsURL(server)), nil)
	log := &eventLog{}
	log.attach(tr)

	tr.Open(context.Background())
	require.Eventually(t, log.has("close"), 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"open", "message:bye", "error", "close"}, log.snapshot())
	assert.True(t, errors.Is(log.err, ErrTransport))
}

func TestWSTransport_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	tr := NewWSTransport(testWSConfig(url), nil)
	log := &eventLog{}
	log.attach(tr)

	tr.Open(context.Background())
	require.Eventually(t, log.has("close"), 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"error", "close"}, log.snapshot())
	assert.True(t, errors.Is(log.err, ErrTransport))
}

func TestWSTransport_CloseBeforeOpen(t *testing.T) {
	tr := NewWSTransport(testWSConfig("ws://127.0.0.1:1/never"), nil)
	log := &eventLog{}
	log.attach(tr)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	tr.Open(context.Background())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"close"}, log.snapshot())
}

func TestWSTransport_RespondsToPing(t *testing.T) {
	pong := make(chan string, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(data string) error {
			pong <- data
			return nil
		})
		conn.WriteControl(websocket.PingMessage, []byte("are-you-there"), time.Now().Add(time.Second))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr := NewWSTransport(testWSConfig(wsURL(server)), nil)
	log := &eventLog{}
	log.attach(tr)
	tr.Open(context.Background())
	defer tr.Close()

	select {
	case data := <-pong:
		assert.Equal(t, "are-you-there", data)
	case <-time.After(2 * time.Second):
		t.Fatal("no pong received")
	}
}

func TestWSDialer_FreshTransportPerAttempt(t *testing.T) {
	d := NewWSDialer(DefaultWSConfig(), nil)
	a, b := d.NewTransport(), d.NewTransport()
	assert.NotSame(t, a, b)
}

func TestManager_OverWebSocket(t *testing.T) {
	received := make(chan string, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"candidates":[{"content":{"parts":[{"text":"Leo is playing at PVR"}]}}]}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	consumer := &recordingConsumer{}
	history := session.NewHistory(nil, "", nil)
	m := NewManager(DefaultManagerConfig(), NewWSDialer(testWSConfig(wsURL(server)), nil), consumer, history)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return m.Stats().State == StateOpen }, 2*time.Second, 10*time.Millisecond)

	m.Send("what is playing?")
	select {
	case got := <-received:
		assert.Equal(t, "what is playing?", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive message")
	}

	require.Eventually(t, func() bool {
		s, _ := history.Current()
		return len(s.Records) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, consumer.count("Leo is playing at PVR"))

	s, _ := history.Current()
	assert.Equal(t, session.DirectionUser, s.Records[0].Direction)
	assert.Equal(t, session.DirectionSystem, s.Records[1].Direction)
}

func TestWSTransport_SendsUserAgent(t *testing.T) {
	agent := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent <- r.Header.Get("User-Agent")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer server.Close()

	cfg := testWSConfig(wsURL(server))
	cfg.UserAgent = "easybook-chat/1.2.0"
	tr := NewWSTransport(cfg, nil)
	log := &eventLog{}
	log.attach(tr)
	tr.Open(context.Background())
	defer tr.Close()

	select {
	case got := <-agent:
		assert.Equal(t, "easybook-chat/1.2.0", got)
	case <-time.After(2 * time.Second):
		t.Fatal("handshake not received")
	}
}
