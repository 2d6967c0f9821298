package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/frame"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<canvas></canvas>"), 0644))

	handler, err := Handler(&HttpParams{Prefix: "/", Root: root}, hub)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	assert.Eventually(t, func() bool { return hub.Clients() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsFrames(t *testing.T) {
	hub := NewHub(frame.JSON, func(collision.Point) {})
	srv := newTestServer(t, hub)

	text := dial(t, srv, "")
	binary := dial(t, srv, "?format=msgpack")
	waitClients(t, hub, 2)

	f := &frame.Frame{Seq: 3, Dimension: 2, Max: [3]float64{8, 8, 0}, Particles: [][3]float64{{1, 2, 0}}}
	hub.Broadcast(f)

	text.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err := text.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	got, err := frame.Decode(data, frame.JSON)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	binary.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err = binary.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, typ)
	got, err = frame.Decode(data, frame.MsgPack)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestHubForwardsTargets(t *testing.T) {
	targets := make(chan collision.Point, 4)
	hub := NewHub(frame.JSON, func(p collision.Point) { targets <- p })
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not a target")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"x":12.5,"y":4}`)))

	packed := dial(t, srv, "?format=msgpack")
	data, err := msgpack.Marshal(frame.Target{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	require.NoError(t, packed.WriteMessage(websocket.BinaryMessage, data))

	received := map[collision.Point]bool{}
	for i := 0; i < 2; i++ {
		select {
		case p := <-targets:
			received[p] = true
		case <-time.After(5 * time.Second):
			t.Fatal("target not forwarded")
		}
	}
	assert.True(t, received[collision.Point{12.5, 4, 0}])
	assert.True(t, received[collision.Point{1, 2, 3}])
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub(frame.JSON, func(collision.Point) {})
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "")
	waitClients(t, hub, 1)
	conn.Close()
	waitClients(t, hub, 0)

	// Nothing left to send to
	assert.NotPanics(t, func() { hub.Broadcast(&frame.Frame{}) })
}

func TestHubClose(t *testing.T) {
	hub := NewHub(frame.JSON, func(collision.Point) {})
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "")
	waitClients(t, hub, 1)
	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "unexpected error %v", err)
}

func TestHandlerServesFiles(t *testing.T) {
	srv := newTestServer(t, NewHub(frame.JSON, func(collision.Point) {}))

	resp, err := http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws?format=xml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeStopsOnContext(t *testing.T) {
	hub := NewHub(frame.JSON, func(collision.Point) {})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- Serve(ctx, &HttpParams{Address: "127.0.0.1:0", Prefix: "/", Root: t.TempDir()}, hub)
	}()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
