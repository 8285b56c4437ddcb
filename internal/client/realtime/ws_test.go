package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centinela-app/centinela/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeGateway answers subscribe frames with one snapshot per record batch
// and acks every push with a derived key.
func fakeGateway(t *testing.T, batches []Snapshot) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		for {
			var f outboundFrame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			switch f.Action {
			case "subscribe":
				for _, b := range batches {
					if err := ws.WriteJSON(inboundFrame{Type: "snapshot", Sub: f.Sub, Records: b}); err != nil {
						return
					}
				}
			case "push":
				if f.Path == "" {
					_ = ws.WriteJSON(inboundFrame{Type: "error", Req: f.Req, Error: "path required"})
					continue
				}
				_ = ws.WriteJSON(inboundFrame{Type: "ack", Req: f.Req, Key: "k-" + f.Path})
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSConn_SubscribeDeliversSnapshotsInOrder(t *testing.T) {
	batches := []Snapshot{
		{{ID: "a", Fields: map[string]any{"tipo": "Robo"}}},
		{{ID: "a", Fields: map[string]any{"tipo": "Robo"}}, {ID: "b", Fields: map[string]any{"tipo": "Asalto"}}},
	}
	srv := fakeGateway(t, batches)
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), logging.Nop())
	require.NoError(t, err)
	defer conn.Close()

	ch, cancel, err := conn.Subscribe(context.Background(), Query{Collection: "Delitos", OrderBy: "timestamp", Descending: true})
	require.NoError(t, err)
	defer cancel()

	first := recvSnapshot(t, ch)
	require.Len(t, first, 1)
	assert.Equal(t, "a", first[0].ID)

	second := recvSnapshot(t, ch)
	require.Len(t, second, 2)
	assert.Equal(t, "b", second[1].ID)
	assert.Equal(t, "Asalto", second[1].Fields["tipo"])
}

func TestWSConn_PushAckAndError(t *testing.T) {
	srv := fakeGateway(t, nil)
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), logging.Nop())
	require.NoError(t, err)
	defer conn.Close()

	key, err := conn.Push(context.Background(), "alertas_emergencia", map[string]any{"tipo": "Policía"})
	require.NoError(t, err)
	assert.Equal(t, "k-alertas_emergencia", key)

	_, err = conn.Push(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path required")
}

func TestWSConn_PushRespectsContext(t *testing.T) {
	// gateway that never acks
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()
		for {
			var f outboundFrame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), logging.Nop())
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = conn.Push(ctx, "alertas_emergencia", map[string]any{"tipo": "Bomberos"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWSConn_CancelIsIdempotent(t *testing.T) {
	srv := fakeGateway(t, []Snapshot{{{ID: "a"}}})
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), logging.Nop())
	require.NoError(t, err)
	defer conn.Close()

	_, cancel, err := conn.Subscribe(context.Background(), Query{Collection: "Delitos"})
	require.NoError(t, err)

	cancel()
	cancel() // must not panic or block
}

func TestWSConn_CloseEndsSubscriptions(t *testing.T) {
	srv := fakeGateway(t, nil)
	defer srv.Close()

	conn, err := Dial(context.Background(), wsURL(srv), logging.Nop())
	require.NoError(t, err)

	ch, _, err := conn.Subscribe(context.Background(), Query{Collection: "Delitos"})
	require.NoError(t, err)

	require.NoError(t, conn.Close())

	select {
	case _, open := <-ch:
		assert.False(t, open, "snapshot channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot channel not closed after Close")
	}

	_, _, err = conn.Subscribe(context.Background(), Query{Collection: "Delitos"})
	require.Error(t, err)
}

func recvSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
