package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialRejectedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such run", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestDialAndNext(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.BinaryMessage, []byte{0x81})
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error"}`))
	}))
	defer srv.Close()

	stream, err := Dial(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	defer stream.Close()

	payload, binary, err := stream.Next()
	require.NoError(t, err)
	assert.True(t, binary)
	assert.Equal(t, []byte{0x81}, payload)

	payload, binary, err = stream.Next()
	require.NoError(t, err)
	assert.False(t, binary)
	assert.Equal(t, `{"type":"error"}`, string(payload))
}
