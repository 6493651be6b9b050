package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/maxai/internal/model/chat"
	chatservice "github.com/zhouzirui/maxai/internal/service/chat"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func serve(t *testing.T, ctrl *chatservice.Controller, origins []string) string {
	t.Helper()
	r := chi.NewRouter()
	New(ctrl, origins, zerolog.Nop()).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, ctrl *chatservice.Controller) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(serve(t, ctrl, []string{"*"}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func readState(t *testing.T, conn *websocket.Conn) chat.State {
	t.Helper()
	f := read(t, conn)
	require.Equal(t, TypeState, f.Type)
	var state chat.State
	require.NoError(t, json.Unmarshal(f.Data, &state))
	return state
}

func TestSubmitOverWebSocket(t *testing.T) {
	ctrl := chatservice.NewController(chatservice.ResponderFunc(func(_ context.Context, p string) string {
		return "re: " + p
	}), "welcome")
	conn := dial(t, ctrl)

	initial := readState(t, conn)
	assert.Len(t, initial.Messages, 1)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: TypeSubmit, Text: "hello"}))

	var settled chat.State
	for i := 0; i < 5; i++ {
		settled = readState(t, conn)
		if !settled.Busy && len(settled.Messages) == 3 {
			break
		}
	}
	require.Len(t, settled.Messages, 3)
	assert.False(t, settled.Busy)
	assert.Equal(t, "re: hello", settled.Messages[2].Text)
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	ctrl := chatservice.NewController(chatservice.ResponderFunc(func(context.Context, string) string {
		<-release
		return "late"
	}), "welcome")
	require.True(t, ctrl.Dispatch(context.Background(), "first"))

	conn := dial(t, ctrl)
	initial := readState(t, conn)
	require.True(t, initial.Busy)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: TypeSubmit, Text: "second"}))
	f := read(t, conn)
	assert.Equal(t, TypeRejected, f.Type)
	assert.Len(t, ctrl.Messages(), 2)
}

func TestUnknownTypeReportsError(t *testing.T) {
	ctrl := chatservice.NewController(chatservice.ResponderFunc(func(context.Context, string) string { return "" }), "welcome")
	conn := dial(t, ctrl)
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: "audio"}))
	f := read(t, conn)
	assert.Equal(t, TypeError, f.Type)
}

func TestDraftUpdatesController(t *testing.T) {
	ctrl := chatservice.NewController(chatservice.ResponderFunc(func(context.Context, string) string { return "" }), "welcome")
	conn := dial(t, ctrl)
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: TypeDraft, Text: "half-typed"}))
	state := readState(t, conn)
	assert.Equal(t, "half-typed", state.Draft)
	assert.Equal(t, "half-typed", ctrl.Draft())
}

func TestOriginIsCheckedAgainstAllowList(t *testing.T) {
	ctrl := chatservice.NewController(chatservice.ResponderFunc(func(context.Context, string) string {
		return "ok"
	}), "welcome")
	url := serve(t, ctrl, []string{"https://app.example.com"})

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{name: "no origin", origin: "", ok: true},
		{name: "allowed", origin: "https://app.example.com", ok: true},
		{name: "same origin", origin: "http" + strings.TrimSuffix(strings.TrimPrefix(url, "ws"), "/ws"), ok: true},
		{name: "foreign", origin: "https://evil.example.net", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if !tt.ok {
				require.ErrorIs(t, err, websocket.ErrBadHandshake)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			conn.Close()
		})
	}
}
