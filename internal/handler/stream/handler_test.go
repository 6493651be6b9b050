package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/maxai/internal/model/chat"
	chatservice "github.com/zhouzirui/maxai/internal/service/chat"
)

// nextState reads frames until the next "state" event and decodes it.
func nextState(t *testing.T, sc *bufio.Scanner) chat.State {
	t.Helper()
	var event string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == EventState:
			var state chat.State
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &state))
			return state
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return chat.State{}
}

func TestEventsStreamSnapshots(t *testing.T) {
	ctrl := chatservice.NewController(chatservice.ResponderFunc(func(_ context.Context, p string) string {
		return "re: " + p
	}), "welcome")

	r := chi.NewRouter()
	New(ctrl, zerolog.Nop()).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	sc := bufio.NewScanner(resp.Body)

	initial := nextState(t, sc)
	require.Len(t, initial.Messages, 1)
	assert.False(t, initial.Busy)

	require.True(t, ctrl.Submit(context.Background(), "ping"))

	accepted := nextState(t, sc)
	assert.True(t, accepted.Busy)
	assert.Len(t, accepted.Messages, 2)

	settled := nextState(t, sc)
	assert.False(t, settled.Busy)
	require.Len(t, settled.Messages, 3)
	assert.Equal(t, "re: ping", settled.Messages[2].Text)
}
