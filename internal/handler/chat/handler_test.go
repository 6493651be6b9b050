package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/maxai/internal/model/chat"
	chatservice "github.com/zhouzirui/maxai/internal/service/chat"
)

func setupRouter(responder chatservice.Responder) (*chi.Mux, *chatservice.Controller) {
	ctrl := chatservice.NewController(responder, "welcome text")
	handler := New(ctrl, zerolog.Nop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, ctrl
}

func echo() chatservice.ResponderFunc {
	return func(_ context.Context, prompt string) string { return "echo: " + prompt }
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestListMessagesReturnsWelcome(t *testing.T) {
	r, _ := setupRouter(echo())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/messages", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var msgs []chat.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, chatservice.WelcomeID, msgs[0].ID)
}

func TestSubmitAccepted(t *testing.T) {
	r, ctrl := setupRouter(echo())

	resp := post(r, `{"text":"  hello  "}`)
	require.Equal(t, http.StatusAccepted, resp.Code)

	require.Eventually(t, func() bool { return len(ctrl.Messages()) == 3 }, time.Second, 5*time.Millisecond)
	msgs := ctrl.Messages()
	assert.Equal(t, "hello", msgs[1].Text)
	assert.Equal(t, "echo: hello", msgs[2].Text)
}

func TestSubmitBlankRejected(t *testing.T) {
	r, ctrl := setupRouter(echo())

	assert.Equal(t, http.StatusBadRequest, post(r, `{"text":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, `not json`).Code)
	assert.Len(t, ctrl.Messages(), 1)
}

func TestSubmitWhileBusyConflicts(t *testing.T) {
	release := make(chan struct{})
	r, ctrl := setupRouter(chatservice.ResponderFunc(func(context.Context, string) string {
		<-release
		return "late"
	}))

	require.Equal(t, http.StatusAccepted, post(r, `{"text":"first"}`).Code)
	assert.Equal(t, http.StatusConflict, post(r, `{"text":"second"}`).Code)

	close(release)
	require.Eventually(t, func() bool { return !ctrl.Busy() }, time.Second, 5*time.Millisecond)
	assert.Len(t, ctrl.Messages(), 3)
}

func TestState(t *testing.T) {
	r, _ := setupRouter(echo())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var state chat.State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.False(t, state.Busy)
	assert.Len(t, state.Messages, 1)
}
