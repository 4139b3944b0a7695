package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientSend(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second, zap.NewNop())
	err := c.Send(context.Background(), Message{
		Phone:   "8015550134",
		Message: "hi",
		Transcript: []TranscriptEntry{
			{Role: "assistant", Content: "Would you like to book?"},
			{Role: "user", Content: "Yes, book now"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "8015550134", got.Phone)
	assert.Len(t, got.Transcript, 2)
	assert.Equal(t, "user", got.Transcript[1].Role)
}

func TestClientSendNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, zap.NewNop())
	err := c.Send(context.Background(), Message{Phone: "8015550134"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSent))
}

func TestClientSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second, zap.NewNop())
	err := c.Send(context.Background(), Message{Phone: "8015550134"})
	assert.ErrorIs(t, err, ErrNotSent)
}
