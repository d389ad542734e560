package http

import (
	"context"
	"net/http"
)

// WSMicrophone exposes the websocket-fed microphone for tests
type WSMicrophone struct {
	*wsMicrophone
}

func NewWSMicrophoneForTest(r *http.Request) (*WSMicrophone, error) {
	m, err := newWSMicrophone(r)
	if err != nil {
		return nil, err
	}
	return &WSMicrophone{m}, nil
}

func (m *WSMicrophone) Grant(granted bool) {
	m.grant(granted)
}

func (m *WSMicrophone) Feed(ctx context.Context, chunk []byte) bool {
	return m.feed(ctx, chunk)
}
