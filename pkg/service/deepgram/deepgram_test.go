package deepgram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/service/deepgram"
)

type fakeServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu      sync.Mutex
	query   url.Values
	auth    string
	audio   [][]byte
	control []string

	// handle drives the connection after upgrade
	handle func(conn *websocket.Conn, s *fakeServer)
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.query = r.URL.Query()
	s.auth = r.Header.Get("Authorization")
	s.mu.Unlock()

	if r.URL.Path != "/v1/listen" {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	s.handle(conn, s)
}

func (s *fakeServer) record(kind int, payload []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == websocket.BinaryMessage {
		s.audio = append(s.audio, payload)
		return ""
	}
	var msg struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(payload, &msg)
	s.control = append(s.control, msg.Type)
	return msg.Type
}

func results(text string, final bool) []byte {
	raw, _ := json.Marshal(map[string]any{
		"type":     "Results",
		"is_final": final,
		"channel": map[string]any{
			"alternatives": []map[string]any{{"transcript": text, "confidence": 0.98}},
		},
	})
	return raw
}

func newProvider(t *testing.T, srv *httptest.Server, opts ...deepgram.Option) *deepgram.Provider {
	t.Helper()
	opts = append([]deepgram.Option{deepgram.WithBaseURL(srv.URL + "/v1")}, opts...)
	p, err := deepgram.New("dg-test-key", opts...)
	gt.NoError(t, err).Required()
	return p
}

func collect(t *testing.T, session interfaces.StreamingSession) []model.TranscriptEvent {
	t.Helper()
	var events []model.TranscriptEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-session.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for events channel to close")
		}
	}
}

func TestNew(t *testing.T) {
	_, err := deepgram.New("  ")
	gt.Error(t, err)
}

func TestProvider_Stream(t *testing.T) {
	fake := &fakeServer{t: t}
	fake.handle = func(conn *websocket.Conn, s *fakeServer) {
		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch s.record(kind, payload) {
			case "":
				_ = conn.WriteMessage(websocket.TextMessage, results("the dog", false))
				_ = conn.WriteMessage(websocket.TextMessage, results("the dog is limping", true))
			case "CloseStream":
				_ = conn.WriteMessage(websocket.TextMessage, results("since Monday", true))
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Metadata","request_id":"abc"}`))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	p := newProvider(t, srv, deepgram.WithLanguage("en"), deepgram.WithKeepAlive(0))
	session, err := p.StartStreaming(context.Background(), interfaces.StreamingConfig{
		SampleRate:     48000,
		Channels:       1,
		Encoding:       "linear16",
		InterimResults: true,
	})
	gt.NoError(t, err).Required()

	gt.NoError(t, session.SendAudio([]byte{1, 2, 3, 4})).Required()
	gt.NoError(t, session.SendAudio(nil)).Required()

	// wait for the first reply before closing the send side
	first := <-session.Events()
	gt.Value(t, first).Equal(model.TranscriptEvent{Text: "the dog", IsFinal: false})

	gt.NoError(t, session.CloseSend()).Required()
	gt.Error(t, session.SendAudio([]byte{5})).Is(deepgram.ErrStreamClosed)

	events := collect(t, session)
	gt.Value(t, events).Equal([]model.TranscriptEvent{
		{Text: "the dog is limping", IsFinal: true},
		{Text: "since Monday", IsFinal: true},
	})
	gt.NoError(t, session.Wait())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	gt.Value(t, fake.auth).Equal("Token dg-test-key")
	gt.Value(t, fake.query.Get("model")).Equal(deepgram.DefaultModel)
	gt.Value(t, fake.query.Get("sample_rate")).Equal("48000")
	gt.Value(t, fake.query.Get("interim_results")).Equal("true")
	gt.Value(t, fake.query.Get("language")).Equal("en")
	gt.Array(t, fake.audio).Length(1)
	gt.Value(t, fake.control).Equal([]string{"CloseStream"})
}

func TestProvider_ErrorEvent(t *testing.T) {
	fake := &fakeServer{t: t}
	fake.handle = func(conn *websocket.Conn, s *fakeServer) {
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"Error","description":"insufficient credits","err_code":"INSUFFICIENT_PERMISSIONS"}`))
		_, _, _ = conn.ReadMessage()
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, err := newProvider(t, srv).StartStreaming(context.Background(), interfaces.StreamingConfig{})
	gt.NoError(t, err).Required()
	defer session.Close()

	gt.Array(t, collect(t, session)).Length(0)
	gt.Error(t, session.Wait()).Is(deepgram.ErrRecognizer)
}

func TestProvider_UnexpectedDisconnect(t *testing.T) {
	fake := &fakeServer{t: t}
	fake.handle = func(conn *websocket.Conn, s *fakeServer) {
		_ = conn.WriteMessage(websocket.TextMessage, results("hello", true))
		// drop the TCP connection without a close frame
		_ = conn.UnderlyingConn().Close()
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	session, err := newProvider(t, srv).StartStreaming(context.Background(), interfaces.StreamingConfig{})
	gt.NoError(t, err).Required()
	defer session.Close()

	events := collect(t, session)
	gt.Value(t, events).Equal([]model.TranscriptEvent{{Text: "hello", IsFinal: true}})
	gt.Error(t, session.Wait())
}

func TestProvider_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newProvider(t, srv).StartStreaming(context.Background(), interfaces.StreamingConfig{})
	gt.Error(t, err)
}

func TestProvider_KeepAlive(t *testing.T) {
	got := make(chan string, 4)
	fake := &fakeServer{t: t}
	fake.handle = func(conn *websocket.Conn, s *fakeServer) {
		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msg := s.record(kind, payload); msg != "" {
				got <- msg
			}
		}
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	p := newProvider(t, srv, deepgram.WithKeepAlive(20*time.Millisecond))
	session, err := p.StartStreaming(context.Background(), interfaces.StreamingConfig{})
	gt.NoError(t, err).Required()
	defer session.Close()

	select {
	case msg := <-got:
		gt.Value(t, msg).Equal("KeepAlive")
	case <-time.After(5 * time.Second):
		t.Fatal("no KeepAlive received")
	}
}

func TestProvider_ContextCancelClosesSession(t *testing.T) {
	fake := &fakeServer{t: t}
	fake.handle = func(conn *websocket.Conn, s *fakeServer) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	session, err := newProvider(t, srv, deepgram.WithKeepAlive(0)).StartStreaming(ctx, interfaces.StreamingConfig{})
	gt.NoError(t, err).Required()

	cancel()
	gt.Array(t, collect(t, session)).Length(0)
	gt.NoError(t, session.Wait())
}
